// Package vocabulary rewrites transcript text with user-maintained term
// corrections, such as drug names the speech model keeps mishearing.
//
// A corrections file holds one rule per line. Blank lines and lines starting
// with # are ignored.
//
//	metro prolol => Metoprolol
//	s/\bi\.?\s*v\.?\b/i.v./g
//
// Literal rules match case-insensitively and replace every occurrence.
// Substitution rules use sed syntax with any non-alphanumeric delimiter and
// the flags g, i, m and s; matching is case-insensitive unless the flag list
// contains I.
package vocabulary

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultPasses = 30

type rule struct {
	re    *regexp.Regexp
	with  string
	every bool
}

func (r rule) rewrite(text string) string {
	if r.every {
		return r.re.ReplaceAllString(text, r.with)
	}
	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	var out []byte
	out = r.re.ExpandString(out, r.with, text, loc)
	return text[:loc[0]] + string(out) + text[loc[1]:]
}

// Corrector applies rules until the text stops changing or the pass limit
// is reached, so chained rules (a => b, b => c) settle.
type Corrector struct {
	rules  []rule
	passes int
}

// Load reads rules from path. A missing file or an empty path yields a
// corrector that leaves text unchanged.
func Load(path string) (*Corrector, error) {
	if strings.TrimSpace(path) == "" {
		return &Corrector{}, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Corrector{}, nil
		}
		return nil, fmt.Errorf("failed to read vocabulary file %q: %w", path, err)
	}
	c, err := Parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %q: %w", path, err)
	}
	return c, nil
}

// Parse compiles rules from their text form.
func Parse(contents string) (*Corrector, error) {
	var rules []rule
	for i, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			r   rule
			err error
		)
		switch {
		case isSubstitution(line):
			r, err = parseSubstitution(line)
		case strings.Contains(line, "=>"):
			r, err = parseLiteral(line)
		default:
			err = errors.New("expected 'from => to' or s/pattern/replacement/flags")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		rules = append(rules, r)
	}
	return &Corrector{rules: rules, passes: defaultPasses}, nil
}

// Len returns the number of loaded rules.
func (c *Corrector) Len() int {
	return len(c.rules)
}

// Correct rewrites text. It is safe for concurrent use.
func (c *Corrector) Correct(text string) string {
	if c == nil || len(c.rules) == 0 {
		return text
	}
	for pass := 0; pass < c.passes; pass++ {
		before := text
		for _, r := range c.rules {
			text = r.rewrite(text)
		}
		if text == before {
			break
		}
	}
	return text
}

func parseLiteral(line string) (rule, error) {
	from, to, _ := strings.Cut(line, "=>")
	from = strings.TrimSpace(from)
	if from == "" {
		return rule{}, errors.New("literal rule needs a source term")
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(from))
	// $ in a literal replacement is not a group reference.
	return rule{re: re, with: strings.ReplaceAll(strings.TrimSpace(to), "$", "$$"), every: true}, nil
}

func isSubstitution(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordOrSpace(line[1])
}

func parseSubstitution(line string) (rule, error) {
	delim := line[1]
	fields, rest, err := splitDelimited(line[2:], delim, 2)
	if err != nil {
		return rule{}, err
	}
	pattern, with := fields[0], fields[1]

	caseless, every := true, false
	var mode strings.Builder
	for _, f := range strings.TrimSpace(rest) {
		switch f {
		case 'g':
			every = true
		case 'i':
			caseless = true
		case 'I':
			caseless = false
		case 'm', 's':
			mode.WriteRune(f)
		default:
			return rule{}, fmt.Errorf("unsupported flag %q", f)
		}
	}
	if caseless {
		mode.WriteByte('i')
	}
	if mode.Len() > 0 {
		pattern = "(?" + mode.String() + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return rule{}, fmt.Errorf("invalid pattern: %w", err)
	}
	return rule{re: re, with: with, every: every}, nil
}

// splitDelimited reads n delim-terminated fields from s. Backslash escapes
// are kept so the regexp engine sees them; an escaped delimiter loses its
// backslash.
func splitDelimited(s string, delim byte, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	var field strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && s[i+1] == delim:
			field.WriteByte(delim)
			i++
		case ch == '\\' && i+1 < len(s):
			field.WriteByte(ch)
			field.WriteByte(s[i+1])
			i++
		case ch == delim:
			fields = append(fields, field.String())
			field.Reset()
			if len(fields) == n {
				return fields, s[i+1:], nil
			}
		default:
			field.WriteByte(ch)
		}
	}
	return nil, "", errors.New("unterminated substitution")
}

func isWordOrSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}
