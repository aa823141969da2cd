// Package summary turns the structured data returned with a transcription
// into the plain text that is shown and pasted.
package summary

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/buger/jsonparser"
)

const bullet = "• "

var soapSections = []struct {
	key   string
	label string
}{
	{key: "subjective", label: "Subjective"},
	{key: "objective", label: "Objective"},
	{key: "assessment", label: "Assessment"},
	{key: "plan", label: "Plan"},
}

// Extract returns the summary text carried by structured data. Only a JSON
// object yields a summary. A non-empty "summary" string wins (prefixed by
// "title" when present), then SOAP sections, then the generic rendering of
// the whole object. ok is false when the result is blank.
func Extract(raw []byte) (text string, ok bool) {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil || dataType != jsonparser.Object {
		return "", false
	}

	if s := stringField(value, "summary"); s != "" {
		if title := stringField(value, "title"); title != "" {
			return title + "\n\n" + s, true
		}
		return s, true
	}

	if soap := formatSOAP(value); soap != "" {
		return soap, true
	}

	text = Format(value)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// Format renders any JSON value as labelled paragraphs. Objects render one
// section per member in document order; scalars render as their text.
func Format(raw []byte) string {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.Object:
		return formatObject(value)
	case jsonparser.Array:
		return strings.Join(arrayItems(value), ",")
	default:
		s, _ := scalarText(value, dataType)
		return s
	}
}

func formatObject(obj []byte) string {
	var parts []string
	_ = jsonparser.ObjectEach(obj, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		label := formatKey(string(key))
		switch dataType {
		case jsonparser.String:
			if s := strings.TrimSpace(parseString(value)); s != "" {
				parts = append(parts, label+":\n"+s)
			}
		case jsonparser.Array:
			items := arrayItems(value)
			if len(items) == 0 {
				return nil
			}
			lines := make([]string, 0, len(items))
			for _, item := range items {
				lines = append(lines, bullet+indentTail(item, "  "))
			}
			parts = append(parts, label+":\n"+strings.Join(lines, "\n"))
		case jsonparser.Object:
			nested := formatObject(value)
			if strings.TrimSpace(nested) != "" {
				parts = append(parts, label+":\n"+indent(nested, "  "))
			}
		case jsonparser.Number, jsonparser.Boolean:
			s, _ := scalarText(value, dataType)
			parts = append(parts, label+": "+s)
		}
		return nil
	})
	return strings.Join(parts, "\n\n")
}

// arrayItems returns the non-empty textual items of an array. Null items are
// dropped, strings are trimmed and objects are rendered by formatObject.
func arrayItems(arr []byte) []string {
	var items []string
	_, _ = jsonparser.ArrayEach(arr, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil {
			return
		}
		var s string
		switch dataType {
		case jsonparser.Null:
			return
		case jsonparser.String:
			s = strings.TrimSpace(parseString(value))
		case jsonparser.Object:
			s = strings.TrimSpace(formatObject(value))
		case jsonparser.Array:
			s = strings.Join(arrayItems(value), ",")
		default:
			s, _ = scalarText(value, dataType)
		}
		if s != "" {
			items = append(items, s)
		}
	})
	return items
}

func formatSOAP(obj []byte) string {
	var parts []string
	for _, section := range soapSections {
		if s := stringField(obj, section.key); s != "" {
			parts = append(parts, section.label+":\n"+s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// stringField returns the trimmed string member key, or "" when it is absent
// or not a string.
func stringField(obj []byte, key string) string {
	value, dataType, _, err := jsonparser.Get(obj, key)
	if err != nil || dataType != jsonparser.String {
		return ""
	}
	return strings.TrimSpace(parseString(value))
}

func scalarText(value []byte, dataType jsonparser.ValueType) (string, bool) {
	switch dataType {
	case jsonparser.String:
		return parseString(value), true
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		if err != nil {
			return string(value), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return string(value), true
		}
		return strconv.FormatBool(b), true
	default:
		return "", false
	}
}

func parseString(value []byte) string {
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return string(value)
	}
	return s
}

// formatKey upper-cases the first rune and turns underscores into spaces.
func formatKey(key string) string {
	if key == "" {
		return key
	}
	r, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(r)) + strings.ReplaceAll(key[size:], "_", " ")
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// indentTail indents every line but the first.
func indentTail(text, prefix string) string {
	first, rest, found := strings.Cut(text, "\n")
	if !found {
		return text
	}
	return first + "\n" + indent(rest, prefix)
}
