package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"scribe/internal/domain"
)

type options struct {
	files     []string
	local     bool
	remote    bool
	template  string
	paste     bool
	noPaste   bool
	record    bool
	history   int
	templates bool
	asJSON    bool
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: scribectl [flags] <audio-file>...\n")
		fmt.Fprintf(out, "       scribectl -record [flags]\n\n")
		fmt.Fprintf(out, "Transcribes audio files with the settings of the desktop app.\n")
		fmt.Fprintf(out, "Flags override the stored preferences for this run only.\n\n")
		fs.PrintDefaults()
	}
}

func parseOptions(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("scribectl", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = usage(fs)

	fs.BoolVar(&opts.local, "local", false, "use the local speech engine")
	fs.BoolVar(&opts.remote, "remote", false, "use the remote transcription service")
	fs.StringVar(&opts.template, "template", "", "summary template id")
	fs.BoolVar(&opts.paste, "paste", false, "paste the summary into the focused window")
	fs.BoolVar(&opts.noPaste, "no-paste", false, "only copy the summary to the clipboard")
	fs.BoolVar(&opts.record, "record", false, "record from the default devices until Enter is pressed")
	fs.IntVar(&opts.history, "history", 0, "print the `N` most recent sessions and exit")
	fs.BoolVar(&opts.templates, "templates", false, "list summary templates and exit")
	fs.BoolVar(&opts.asJSON, "json", false, "print results as JSON")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.files = fs.Args()

	switch {
	case opts.local && opts.remote:
		return options{}, errors.New("-local and -remote are mutually exclusive")
	case opts.paste && opts.noPaste:
		return options{}, errors.New("-paste and -no-paste are mutually exclusive")
	case opts.history < 0:
		return options{}, errors.New("-history must not be negative")
	case opts.record && len(opts.files) > 0:
		return options{}, errors.New("-record does not take audio files")
	case !opts.record && !opts.templates && opts.history == 0 && len(opts.files) == 0:
		fs.Usage()
		return options{}, errors.New("no audio file given")
	}
	return opts, nil
}

// overrides returns the preference changes requested on the command line,
// or nil when there are none.
func (o options) overrides() func(*domain.Preferences) {
	if !o.local && !o.remote && o.template == "" && !o.paste && !o.noPaste {
		return nil
	}
	return func(p *domain.Preferences) {
		switch {
		case o.local:
			p.UseLocalProcessing = true
		case o.remote:
			p.UseLocalProcessing = false
		}
		if t := strings.TrimSpace(o.template); t != "" {
			p.SummaryTemplate = t
		}
		switch {
		case o.paste:
			p.AutoPasteOnFinish = true
		case o.noPaste:
			p.AutoPasteOnFinish = false
		}
	}
}
