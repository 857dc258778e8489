// Package render writes exported documents and diffs to a terminal,
// highlighting them when the output supports it.
package render

import (
	"io"
	"log/slog"
)

const (
	languageYAML = "yaml"
	languageDiff = "diff"
)

type Options struct {
	Color  ColorMode
	Theme  Theme
	Logger *slog.Logger
}

type Printer struct {
	color ColorMode
	dark  bool
}

func NewPrinter(opts Options) *Printer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Printer{color: opts.Color}
	if opts.Color != ColorNever {
		p.dark = opts.Theme.dark(logger)
	}
	return p
}

func (p *Printer) colorize(w io.Writer) bool {
	switch p.color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal(w)
	}
}

// YAML writes an exported environment document.
func (p *Printer) YAML(w io.Writer, data []byte) error {
	return p.write(w, languageYAML, data)
}

// Diff writes a unified diff as produced by Diff.
func (p *Printer) Diff(w io.Writer, data []byte) error {
	return p.write(w, languageDiff, data)
}

func (p *Printer) write(w io.Writer, language string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !p.colorize(w) {
		_, err := w.Write(data)
		return err
	}
	return p.highlight(w, language, data)
}
