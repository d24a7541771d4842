package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// resolveColors honours NO_COLOR and dumb terminals in auto mode.
func resolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		return os.Getenv("TERM") != "dumb"
	}
}

// Printer writes coloured status lines and tables.
type Printer struct {
	out       io.Writer
	useColors bool
}

func NewPrinter(out io.Writer, mode ColorMode) *Printer {
	return &Printer{out: out, useColors: resolveColors(mode)}
}

func (p *Printer) print(attr color.Attribute, prefix, format string, args ...any) {
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		_, _ = c.Fprintf(p.out, format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(p.out, prefix+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	p.print(color.FgCyan, "", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.print(color.FgGreen, "[OK] ", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.print(color.FgYellow, "[WARN] ", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.print(color.FgRed, "[ERROR] ", format, args...)
}

func (p *Printer) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Confidence prints a score coloured by band: green from 0.7, yellow from 0.4.
func (p *Printer) Confidence(label string, score float64) {
	switch {
	case score >= 0.7:
		p.print(color.FgGreen, "", "%s: %.3f", label, score)
	case score >= 0.4:
		p.print(color.FgYellow, "", "%s: %.3f", label, score)
	default:
		p.print(color.FgRed, "", "%s: %.3f", label, score)
	}
}

// Table renders rows under headers without borders.
func (p *Printer) Table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
