// Package hexdump renders byte windows around scan survivors for the
// CLI, with the surviving element ranges highlighted.
package hexdump

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Range is an absolute address range to highlight, end exclusive
type Range struct {
	Start uint64
	End   uint64
}

// Options customizes the dump layout and colors
type Options struct {
	// BytesPerLine defines the number of bytes per output line
	BytesPerLine int

	// ShowASCII appends the printable-character column
	ShowASCII bool

	// StartOffset is the absolute address of data[0]
	StartOffset uint64

	// Highlights marks the address ranges to color, typically the
	// surviving elements within the window
	Highlights []Range

	// MaxLines truncates the dump, 0 for no limit
	MaxLines int

	OffsetColor    coloransi.ColorCode
	HexColor       coloransi.ColorCode
	HighlightColor coloransi.ColorCode
	ASCIIColor     coloransi.ColorCode
}

// DefaultOptions returns the layout the CLI uses
func DefaultOptions() Options {
	return Options{
		BytesPerLine:   16,
		ShowASCII:      true,
		OffsetColor:    coloransi.Cyan,
		HexColor:       coloransi.White,
		HighlightColor: coloransi.BrightGreen,
		ASCIIColor:     coloransi.Yellow,
	}
}

// Dump renders data with the given options
func Dump(data []byte, opts Options) string {
	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = 16
	}

	var sb strings.Builder
	lines := 0
	for base := 0; base < len(data); base += opts.BytesPerLine {
		if opts.MaxLines > 0 && lines >= opts.MaxLines {
			fmt.Fprintf(&sb, "... %d more bytes\n", len(data)-base)
			break
		}
		lines++

		addr := opts.StartOffset + uint64(base)
		sb.WriteString(coloransi.Foreground(opts.OffsetColor, fmt.Sprintf("%012X", addr)))
		sb.WriteString("  ")

		end := base + opts.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		for i := base; i < base+opts.BytesPerLine; i++ {
			if i >= len(data) {
				sb.WriteString("   ")
				continue
			}
			cell := fmt.Sprintf("%02x ", data[i])
			if highlighted(opts.Highlights, opts.StartOffset+uint64(i)) {
				sb.WriteString(coloransi.Foreground(opts.HighlightColor, cell))
			} else {
				sb.WriteString(coloransi.Foreground(opts.HexColor, cell))
			}
		}

		if opts.ShowASCII {
			sb.WriteString(" |")
			for i := base; i < end; i++ {
				c := rune(data[i])
				if !unicode.IsPrint(c) || c > 126 {
					c = '.'
				}
				sb.WriteString(coloransi.Foreground(opts.ASCIIColor, string(c)))
			}
			sb.WriteString("|")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func highlighted(ranges []Range, addr uint64) bool {
	for _, r := range ranges {
		if addr >= r.Start && addr < r.End {
			return true
		}
	}
	return false
}
