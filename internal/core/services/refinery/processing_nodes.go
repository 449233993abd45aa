package refinery

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\p{Zs}]+`)
	anySpaceRe        = regexp.MustCompile(`\s+`)
)

// ProcessingNodes contains reusable text processing methods. Each node is a
// no-op unless its flag is set in the config.
type ProcessingNodes struct {
	config *RefineryConfig
}

// NewProcessingNodes creates a new ProcessingNodes with the given config
func NewProcessingNodes(config *RefineryConfig) *ProcessingNodes {
	return &ProcessingNodes{config: config}
}

// NormalizeUnicode composes text to NFC so visually equal input compares equal
func (p *ProcessingNodes) NormalizeUnicode(text string) string {
	if !p.config.NormalizeUnicode {
		return text
	}
	return norm.NFC.String(text)
}

// NormalizeLineEndings turns CRLF and lone CR into LF
func (p *ProcessingNodes) NormalizeLineEndings(text string) string {
	if !p.config.NormalizeLineEndings {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// StripControlChars drops control and format runes. Newlines survive when
// KeepNewlines is set; tabs become spaces.
func (p *ProcessingNodes) StripControlChars(text string) string {
	if !p.config.StripControlChars {
		return text
	}

	keepNewlines := p.config.KeepNewlines
	drop := runes.Predicate(func(r rune) bool {
		if r == '\n' && keepNewlines {
			return false
		}
		if r == '\t' {
			return false
		}
		return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
	})

	out, _, err := transform.String(runes.Remove(drop), text)
	if err != nil {
		return text
	}
	return strings.ReplaceAll(out, "\t", " ")
}

// CollapseSpaces squeezes runs of whitespace into one space. With
// KeepNewlines only horizontal whitespace is squeezed.
func (p *ProcessingNodes) CollapseSpaces(text string) string {
	if !p.config.CollapseSpaces {
		return text
	}
	if p.config.KeepNewlines {
		return horizontalSpaceRe.ReplaceAllString(text, " ")
	}
	return anySpaceRe.ReplaceAllString(text, " ")
}

// TrimLines trims each line of multi-line text
func (p *ProcessingNodes) TrimLines(text string) string {
	if !p.config.TrimLines {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// CollapseBlankLines keeps at most MaxBlankLines consecutive empty lines
func (p *ProcessingNodes) CollapseBlankLines(text string) string {
	if !p.config.CollapseBlankLines {
		return text
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > p.config.MaxBlankLines {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// RemoveAllWhitespace deletes every whitespace rune
func (p *ProcessingNodes) RemoveAllWhitespace(text string) string {
	if !p.config.RemoveAllWhitespace {
		return text
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// MakeLowercase converts text to lowercase
func (p *ProcessingNodes) MakeLowercase(text string) string {
	if !p.config.MakeLowercase {
		return text
	}
	return strings.ToLower(text)
}

// TrimSpace trims leading and trailing whitespace
func (p *ProcessingNodes) TrimSpace(text string) string {
	if !p.config.TrimSpace {
		return text
	}
	return strings.TrimSpace(text)
}
