package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
)

// Page geometry in points
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
	FontSize     = 12.0
	Margin       = 40.0
	LineHeight   = 14.0
)

// WriteOptions controls PDF output
type WriteOptions struct {
	FontPath string // UTF-8 TrueType font; empty uses Helvetica
	NoWrap   bool   // Draw long lines past the right margin instead of wrapping
}

// Line is one line of text placed on a page. Y is the baseline measured
// from the bottom of the page.
type Line struct {
	Text string
	Y    float64
}

// Layout places lines top to bottom starting at pageHeight-Margin, moving
// down by LineHeight and starting a new page whenever the next baseline
// would fall below the bottom margin.
func Layout(lines []string, pageHeight float64) [][]Line {
	var pages [][]Line
	var current []Line
	y := pageHeight - Margin
	for _, text := range lines {
		if y < Margin {
			pages = append(pages, current)
			current = nil
			y = pageHeight - Margin
		}
		current = append(current, Line{Text: text, Y: y})
		y -= LineHeight
	}
	return append(pages, current)
}

// SplitLines breaks text on newlines the way a text file is read line by
// line: "\r\n" and "\r" count as breaks and a trailing break adds no line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// WritePDF draws text on Letter pages, one input line per drawn line
// (plus continuation lines when wrapping), and writes it to out.
func WritePDF(text, out string, opts WriteOptions) error {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: LetterWidth, Ht: LetterHeight},
	})
	doc.SetMargins(Margin, Margin, Margin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCompression(true)

	family := "Helvetica"
	encode := doc.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		family = "body"
		doc.AddUTF8Font(family, "", opts.FontPath)
		encode = func(s string) string { return s }
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("load font %s: %w", opts.FontPath, err)
	}
	setFont := func() {
		doc.SetFont(family, "", FontSize)
		doc.SetTextColor(0, 0, 0)
	}
	setFont()

	lines := SplitLines(text)
	if !opts.NoWrap {
		width := func(s string) float64 { return doc.GetStringWidth(encode(s)) }
		lines = wrapLines(lines, LetterWidth-2*Margin, width)
	}

	for _, page := range Layout(lines, LetterHeight) {
		doc.AddPage()
		setFont()
		for _, l := range page {
			if l.Text == "" {
				continue
			}
			doc.Text(Margin, LetterHeight-l.Y, encode(l.Text))
		}
	}

	if dir := filepath.Dir(out); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := doc.OutputFileAndClose(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// wrapLines breaks lines wider than maxWidth at spaces, and inside words
// that are wider than maxWidth on their own. Empty lines are kept.
func wrapLines(lines []string, maxWidth float64, width func(string) float64) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if width(l) <= maxWidth {
			out = append(out, l)
			continue
		}
		out = append(out, wrapLine(l, maxWidth, width)...)
	}
	return out
}

// wrapLine breaks an over-wide line at whitespace. Spacing inside a piece is
// kept as written; only the run at a break point is dropped.
func wrapLine(line string, maxWidth float64, width func(string) float64) []string {
	if strings.TrimSpace(line) == "" {
		head, _ := splitAtWidth(line, maxWidth, width)
		return []string{head}
	}
	var out []string
	current := ""
	for i, seg := range spaceSegments(line) {
		if i == 0 {
			// leading indentation stays with the first word
			seg = segment{word: seg.gap + seg.word}
		}
		candidate := seg.word
		if current != "" {
			candidate = current + seg.gap + seg.word
		}
		if width(candidate) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			out = append(out, current)
			current = ""
		}
		word := seg.word
		for width(word) > maxWidth {
			head, tail := splitAtWidth(word, maxWidth, width)
			out = append(out, head)
			word = tail
		}
		current = word
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

type segment struct {
	gap, word string
}

// spaceSegments cuts line into words, each with the whitespace run before it.
// Trailing whitespace becomes a segment with an empty word.
func spaceSegments(line string) []segment {
	var segs []segment
	var gap, word strings.Builder
	inWord := false
	for _, r := range line {
		space := unicode.IsSpace(r)
		if space && inWord {
			segs = append(segs, segment{gap: gap.String(), word: word.String()})
			gap.Reset()
			word.Reset()
			inWord = false
		}
		if space {
			gap.WriteRune(r)
			continue
		}
		word.WriteRune(r)
		inWord = true
	}
	if gap.Len() > 0 || word.Len() > 0 {
		segs = append(segs, segment{gap: gap.String(), word: word.String()})
	}
	return segs
}

// splitAtWidth returns the longest rune prefix of word that fits, at least
// one rune
func splitAtWidth(word string, maxWidth float64, width func(string) float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && width(string(runes[:n+1])) <= maxWidth {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
