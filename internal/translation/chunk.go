package translation

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxChunkRunes is the largest piece of text sent in one request
const MaxChunkRunes = 4500

type chunkFunc func(ctx context.Context, chunk, targetLanguage string) (string, error)

// translateChunked splits text, translates every non-blank chunk in order
// and reassembles the result with the original surrounding whitespace.
func translateChunked(ctx context.Context, text, targetLanguage string, fn chunkFunc) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}

	var out strings.Builder
	for _, chunk := range SplitChunks(text, MaxChunkRunes) {
		lead, core, trail := splitSpace(chunk)
		if core == "" {
			out.WriteString(chunk)
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		translated, err := fn(ctx, core, targetLanguage)
		if err != nil {
			return "", err
		}
		out.WriteString(lead)
		out.WriteString(translated)
		out.WriteString(trail)
	}
	return out.String(), nil
}

// SplitChunks cuts text into pieces of at most max runes whose concatenation
// is the original text. Cuts prefer paragraph breaks, then line breaks, then
// spaces.
func SplitChunks(text string, max int) []string {
	if max <= 0 {
		max = MaxChunkRunes
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	for _, para := range packPieces(strings.SplitAfter(text, "\n\n"), max) {
		if utf8.RuneCountInString(para) <= max {
			chunks = append(chunks, para)
			continue
		}
		for _, line := range packPieces(strings.SplitAfter(para, "\n"), max) {
			if utf8.RuneCountInString(line) <= max {
				chunks = append(chunks, line)
				continue
			}
			chunks = append(chunks, hardSplit(line, max)...)
		}
	}
	return chunks
}

// packPieces greedily joins consecutive pieces while they fit into max
// runes. Pieces larger than max are passed through on their own.
func packPieces(pieces []string, max int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	for _, p := range pieces {
		if p == "" {
			continue
		}
		n := utf8.RuneCountInString(p)
		if curLen > 0 && curLen+n > max {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(p)
		curLen += n
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

func hardSplit(s string, max int) []string {
	var out []string
	runes := []rune(s)
	for len(runes) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func splitSpace(s string) (lead, core, trail string) {
	trimmedLeft := strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(trimmedLeft)]
	core = strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trail = trimmedLeft[len(core):]
	return lead, core, trail
}
