package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"codeberg.org/snonux/polyglot/internal/store"
)

// TranslatePDF extracts the text of srcPDF, translates it into lang and
// writes jobDir/translated_document.pdf
func (p *Processor) TranslatePDF(ctx context.Context, srcPDF, jobDir, lang string) (out string, err error) {
	id := jobID(jobDir)
	p.begin(ctx, id, store.KindPDF, filepath.Base(srcPDF), lang)
	defer func() { p.finish(id, out, err) }()

	if err := requireAll(check{"translation", p.stages.Translator != nil}); err != nil {
		return "", err
	}
	if err := statFile(srcPDF); err != nil {
		return "", err
	}

	p.stage(id, "extract", "Extracting text from %s...", filepath.Base(srcPDF))
	text, err := p.stages.ExtractText(srcPDF)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	p.stage(id, "translate", "Translating %d characters to %s...", len([]rune(text)), lang)
	translated, err := p.stages.Translator.Translate(ctx, text, lang)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}

	out = filepath.Join(jobDir, TranslatedPDFName)
	p.stage(id, "write", "Writing %s...", TranslatedPDFName)
	if err := p.stages.WritePDF(translated, out, p.opts.PDF); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return out, nil
}
