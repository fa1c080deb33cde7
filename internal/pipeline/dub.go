package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"codeberg.org/snonux/polyglot/internal/audio"
	"codeberg.org/snonux/polyglot/internal/media"
	"codeberg.org/snonux/polyglot/internal/store"
)

// DubVideo replaces the speech in srcVideo with a spoken translation into
// lang. Intermediate and final files are written to jobDir. A failure of
// the speech stage is returned as *TranscriptionError.
func (p *Processor) DubVideo(ctx context.Context, srcVideo, jobDir, lang string) (out string, err error) {
	id := jobID(jobDir)
	p.begin(ctx, id, store.KindDub, filepath.Base(srcVideo), lang)
	defer func() { p.finish(id, out, err) }()

	if err := requireAll(
		check{"media", p.stages.Media != nil},
		check{"speech", p.stages.Speech != nil},
		check{"translation", p.stages.Translator != nil},
		check{"speech synthesis", p.stages.TTS != nil},
	); err != nil {
		return "", err
	}
	if err := statFile(srcVideo); err != nil {
		return "", err
	}

	wav := filepath.Join(jobDir, ExtractedAudioName)
	p.stage(id, "extract", "Extracting audio from %s...", filepath.Base(srcVideo))
	if err := p.stages.Media.ExtractAudio(ctx, srcVideo, wav, media.ExtractOptions{}); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}

	p.stage(id, "transcribe", "Transcribing with %s...", p.stages.Speech.Name())
	transcript, err := p.stages.Speech.Transcribe(ctx, wav, p.opts.SpeechLanguage)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		p.log.Error("transcription failed", "job", id, "error", err)
		return "", &TranscriptionError{Err: err}
	}

	p.stage(id, "translate", "Translating transcript to %s...", lang)
	translated, err := p.stages.Translator.Translate(ctx, transcript, lang)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}

	mp3 := filepath.Join(jobDir, TranslatedAudioName)
	tts := audio.ForLanguage(p.stages.TTS, lang)
	p.stage(id, "synthesize", "Generating speech with %s...", tts.Name())
	if err := tts.GenerateAudio(ctx, translated, mp3); err != nil {
		return "", fmt.Errorf("speech synthesis: %w", err)
	}

	out = filepath.Join(jobDir, TranslatedVideoName)
	p.stage(id, "mux", "Combining translated audio with video...")
	if err := p.stages.Media.ReplaceAudio(ctx, srcVideo, mp3, out); err != nil {
		return "", fmt.Errorf("replace audio: %w", err)
	}
	return out, nil
}
