package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Categories groups model ids by what they can be used for
type Categories struct {
	Speech        []string // text-to-speech
	Transcription []string // speech-to-text
	Image         []string
	Chat          []string // description generation and translation
}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// ListAvailableModels prints the available models by category to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .polyglot.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		ids = append(ids, m.ID)
	}
	Print(w, Categorize(ids))
	return nil
}

// Categorize sorts model ids into categories. Ids matching none are dropped.
func Categorize(ids []string) Categories {
	var c Categories
	for _, id := range ids {
		switch {
		case strings.Contains(id, "transcribe") || strings.Contains(id, "whisper"):
			c.Transcription = append(c.Transcription, id)
		case strings.Contains(id, "tts") || strings.Contains(id, "audio"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(id, "dall-e") || strings.Contains(id, "image"):
			c.Image = append(c.Image, id)
		case strings.Contains(id, "gpt") || strings.Contains(id, "chat"):
			c.Chat = append(c.Chat, id)
		}
	}
	sort.Strings(c.Speech)
	sort.Strings(c.Transcription)
	sort.Strings(c.Image)
	sort.Strings(c.Chat)
	return c
}

// Print writes categories in the listing format
func Print(w io.Writer, c Categories) {
	fmt.Fprintln(w, "Available OpenAI Models:")
	printSection(w, "Text-to-Speech (TTS) Models:", "No TTS models found", c.Speech)
	printSection(w, "Speech-to-Text Models:", "No transcription models found", c.Transcription)
	printSection(w, "Image Generation Models:", "No image models found", c.Image)

	fmt.Fprintln(w, "\nChat Models (descriptions and translation):")
	if len(c.Chat) > 10 {
		relevant := []string{}
		for _, model := range c.Chat {
			if strings.Contains(model, "gpt-4") || strings.Contains(model, "gpt-3.5") {
				relevant = append(relevant, model)
			}
		}
		for _, model := range relevant {
			fmt.Fprintf(w, "  %s\n", model)
		}
		fmt.Fprintf(w, "  ... and %d more models\n", len(c.Chat)-len(relevant))
	} else {
		for _, model := range c.Chat {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}
}

func printSection(w io.Writer, title, empty string, models []string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(models) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, model := range models {
		fmt.Fprintf(w, "  %s\n", model)
	}
}
