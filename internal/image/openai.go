package image

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	stdimage "image"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/polyglot/internal/breaker"
)

// OpenAIClient generates images with DALL-E
type OpenAIClient struct {
	client      *openai.Client
	apiKey      string
	model       string
	size        string
	quality     string
	style       string
	cacheDir    string
	enableCache bool
}

// OpenAIConfig holds configuration for the OpenAI image client
type OpenAIConfig struct {
	APIKey      string
	Model       string // "dall-e-2" or "dall-e-3"
	Size        string // "256x256", "512x512", "1024x1024", "1024x1792", "1792x1024"
	Quality     string // "standard" or "hd" (dall-e-3)
	Style       string // "natural" or "vivid" (dall-e-3)
	CacheDir    string
	EnableCache bool
}

// NewOpenAIClient creates a new OpenAI image client
func NewOpenAIClient(config *OpenAIConfig) *OpenAIClient {
	if config.Model == "" {
		config.Model = openai.CreateImageModelDallE2
	}
	if config.Size == "" {
		config.Size = openai.CreateImageSize512x512
	}
	if config.Quality == "" {
		config.Quality = openai.CreateImageQualityStandard
	}
	if config.Style == "" {
		config.Style = openai.CreateImageStyleNatural
	}

	c := &OpenAIClient{
		apiKey:      config.APIKey,
		model:       config.Model,
		size:        config.Size,
		quality:     config.Quality,
		style:       config.Style,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache,
	}
	if config.APIKey != "" {
		c.client = openai.NewClient(config.APIKey)
	}
	if c.enableCache && c.cacheDir != "" {
		if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create image cache directory: %v\n", err)
			c.enableCache = false
		}
	}
	return c
}

// Generate requests one image for description
func (c *OpenAIClient) Generate(ctx context.Context, description string, frame int) (*Result, error) {
	if c.client == nil {
		return nil, &GenerationError{Provider: c.Name(), Code: "NO_API_KEY", Message: "OpenAI API key not configured"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &GenerationError{Provider: c.Name(), Code: "EMPTY_PROMPT", Message: "description is empty"}
	}

	if c.enableCache {
		if data, err := os.ReadFile(c.getCacheFilePath(description, frame)); err == nil {
			return c.result(data, "", true), nil
		}
	}

	req := openai.ImageRequest{
		Prompt:         description,
		Model:          c.model,
		N:              1,
		Size:           c.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}
	if c.model == openai.CreateImageModelDallE3 {
		req.Quality = c.quality
		req.Style = c.style
	}

	resp, err := breaker.Do("openai", func() (openai.ImageResponse, error) {
		return c.client.CreateImage(ctx, req)
	})
	if err != nil {
		return nil, &GenerationError{Provider: c.Name(), Code: "API_ERROR", Message: fmt.Sprintf("image generation failed: %v", err)}
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &GenerationError{Provider: c.Name(), Code: "NO_DATA", Message: "no image returned"}
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &GenerationError{Provider: c.Name(), Code: "BAD_DATA", Message: fmt.Sprintf("decode image: %v", err)}
	}

	if c.enableCache {
		path := c.getCacheFilePath(description, frame)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			_ = os.WriteFile(path, data, 0644)
		}
	}

	return c.result(data, resp.Data[0].RevisedPrompt, false), nil
}

// result fills in dimensions from the PNG header, falling back to the
// requested size
func (c *OpenAIClient) result(data []byte, revised string, cached bool) *Result {
	res := &Result{
		PNG:           data,
		Width:         c.getSizeWidth(),
		Height:        c.getSizeHeight(),
		RevisedPrompt: revised,
		Cached:        cached,
		Source:        c.Name(),
	}
	if cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(data)); err == nil {
		res.Width, res.Height = cfg.Width, cfg.Height
	}
	return res
}

// GetAttribution returns the attribution text for generated images
func (c *OpenAIClient) GetAttribution() string {
	return fmt.Sprintf("Images generated by OpenAI DALL-E (%s)", c.model)
}

// Name returns the name of the provider
func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) getCacheFilePath(description string, frame int) string {
	h := md5.New()
	h.Write([]byte(description))
	h.Write([]byte(c.model))
	h.Write([]byte(c.size))
	h.Write([]byte(c.quality))
	h.Write([]byte(c.style))
	h.Write([]byte(strconv.Itoa(frame)))
	hash := hex.EncodeToString(h.Sum(nil))
	return filepath.Join(c.cacheDir, hash[:2], hash[2:]+".png")
}

func (c *OpenAIClient) getSizeWidth() int {
	w, _ := parseSize(c.size)
	return w
}

func (c *OpenAIClient) getSizeHeight() int {
	_, h := parseSize(c.size)
	return h
}

// parseSize reads "WxH"; anything else is 512x512
func parseSize(size string) (int, int) {
	ws, hs, ok := strings.Cut(size, "x")
	if !ok {
		return 512, 512
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 512, 512
	}
	return w, h
}

var _ Generator = (*OpenAIClient)(nil)
