package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("model returned an empty response")

type Client struct {
	client *genai.Client
	model  string
}

type Config struct {
	APIKey string
	Model  string

	// BaseURL and HTTPClient point the client at a different endpoint. Left empty in production.
	BaseURL    string
	HTTPClient *http.Client
}

// GenerateOptions are the per-call model settings.
type GenerateOptions struct {
	MaxOutputTokens int32
	Temperature     float32
	// BlockMediumAndAbove applies BLOCK_MEDIUM_AND_ABOVE to harassment, hate speech,
	// sexually explicit and dangerous content.
	BlockMediumAndAbove bool
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("genai api key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: "v1beta",
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Generate sends a single text prompt and returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		buildConfig(opts),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func buildConfig(opts GenerateOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.BlockMediumAndAbove {
		config.SafetySettings = safetySettings(genai.HarmBlockThresholdBlockMediumAndAbove)
	}
	return config
}

func safetySettings(threshold genai.HarmBlockThreshold) []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}
	return settings
}
