package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/speechpath/saltd/internal/ai"
	"github.com/speechpath/saltd/pkg/logger"
)

// Client represents a Google Gemini API client
type Client struct {
	client *genai.Client
	logger *logger.Logger
}

// NewClient creates a new Gemini Client
func NewClient(ctx context.Context, apiKey string, log *logger.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		client: client,
		logger: log.Named("gemini"),
	}, nil
}

// -- ChatProvider Implementation --

// ChatCompletion sends a conversation to the Gemini API and returns the
// text response. System messages become the system instruction; assistant
// messages map to the model role.
func (c *Client) ChatCompletion(ctx context.Context, messages []ai.ChatMessage, config ai.ChatConfig) (string, error) {
	contents, systemInstruction := buildContents(messages)
	genConfig := generationConfig(config, systemInstruction)

	resp, err := c.client.Models.GenerateContent(ctx, config.Model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini chat failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no content in gemini response")
	}

	c.logger.Debug("Chat completion succeeded",
		logger.String("model", config.Model))

	return text, nil
}

// buildContents maps chat messages onto the genai content model. System
// messages are pulled out as the system instruction; assistant messages
// take the model role, everything else the user role.
func buildContents(messages []ai.ChatMessage) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		if msg.Role == "system" {
			systemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
			continue
		}

		var role genai.Role = genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}

		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	return contents, systemInstruction
}

// generationConfig maps the provider-neutral chat config onto genai's
func generationConfig(config ai.ChatConfig, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(config.Temperature)),
		SystemInstruction: systemInstruction,
	}
	if config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(config.MaxTokens)
	}
	return genConfig
}
