package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/speechpath/saltd/internal/ai"
	"github.com/speechpath/saltd/pkg/logger"
)

// Client handles communication with OpenAI-compatible chat APIs. Pointing
// baseURL at an Ollama instance (http://localhost:11434) works unchanged
// since Ollama serves the same /v1/chat/completions contract.
type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
	baseURL    string // Stored without trailing slash

	chatCompletionsPath string
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, log *logger.Logger, baseURL string, timeout time.Duration) *Client {
	// Determine base URL (prefer explicit parameter, then env, then default)
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		if env := os.Getenv("OPENAI_API_BASE"); env != "" {
			base = env
		} else {
			base = "https://api.openai.com"
		}
	}
	base = strings.TrimRight(base, "/")

	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		apiKey:  apiKey,
		logger:  log.Named("openai"),
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		chatCompletionsPath: "/v1/chat/completions",
	}
}

// SetChatCompletionsPath allows overriding the chat completions endpoint path
func (c *Client) SetChatCompletionsPath(path string) {
	if path != "" {
		c.chatCompletionsPath = path
	}
}

// ChatCompletion sends a conversation to the chat completions endpoint
func (c *Client) ChatCompletion(ctx context.Context, messages []ai.ChatMessage, config ai.ChatConfig) (string, error) {
	apiURL := c.baseURL + c.chatCompletionsPath

	type Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	type Request struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
		Temperature float64   `json:"temperature"`
	}

	reqMessages := make([]Message, len(messages))
	for i, msg := range messages {
		reqMessages[i] = Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	reqBody := Request{
		Model:       config.Model,
		Messages:    reqMessages,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completion failed: %s %s", resp.Status, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Debug("Chat completion succeeded",
		logger.String("model", config.Model))

	return result.Choices[0].Message.Content, nil
}
