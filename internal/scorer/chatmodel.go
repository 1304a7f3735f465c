package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-match-go/internal/config"
)

const (
	defaultChatAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultChatModel  = "qwen-turbo"
)

// OpenAIChatModel is a minimal chat-completions client for any
// OpenAI-compatible endpoint, implementing the eino model interface the
// assessor consumes. Assessment never issues tool calls, so WithTools only
// satisfies the interface.
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)

// NewOpenAIChatModel builds a client from the AI config block.
func NewOpenAIChatModel(cfg config.AIConfig) (*OpenAIChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("ai api key is empty")
	}
	modelName := cfg.Model
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultChatModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultChatAPIURL
	}
	return &OpenAIChatModel{
		apiKey:      cfg.APIKey,
		modelName:   modelName,
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type chatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate implements model.BaseChatModel.
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       m.modelName,
		Messages:    messages,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat api status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat api returned no choices")
	}

	choice := completion.Choices[0]
	content := ""
	if choice.Message.Content != nil {
		content = *choice.Message.Content
	}
	role := schema.RoleType(choice.Message.Role)
	if role == "" {
		role = schema.Assistant
	}
	return &schema.Message{Role: role, Content: content}, nil
}

// Stream implements model.BaseChatModel. The assessor reads one complete
// JSON object, so streaming is not supported.
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming is not supported")
}

// WithTools implements model.ToolCallingChatModel. Tools are accepted but
// never advertised to the API; assessment is plain completion.
func (m *OpenAIChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	return &clone, nil
}
