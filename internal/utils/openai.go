package utils

import (
	"context"
	"fmt"
	"strings"
)

// ChatMessage OpenAI chat completions 消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest OpenAI chat completions 请求结构
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatCompletionResponse OpenAI chat completions 响应结构
type ChatCompletionResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIClient 调用 OpenAI 兼容的 chat completions 接口
type OpenAIClient struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
}

// NewOpenAIClient 创建 OpenAI 客户端
func NewOpenAIClient(httpClient *HTTPClient, baseURL, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// ChatCompletion 发送一次补全请求，返回第一条候选的文本内容
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is not set")
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var result ChatCompletionResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions", headers, req, &result); err != nil {
		return "", fmt.Errorf("post request to openai failed: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("openai api error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}
