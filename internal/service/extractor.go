package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/moviebot/internal/config"
	"github.com/user/moviebot/internal/metrics"
	"github.com/user/moviebot/internal/model"
	"github.com/user/moviebot/internal/utils"
	"go.uber.org/zap"
)

// extractionPrompt 固定的系统指令
const extractionPrompt = "Extract movie recommendation criteria (genre, actor, year) from user query and return JSON format."

// ErrMalformedCriteria 模型回复不是合法的条件 JSON
var ErrMalformedCriteria = errors.New("malformed criteria")

// ChatCompleter 语言模型补全接口
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req utils.ChatCompletionRequest) (string, error)
}

// ExtractorService 从用户文本中抽取检索条件
type ExtractorService struct {
	llm         ChatCompleter
	model       string
	temperature float64
	log         *zap.Logger
}

// NewExtractorService 创建条件抽取服务
func NewExtractorService(llm ChatCompleter, cfg *config.Config, log *zap.Logger) *ExtractorService {
	return &ExtractorService{
		llm:         llm,
		model:       cfg.OpenAIModel,
		temperature: cfg.OpenAITemperature,
		log:         log.Named("extractor"),
	}
}

// Extract 调用一次语言模型并解析回复。
// 返回 nil 表示无法理解；err 仅用于日志和指标，调用方一律按"无结果"处理。
func (s *ExtractorService) Extract(ctx context.Context, text string) (*model.SearchCriteria, error) {
	start := time.Now()
	content, err := s.llm.ChatCompletion(ctx, utils.ChatCompletionRequest{
		Model: s.model,
		Messages: []utils.ChatMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: text},
		},
		Temperature: s.temperature,
	})
	metrics.ObserveUpstream(metrics.UpstreamOpenAI, time.Since(start).Seconds(), err)
	if err != nil {
		s.log.Error("OpenAI 调用失败", zap.Error(err))
		return nil, err
	}

	criteria, err := ParseCriteria(content)
	if err != nil {
		s.log.Warn("模型回复无法解析", zap.String("content", content), zap.Error(err))
		return nil, err
	}

	s.log.Debug("抽取到检索条件", zap.Any("criteria", criteria))
	return criteria, nil
}

// ParseCriteria 解析模型回复；允许外层包一层 markdown 代码块
func ParseCriteria(content string) (*model.SearchCriteria, error) {
	body := stripCodeFence(strings.TrimSpace(content))
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrMalformedCriteria)
	}

	var criteria model.SearchCriteria
	if err := json.Unmarshal([]byte(body), &criteria); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCriteria, err)
	}
	return &criteria, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// 去掉语言标记，例如 ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
