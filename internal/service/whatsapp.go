package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/user/moviebot/internal/config"
	"github.com/user/moviebot/internal/metrics"
	"github.com/user/moviebot/internal/utils"
	"go.uber.org/zap"
)

type whatsAppTextMessage struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

// WhatsAppService 通过 WhatsApp Cloud API 发送文本消息
type WhatsAppService struct {
	http     *utils.HTTPClient
	endpoint string
	token    string
	log      *zap.Logger
}

// NewWhatsAppService 创建消息发送服务
func NewWhatsAppService(httpClient *utils.HTTPClient, cfg *config.Config, log *zap.Logger) *WhatsAppService {
	endpoint := fmt.Sprintf("%s/%s/%s/messages",
		strings.TrimRight(cfg.WhatsAppAPIURL, "/"),
		cfg.WhatsAppAPIVersion,
		cfg.WhatsAppPhoneNumberID,
	)
	return &WhatsAppService{
		http:     httpClient,
		endpoint: endpoint,
		token:    cfg.WhatsAppToken,
		log:      log.Named("whatsapp"),
	}
}

// SendText 发送一条纯文本消息
func (s *WhatsAppService) SendText(ctx context.Context, to, body string) error {
	payload := whatsAppTextMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             whatsAppTextBody{Body: body},
	}
	headers := map[string]string{"Authorization": "Bearer " + s.token}

	start := time.Now()
	err := s.http.PostJSON(ctx, s.endpoint, headers, payload, nil)
	metrics.ObserveUpstream(metrics.UpstreamWhatsApp, time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

// Notify 发送消息，失败只记录日志，不向调用方反馈
func (s *WhatsAppService) Notify(ctx context.Context, to, body string) {
	if err := s.SendText(ctx, to, body); err != nil {
		s.log.Error("消息发送失败", zap.String("to", to), zap.Error(err))
		return
	}
	s.log.Info("消息已发送", zap.String("to", to))
}
