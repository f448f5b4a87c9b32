package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/user/moviebot/internal/config"
	"github.com/user/moviebot/internal/model"
	"go.uber.org/zap"
)

// MessageHandler 处理一条入站消息
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg model.InboundMessage)
}

// Handler HTTP 处理器
type Handler struct {
	Config       *config.Config
	Conversation MessageHandler
	validate     *validator.Validate
	log          *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, conversation MessageHandler, log *zap.Logger) *Handler {
	return &Handler{
		Config:       cfg,
		Conversation: conversation,
		validate:     validator.New(),
		log:          log.Named("webhook"),
	}
}
