package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/moviebot/internal/model"
	"go.uber.org/zap"
)

// VerifyWebhook 订阅校验：口令匹配时原样回显 hub.challenge
func (h *Handler) VerifyWebhook(c *gin.Context) {
	token := c.Query("hub.verify_token")
	expected := h.Config.VerifyToken

	// 未配置口令时拒绝一切校验请求
	if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		h.log.Warn("Webhook 校验口令不匹配", zap.String("ip", c.ClientIP()))
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(c.Query("hub.challenge")))
}

// ReceiveWebhook 接收消息推送。只处理 entry[0].changes[0].value.messages[0]，
// 其余情况一律静默返回。
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	var payload model.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn("Webhook 请求体解析失败", zap.Error(err))
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	if payload.Object != model.WhatsAppObjectType {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	if message := payload.FirstMessage(); message != nil {
		inbound := message.Inbound()
		if err := h.validate.Struct(inbound); err != nil {
			h.log.Info("忽略非文本消息", zap.String("type", message.Type), zap.String("from", message.From))
		} else {
			h.log.Info("收到消息", zap.String("from", inbound.SenderID))
			h.log.Debug("消息内容", zap.String("from", inbound.SenderID), zap.String("text", inbound.Text))
			// 平台断开连接不应中断正在进行的回复流程
			h.Conversation.HandleMessage(context.WithoutCancel(c.Request.Context()), inbound)
		}
	}

	c.Status(http.StatusOK)
}
