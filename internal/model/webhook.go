package model

// WhatsAppObjectType 业务账号 Webhook 的 object 字段取值
const WhatsAppObjectType = "whatsapp_business_account"

// InboundMessage 一次 Webhook 投递中解析出的用户文本消息
type InboundMessage struct {
	SenderID string `json:"sender_id" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// WebhookPayload WhatsApp Cloud API 推送的信封结构（只保留用到的字段）
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []WebhookMessage `json:"messages"`
}

// WebhookMessage 单条消息，非文本消息的 Text 为 nil
type WebhookMessage struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *WebhookText `json:"text"`
}

type WebhookText struct {
	Body string `json:"body"`
}

// FirstMessage 返回 entry[0].changes[0].value.messages[0]，不存在时返回 nil
func (p *WebhookPayload) FirstMessage() *WebhookMessage {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil
	}
	messages := p.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil
	}
	return &messages[0]
}

// Inbound 转换为内部消息结构
func (m *WebhookMessage) Inbound() InboundMessage {
	msg := InboundMessage{SenderID: m.From}
	if m.Text != nil {
		msg.Text = m.Text.Body
	}
	return msg
}
