package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/user/moviebot/internal/metrics"
	"github.com/user/moviebot/internal/model"
	"go.uber.org/zap"
)

// 固定回复
const (
	ReplyNotUnderstood = "Sorry, I couldn't understand your request."
	ReplyNoResults     = "Sorry, I couldn't find any movies matching your request."
)

// CriteriaExtractor 从自由文本抽取检索条件，nil 表示无法理解
type CriteriaExtractor interface {
	Extract(ctx context.Context, text string) (*model.SearchCriteria, error)
}

// MovieRecommender 按条件查询电影
type MovieRecommender interface {
	Recommend(ctx context.Context, criteria model.SearchCriteria) ([]model.MovieRecord, error)
}

// MessageNotifier 向用户发送回复，失败由实现方自行记录
type MessageNotifier interface {
	Notify(ctx context.Context, to, body string)
}

// ConversationService 串联 抽取 -> 查询 -> 回复，不保存任何跨消息状态
type ConversationService struct {
	extractor   CriteriaExtractor
	recommender MovieRecommender
	notifier    MessageNotifier
	log         *zap.Logger
}

// NewConversationService 创建会话编排服务
func NewConversationService(extractor CriteriaExtractor, recommender MovieRecommender, notifier MessageNotifier, log *zap.Logger) *ConversationService {
	return &ConversationService{
		extractor:   extractor,
		recommender: recommender,
		notifier:    notifier,
		log:         log.Named("conversation"),
	}
}

// HandleMessage 处理一条用户消息
func (s *ConversationService) HandleMessage(ctx context.Context, msg model.InboundMessage) {
	log := s.log.With(zap.String("from", msg.SenderID))

	criteria, err := s.extractor.Extract(ctx, msg.Text)
	if err != nil || criteria == nil {
		log.Info("无法理解用户请求", zap.Error(err))
		log.Debug("原始消息", zap.String("text", msg.Text))
		metrics.MessagesHandled.WithLabelValues(metrics.OutcomeNotUnderstood).Inc()
		s.notifier.Notify(ctx, msg.SenderID, ReplyNotUnderstood)
		return
	}
	log.Info("检索条件", zap.Any("criteria", criteria))

	movies, err := s.recommender.Recommend(ctx, *criteria)
	if err != nil || len(movies) == 0 {
		log.Info("没有匹配的电影", zap.Error(err))
		metrics.MessagesHandled.WithLabelValues(metrics.OutcomeNoResults).Inc()
		s.notifier.Notify(ctx, msg.SenderID, ReplyNoResults)
		return
	}

	metrics.MessagesHandled.WithLabelValues(metrics.OutcomeReplied).Inc()
	s.notifier.Notify(ctx, msg.SenderID, BuildReply(*criteria, movies))
}

// BuildReply 拼接推荐回复：先描述生效的条件，再逐行列出 "- 片名 (年份)"
func BuildReply(criteria model.SearchCriteria, movies []model.MovieRecord) string {
	var sb strings.Builder
	sb.WriteString("Here are a few recommendations")

	if len(criteria.Genres) > 0 {
		sb.WriteString(" for a ")
		sb.WriteString(strings.Join(criteria.Genres, " / "))
		sb.WriteString(" movie")
	}
	if len(criteria.Actors) > 0 {
		sb.WriteString(" featuring ")
		sb.WriteString(strings.Join(criteria.Actors, ", "))
	}
	if criteria.Year > 0 {
		sb.WriteString(" released in ")
		sb.WriteString(strconv.Itoa(criteria.Year))
	}
	sb.WriteString(":\n")

	lines := make([]string, len(movies))
	for i, movie := range movies {
		lines[i] = "- " + movie.Title + " (" + movie.ReleaseYear() + ")"
	}
	sb.WriteString(strings.Join(lines, "\n"))

	return sb.String()
}
