package notify

import (
	"context"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// userResolver достаёт пользователя, чтобы узнать его телеграм-чат
type userResolver interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramNotifier доставляет уведомления в привязанный телеграм-чат
type TelegramNotifier struct {
	bot    *bot.Bot
	users  userResolver
	logger *zap.Logger
}

func NewTelegramNotifier(token string, users userResolver, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}

	return &TelegramNotifier{
		bot:    b,
		users:  users,
		logger: logger,
	}, nil
}

// NotifyUser отправляет сообщение пользователю, если у него привязан чат.
// Любая ошибка здесь — только запись в лог.
func (n *TelegramNotifier) NotifyUser(ctx context.Context, userID int64, message string) {
	eventID := uuid.NewString()

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("Failed to resolve notification recipient",
			zap.String("event_id", eventID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return
	}

	if user == nil || user.TelegramChatID == nil {
		return
	}

	_, err = n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   message,
	})
	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.String("event_id", eventID),
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", *user.TelegramChatID),
			zap.Error(err))
		return
	}

	n.logger.Debug("Notification sent",
		zap.String("event_id", eventID),
		zap.Int64("user_id", userID))
}
