package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier отправляет уведомление пользователю.
// Вызывается после успешной операции, fire-and-forget: ошибки доставки
// логируются и никогда не влияют на результат операции.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, message string)
}

// LogNotifier пишет уведомления только в лог. Используется когда
// телеграм-бот не сконфигурирован и в тестах.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyUser(_ context.Context, userID int64, message string) {
	n.logger.Info("Notification (log only)",
		zap.Int64("user_id", userID),
		zap.String("message", message),
	)
}
