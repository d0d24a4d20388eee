package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/service"
	"go.uber.org/zap"
)

const sessionSweepInterval = 10 * time.Minute

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sessionService *service.SessionService
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(sessionService *service.SessionService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sessionService: sessionService,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runSessionSweepTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runSessionSweepTask периодически закрывает начавшиеся сессии,
// чтобы они не оставались доступными для записи
func (s *Scheduler) runSessionSweepTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.sweepSessions(ctx)

	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepSessions(ctx)
		case <-s.stopChan:
			s.logger.Info("Session sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Session sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweepSessions(ctx context.Context) {
	if _, err := s.sessionService.CloseStartedSessions(ctx); err != nil {
		s.logger.Error("Failed to close started sessions", zap.Error(err))
	}
}
