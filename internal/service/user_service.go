package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userStore UserStore
	logger    *zap.Logger
}

func NewUserService(userStore UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		userStore: userStore,
		logger:    logger,
	}
}

// Register регистрирует нового пользователя
func (s *UserService) Register(ctx context.Context, email, firstName, lastName, password string, role model.Role) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", model.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", model.ErrValidation)
	}
	if role != model.RoleStudent && role != model.RoleTutor {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         role,
		PasswordHash: string(hash),
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Authenticate проверяет учётные данные и возвращает пользователя
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userStore.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrBadCredentials
	}

	return user, nil
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// LinkTelegram привязывает телеграм-чат пользователя для уведомлений
func (s *UserService) LinkTelegram(ctx context.Context, userID, chatID int64) error {
	if err := s.userStore.SetTelegramChatID(ctx, userID, chatID); err != nil {
		return err
	}

	s.logger.Info("Telegram chat linked",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID))
	return nil
}
