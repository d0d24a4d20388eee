package model

import "errors"

// Доменные ошибки. Сервисы и репозитории возвращают их (обёрнутыми через %w),
// HTTP-слой по errors.Is превращает их в коды ответов.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("already booked")
	ErrSessionFull     = errors.New("session is full")
	ErrSessionClosed   = errors.New("session is closed for booking")
	ErrValidation      = errors.New("validation failed")
	ErrBadCredentials  = errors.New("invalid email or password")
)
