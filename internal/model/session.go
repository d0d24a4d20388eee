package model

import "time"

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

type Session struct {
	ID             int64         `json:"id"`
	TutorID        int64         `json:"tutor_id"`
	Subject        string        `json:"subject"`
	Topic          *string       `json:"topic,omitempty"`
	Grade          *string       `json:"grade,omitempty"`
	StartTime      time.Time     `json:"start_time"`
	Duration       int           `json:"duration"` // в минутах
	Fee            int64         `json:"fee"`      // в копейках/центах
	TotalSlots     int           `json:"total_slots"`
	AvailableSlots int           `json:"available_slots"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Tutor        *User `json:"tutor,omitempty"`
	BookedCount  int   `json:"booked_count,omitempty"`
}
