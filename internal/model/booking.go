package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Активная запись, занимает слот
	BookingStatusCompleted BookingStatus = "completed" // Занятие прошло
)

type Booking struct {
	ID        int64         `json:"id"`
	SessionID int64         `json:"session_id"`
	TutorID   int64         `json:"tutor_id"`
	StudentID int64         `json:"student_id"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Session *Session `json:"session,omitempty"`
	Student *User    `json:"student,omitempty"`
	Tutor   *User    `json:"tutor,omitempty"`
}
