package model

import "time"

type Review struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	TutorID   int64     `json:"tutor_id"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`

	Student *User `json:"student,omitempty"`
}
