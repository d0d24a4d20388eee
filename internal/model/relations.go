package model

import "time"

// Follow подписка студента на репетитора
type Follow struct {
	StudentID int64     `json:"student_id"`
	TutorID   int64     `json:"tutor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Hire прямой найм репетитора студентом
type Hire struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	TutorID   int64     `json:"tutor_id"`
	CreatedAt time.Time `json:"created_at"`

	Tutor *User `json:"tutor,omitempty"`
}
