package contact

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("contact: inquiry not found")

type Status string

const (
	StatusPending Status = "pending"
	StatusRead    Status = "read"
	StatusReplied Status = "replied"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusRead, StatusReplied:
		return Status(s), true
	}
	return "", false
}

// Inquiry is a message submitted through the public contact form.
type Inquiry struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Message   string
	Status    Status
	CreatedAt time.Time
}

func New(id, name, email, phone, message string) *Inquiry {
	return &Inquiry{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Message:   message,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func (i *Inquiry) Clone() *Inquiry {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

type ListQuery struct {
	Status Status
	Offset int
	Limit  int
}

type Repository interface {
	Insert(ctx context.Context, i *Inquiry) error
	// List returns one page of inquiries, newest first, and the total number of matches.
	List(ctx context.Context, q ListQuery) ([]*Inquiry, int, error)
}
