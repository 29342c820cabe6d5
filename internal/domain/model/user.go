package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate-crm/internal/domain"
)

// User is the account a subscription, balances and listings belong to.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

func NewUser(id, email, name string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	return &User{ID: id, Email: email, Name: strings.TrimSpace(name), CreatedAt: time.Now()}, nil
}
