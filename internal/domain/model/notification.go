package model

import "time"

type NotificationType string

const (
	NotificationPaymentReceived NotificationType = "PAYMENT_RECEIVED"
	NotificationPaymentDue      NotificationType = "PAYMENT_DUE"
	NotificationSystem          NotificationType = "SYSTEM"
)

// Notification is a row the UI polls for; inserting it is the whole delivery contract.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ActionURL string           `json:"actionUrl,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
