package alerts

import "time"

// Task type constants
const (
	TaskOrderPlaced     = "email:order_placed"
	TaskOrderShipped    = "email:order_shipped"
	TaskOrderCompleted  = "email:order_completed"
	TaskOrderCancelled  = "email:order_cancelled"
	TaskDisputeOpened   = "email:dispute_opened"
	TaskDisputeResolved = "email:dispute_resolved"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OrderEventPayload covers every order lifecycle notification. Amount and
// Reason are set only where the event carries them.
type OrderEventPayload struct {
	OrderID  int64         `json:"order_id"`
	UserID   string        `json:"user_id"`
	Amount   int64         `json:"amount,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
