package payment

import (
	"context"
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusSucceeded = "SUCCEEDED"
)

type PaymentRequest struct {
	UserID         uint
	Amount         int64
	Currency       string
	Method         string
	IdempotencyKey string
	Description    string
}

type PaymentResponse struct {
	Reference string
	Status    string
	PaidAt    time.Time
}

// Provider charges a mobile money wallet for credit packs and boosts.
type Provider interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string) (bool, error)
}
