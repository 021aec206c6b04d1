package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidAmount = errors.New("payment amount must be positive")

// StubProvider settles every request immediately. Orange Money and MTN MoMo
// integrations plug in behind Provider.
type StubProvider struct {
	Now func() time.Time
}

func (s *StubProvider) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	at := s.now()
	method := strings.ToLower(req.Method)
	if method == "" {
		method = "wallet"
	}
	return &PaymentResponse{
		Reference: fmt.Sprintf("stub_%s_%d_%d", method, req.UserID, at.UnixNano()),
		Status:    StatusSucceeded,
		PaidAt:    at,
	}, nil
}

func (s *StubProvider) VerifyPayment(ctx context.Context, reference string) (bool, error) {
	return strings.HasPrefix(reference, "stub_"), nil
}
