package app

import (
	"context"
	"fmt"

	"masterplace_backend/internal/payments"

	"github.com/google/uuid"
)

// MockPaymentProvider используется для тестов и локальной разработки.
type MockPaymentProvider struct{}

func (m *MockPaymentProvider) Payout(ctx context.Context, recipientID string, amount float64, purpose string) (*payments.Result, error) {
	return &payments.Result{
		ExternalRef: fmt.Sprintf("mock-%s", uuid.NewString()),
		Status:      "succeeded",
	}, nil
}
