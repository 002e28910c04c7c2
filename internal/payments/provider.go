package payments

import "context"

// Result — ответ платёжного шлюза на выплату.
type Result struct {
	ExternalRef string
	Status      string
}

// Provider — внешний платёжный шлюз. Вызов разрешается ДО коммита
// перехода записи в Paid: неуспешная выплата не должна оставить запись
// в полупроведённом состоянии.
type Provider interface {
	Payout(ctx context.Context, recipientID string, amount float64, purpose string) (*Result, error)
}
