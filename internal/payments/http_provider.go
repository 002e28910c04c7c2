package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider — клиент внешнего платёжного шлюза выплат.
type HTTPProvider struct {
	endpoint   string
	merchantID string
	secretKey  string
	client     *http.Client
}

func NewHTTPProvider(endpoint, merchantID, secretKey string) *HTTPProvider {
	return &HTTPProvider{
		endpoint:   endpoint,
		merchantID: merchantID,
		secretKey:  secretKey,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type payoutRequest struct {
	MerchantID  string  `json:"merchant_id"`
	RecipientID string  `json:"recipient_id"`
	Amount      float64 `json:"amount"`
	Purpose     string  `json:"purpose"`
}

type payoutResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (p *HTTPProvider) Payout(ctx context.Context, recipientID string, amount float64, purpose string) (*Result, error) {
	body, err := json.Marshal(payoutRequest{
		MerchantID:  p.merchantID,
		RecipientID: recipientID,
		Amount:      amount,
		Purpose:     purpose,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/payouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payout gateway returned status %d", resp.StatusCode)
	}

	var payload payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode payout response: %w", err)
	}
	if payload.Status != "succeeded" && payload.Status != "accepted" {
		return nil, fmt.Errorf("payout not accepted: status %q", payload.Status)
	}

	return &Result{ExternalRef: payload.ID, Status: payload.Status}, nil
}
