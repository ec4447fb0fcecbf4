package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GatewaySender posts messages to an HTTP SMS gateway that resolves user ids
// to phone numbers.
type GatewaySender struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewGatewaySender(url, token string) *GatewaySender {
	return &GatewaySender{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createSMSRequest struct {
	MessageID string   `json:"messageId"`
	Content   string   `json:"content"`
	Users     []string `json:"users"`
}

type createSMSResponse struct {
	ID string `json:"$id"`
}

func (g *GatewaySender) SendSMS(ctx context.Context, recipientUserID, message string) (*Receipt, error) {
	if err := checkMessage(recipientUserID, message); err != nil {
		return nil, err
	}

	id := uuid.New()
	body, err := json.Marshal(createSMSRequest{
		MessageID: id.String(),
		Content:   message,
		Users:     []string{recipientUserID},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", ErrNotification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send sms: %w", ErrNotification, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: gateway returned status %s, body: %s", ErrNotification, resp.Status, string(respBody))
	}

	receipt := &Receipt{ID: id, AcceptedAt: time.Now().UTC()}

	// Prefer the id the gateway assigned when it hands one back.
	var parsed createSMSResponse
	if json.Unmarshal(respBody, &parsed) == nil && parsed.ID != "" {
		if gid, err := uuid.Parse(parsed.ID); err == nil {
			receipt.ID = gid
		}
	}

	return receipt, nil
}
