package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/savator12/agriadapt/internal/alerts"
)

// GatewayProvider delivers messages through an HTTP SMS gateway speaking
// JSON with bearer-token auth, the contract EthioTelecom-style resellers
// expose.
type GatewayProvider struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGatewayProvider creates a gateway client.
func NewGatewayProvider(apiURL, apiKey string, timeout time.Duration, logger *slog.Logger) *GatewayProvider {
	return &GatewayProvider{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type gatewayRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
}

type gatewayResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error,omitempty"`
}

// Send posts the message to the gateway. Any non-2xx response is a failed
// attempt; the dispatcher owns retry accounting.
func (p *GatewayProvider) Send(ctx context.Context, msg alerts.Message) (alerts.Result, error) {
	payload, err := json.Marshal(gatewayRequest{
		To:      msg.To,
		Message: msg.Body,
		Ref:     msg.AlertID.String(),
	})
	if err != nil {
		return alerts.Result{}, fmt.Errorf("encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return alerts.Result{}, fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return alerts.Result{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return alerts.Result{}, fmt.Errorf("gateway rejected API key: status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return alerts.Result{}, fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, body)
	}

	var gwResp gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gwResp); err != nil {
		return alerts.Result{}, fmt.Errorf("decode gateway response: %w", err)
	}
	if gwResp.Error != "" {
		return alerts.Result{}, fmt.Errorf("gateway error: %s", gwResp.Error)
	}

	p.logger.Debug("gateway delivery", "to", msg.To, "message_id", gwResp.MessageID)
	return alerts.Result{MessageID: gwResp.MessageID}, nil
}
