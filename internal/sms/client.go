// Package sms sends one-time codes through the Eskiz SMS gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
	"qabul_backend/platform/phone"
)

// Sender delivers a text message to a phone number. Satisfied by *Client; the
// auth service accepts this interface so tests can swap in a recorder.
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

type Client struct {
	baseURL string
	token   string
	sender  string
	http    *http.Client
	log     *logger.Logger
}

type eskizRequest struct {
	MobilePhone string `json:"mobile_phone"`
	Message     string `json:"message"`
	From        string `json:"from"`
}

// NewClient returns nil when no API token is configured; a nil client logs
// messages instead of sending them, which keeps local development working
// without an Eskiz account.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if !cfg.IsSMSEnabled() {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetSMSBaseURL(), "/"),
		token:   cfg.GetSMSToken(),
		sender:  cfg.GetSMSSender(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	// Eskiz wants the number without the leading plus.
	normalized := strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")

	payload := eskizRequest{
		MobilePhone: normalized,
		Message:     message,
		From:        c.sender,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	url := fmt.Sprintf("%s/message/sms/send", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("sms sent", "phone", normalized)
	return nil
}
