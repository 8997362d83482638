package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qabul_backend/platform/logger"
)

type smsConfig struct {
	baseURL string
	token   string
	sender  string
}

func (c smsConfig) GetSMSBaseURL() string { return c.baseURL }
func (c smsConfig) GetSMSToken() string   { return c.token }
func (c smsConfig) GetSMSSender() string  { return c.sender }
func (c smsConfig) IsSMSEnabled() bool    { return c.token != "" }

func TestNewClient_DisabledWithoutToken(t *testing.T) {
	if c := NewClient(smsConfig{baseURL: "https://notify.eskiz.uz/api"}, logger.New("test")); c != nil {
		t.Fatal("expected nil client without token")
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	var c *Client
	if err := c.SendMessage(context.Background(), "+998901234567", "code 1234"); err != nil {
		t.Errorf("nil client SendMessage = %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	var captured eskizRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/message/sms/send" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(smsConfig{baseURL: srv.URL, token: "eskiz-token", sender: "4546"}, logger.New("test"))
	c.http = srv.Client()
	c.http.Timeout = time.Second

	if err := c.SendMessage(context.Background(), "+998 90 123 45 67", "Tasdiqlash kodi: 1234"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if auth != "Bearer eskiz-token" {
		t.Errorf("auth header = %q", auth)
	}
	if captured.MobilePhone != "998901234567" {
		t.Errorf("mobile_phone = %q", captured.MobilePhone)
	}
	if captured.From != "4546" {
		t.Errorf("from = %q", captured.From)
	}
}

func TestSendMessage_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(smsConfig{baseURL: srv.URL, token: "bad", sender: "4546"}, logger.New("test"))

	if err := c.SendMessage(context.Background(), "+998901234567", "code"); err == nil {
		t.Fatal("expected error on gateway failure")
	}
}
