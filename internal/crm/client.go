package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qabul_backend/platform/config"
	"qabul_backend/platform/logger"
)

const defaultTimeout = 10 * time.Second

// maxErrorDetail bounds how much of an error body ends up in logs.
const maxErrorDetail = 512

// Client is the HTTP client for the CRM v4 API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a new CRM API client. Returns nil when no base URL is
// configured; callers treat a nil client as "CRM integration disabled".
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	if cfg.GetCRMBaseURL() == "" {
		return nil
	}

	timeout := cfg.GetCRMTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetCRMBaseURL(), "/"),
		token:   cfg.GetCRMToken(),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Request issues one authenticated JSON request. A 204 response (or an empty
// body) yields a nil message; any non-2xx status or network failure returns
// a *TransportError. The method performs no retries.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal crm payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Detail: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Status: resp.StatusCode, Detail: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: truncate(strings.TrimSpace(string(data)), maxErrorDetail),
		}
	}

	if resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil, nil
	}

	return json.RawMessage(data), nil
}

// SearchContacts queries contacts by free-text query (used for phone lookup).
func (c *Client) SearchContacts(ctx context.Context, query string) ([]Entity, error) {
	params := url.Values{}
	params.Set("query", query)

	data, err := c.Request(ctx, http.MethodGet, "contacts", params, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return env.Embedded.Contacts, nil
}

// CreateContact creates one contact and returns the created entity.
func (c *Client) CreateContact(ctx context.Context, req ContactRequest) (Entity, error) {
	data, err := c.Request(ctx, http.MethodPost, "contacts", nil, []ContactRequest{req})
	if err != nil {
		return Entity{}, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return Entity{}, err
	}
	if len(env.Embedded.Contacts) == 0 {
		return Entity{}, &TransportError{Method: http.MethodPost, Path: "contacts", Detail: "empty contacts envelope"}
	}
	return env.Embedded.Contacts[0], nil
}

// UpdateContact patches an existing contact.
func (c *Client) UpdateContact(ctx context.Context, contactID int64, req ContactRequest) error {
	_, err := c.Request(ctx, http.MethodPatch, fmt.Sprintf("contacts/%d", contactID), nil, req)
	return err
}

// CreateLead creates one deal and returns the created entity.
func (c *Client) CreateLead(ctx context.Context, req LeadRequest) (Entity, error) {
	data, err := c.Request(ctx, http.MethodPost, "leads", nil, []LeadRequest{req})
	if err != nil {
		return Entity{}, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return Entity{}, err
	}
	if len(env.Embedded.Leads) == 0 {
		return Entity{}, &TransportError{Method: http.MethodPost, Path: "leads", Detail: "empty leads envelope"}
	}
	return env.Embedded.Leads[0], nil
}

// UpdateLead patches an existing deal.
func (c *Client) UpdateLead(ctx context.Context, leadID int64, req LeadRequest) error {
	_, err := c.Request(ctx, http.MethodPatch, fmt.Sprintf("leads/%d", leadID), nil, req)
	return err
}

// ContactCustomFields fetches the contact custom-field schema.
func (c *Client) ContactCustomFields(ctx context.Context) ([]CustomField, error) {
	return c.customFields(ctx, "contacts/custom_fields")
}

// LeadCustomFields fetches the deal custom-field schema.
func (c *Client) LeadCustomFields(ctx context.Context) ([]CustomField, error) {
	return c.customFields(ctx, "leads/custom_fields")
}

func (c *Client) customFields(ctx context.Context, path string) ([]CustomField, error) {
	data, err := c.Request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return env.Embedded.CustomFields, nil
}

// PipelineStatuses fetches the status list of one pipeline.
func (c *Client) PipelineStatuses(ctx context.Context, pipelineID int64) ([]Status, error) {
	data, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("leads/pipelines/%d", pipelineID), nil, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return env.Embedded.Statuses, nil
}

func decodeEnvelope(data json.RawMessage) (envelope, error) {
	var env envelope
	if len(data) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode crm envelope: %w", err)
	}
	return env, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
