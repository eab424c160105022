package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultExportBase = "https://docs.google.com"

// UpstreamError reports a non-2xx response from the sheet export or webhook
type UpstreamError struct {
	Operation string
	Status    int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Operation, e.Status)
}

// Client reads a published Google Sheet as CSV and forwards writes to a
// configured webhook. Each request is attempted exactly once; retrying is
// left to the caller's user.
type Client struct {
	SheetID    string
	ExportBase string // overridable for tests
	httpClient *http.Client
}

func NewClient(sheetID string) *Client {
	return &Client{
		SheetID:    sheetID,
		ExportBase: defaultExportBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchRecords downloads the tab identified by gid and parses it
func (c *Client) FetchRecords(ctx context.Context, gid string, numericFields []string) ([]Record, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv&gid=%s", c.ExportBase, c.SheetID, gid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Operation: "sheet export", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet body: %w", err)
	}
	return ParseCSV(string(body), numericFields), nil
}

// ForwardWrite posts the payload to the webhook and relays its JSON
// response. A webhook that answers with a non-JSON body is treated as a
// plain success, matching the original write path.
func (c *Client) ForwardWrite(ctx context.Context, webhookURL string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Operation: "webhook", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}
	if !json.Valid(body) {
		return json.RawMessage(`{"success":true}`), nil
	}
	return json.RawMessage(body), nil
}
