package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/solarsim/internal/solar"
)

// Client calls a running endpoint.
type Client struct {
	url  string
	http *http.Client
}

// NewClient targets addr, either a full URL or host:port.
func NewClient(addr string) *Client {
	url := addr
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		if strings.HasPrefix(url, ":") {
			url = "localhost" + url
		}
		url = "http://" + url
	}
	return &Client{
		url:  strings.TrimSuffix(url, "/") + "/",
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	req := Request{
		JSONRPC: Version,
		ID:      json.RawMessage(fmt.Sprintf("%q", uuid.NewString())),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = raw
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var out struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", method, err)
	}
	if out.Error != nil {
		return out.Error
	}
	if result != nil {
		return json.Unmarshal(out.Result, result)
	}
	return nil
}

// UpdateField performs simulation.update_field and returns the server's
// confirmation message.
func (c *Client) UpdateField(ctx context.Context, name string, v float32) (string, error) {
	var msg string
	err := c.call(ctx, MethodUpdateField, UpdateFieldParams{FieldName: name, Value: v}, &msg)
	return msg, err
}

func (c *Client) Fields(ctx context.Context) ([]solar.Snapshot, error) {
	var fields []solar.Snapshot
	err := c.call(ctx, MethodGetFields, nil, &fields)
	return fields, err
}
