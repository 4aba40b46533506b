package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is a minimal Odoo JSON-RPC client. The session is established
// lazily on first use, cached for the lifetime of the client, and
// treated as valid until a call fails; there is no expiry tracking and
// no automatic retry.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client

	mu      sync.Mutex
	db      string
	uid     int
	session string
}

// NewClient builds a client for one Odoo instance.
func NewClient(url, username, password string) *Client {
	return &Client{
		url:      strings.TrimRight(url, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) String() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Message
}

// post sends {"params": ...} and decodes the result envelope. The
// session cookie is attached when one is cached.
func (c *Client) post(ctx context.Context, path string, params any, out any) error {
	body, err := json.Marshal(map[string]any{"params": params})
	if err != nil {
		return fmt.Errorf("marshal rpc params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: session})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode rpc envelope: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc error: %s", envelope.Error.String())
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode rpc result: %w", err)
		}
	}

	// Authenticate responses carry the session cookie.
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_id" && cookie.Value != "" {
			c.mu.Lock()
			c.session = cookie.Value
			c.mu.Unlock()
		}
	}

	return nil
}

// DatabaseList returns the instance's available databases.
func (c *Client) DatabaseList(ctx context.Context) ([]string, error) {
	var dbs []string
	if err := c.post(ctx, "/web/database/list", map[string]any{}, &dbs); err != nil {
		return nil, fmt.Errorf("database list: %w", err)
	}
	return dbs, nil
}

// ensureSession authenticates once and caches the session. The first
// available database is used when none is configured.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	authenticated := c.uid != 0
	c.mu.Unlock()
	if authenticated {
		return nil
	}

	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db == "" {
		dbs, err := c.DatabaseList(ctx)
		if err != nil {
			return err
		}
		if len(dbs) == 0 {
			return fmt.Errorf("no databases available")
		}
		db = dbs[0]
	}

	var result struct {
		UID int `json:"uid"`
	}
	err := c.post(ctx, "/web/session/authenticate", map[string]any{
		"db":       db,
		"login":    c.username,
		"password": c.password,
	}, &result)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if result.UID == 0 {
		return fmt.Errorf("authentication rejected for %s", c.username)
	}

	c.mu.Lock()
	c.db = db
	c.uid = result.UID
	c.mu.Unlock()
	return nil
}

// callKW invokes a model method through /web/dataset/call_kw.
func (c *Client) callKW(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return c.post(ctx, "/web/dataset/call_kw", map[string]any{
		"model":  model,
		"method": method,
		"args":   args,
		"kwargs": kwargs,
	}, out)
}

// CreateRecord creates one record and returns its id.
func (c *Client) CreateRecord(ctx context.Context, model string, data map[string]any) (int, error) {
	var id int
	if err := c.callKW(ctx, model, "create", []any{data}, nil, &id); err != nil {
		return 0, fmt.Errorf("create %s: %w", model, err)
	}
	return id, nil
}

// SearchRecords runs search_read with the given domain and fields.
func (c *Client) SearchRecords(ctx context.Context, model string, domain []any, fields []string) ([]map[string]any, error) {
	if domain == nil {
		domain = []any{}
	}
	if fields == nil {
		fields = []string{}
	}
	var records []map[string]any
	err := c.callKW(ctx, model, "search_read", []any{domain}, map[string]any{"fields": fields}, &records)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", model, err)
	}
	return records, nil
}

// UpdateRecord writes field values onto an existing record.
func (c *Client) UpdateRecord(ctx context.Context, model string, id int, data map[string]any) error {
	var ok bool
	if err := c.callKW(ctx, model, "write", []any{[]int{id}, data}, nil, &ok); err != nil {
		return fmt.Errorf("update %s/%d: %w", model, id, err)
	}
	return nil
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, model string, id int) error {
	var ok bool
	if err := c.callKW(ctx, model, "unlink", []any{[]int{id}}, nil, &ok); err != nil {
		return fmt.Errorf("delete %s/%d: %w", model, id, err)
	}
	return nil
}
