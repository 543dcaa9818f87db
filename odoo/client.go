package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"reverb-sync/utils"
)

// Client talks JSON-RPC to an Odoo instance ("common" service for
// authentication, "object" service for model operations). Read
// operations are safe for concurrent use; writes are expected to be
// confined to a single goroutine by the caller.
type Client struct {
	Endpoint string // e.g. https://mycompany.odoo.com/jsonrpc
	Database string
	Login    string

	password   string
	uid        int64
	httpClient *http.Client
	logger     *utils.Logger
	nextID     atomic.Int64
}

// NewClient builds a Client from a hostname (bare host or full URL) and
// credentials. Connect must be called before any model operation.
func NewClient(hostname, database, login, password string, logger *utils.Logger) *Client {
	return &Client{
		Endpoint:   endpointFromHostname(hostname),
		Database:   database,
		Login:      login,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// endpointFromHostname normalises a configured hostname to the JSON-RPC
// endpoint URL. "https://mycompany.odoo.com/odoo" and "mycompany.odoo.com"
// both become "https://mycompany.odoo.com/jsonrpc".
func endpointFromHostname(raw string) string {
	scheme := "https"
	host := raw
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			scheme = u.Scheme
			host = u.Host
		}
	} else {
		host = strings.SplitN(raw, "/", 2)[0]
	}
	return fmt.Sprintf("%s://%s/jsonrpc", scheme, host)
}

// Connect authenticates against the "common" service and stores the
// resulting user id for subsequent calls.
func (c *Client) Connect(ctx context.Context) error {
	var uid int64
	err := c.call(ctx, "common", "authenticate",
		[]any{c.Database, c.Login, c.password, map[string]any{}}, &uid)
	if err != nil {
		return fmt.Errorf("odoo: authenticate: %w", err)
	}
	if uid == 0 {
		return fmt.Errorf("odoo: authentication rejected for %q on %q", c.Login, c.Database)
	}

	c.uid = uid
	c.logger.Info("[odoo] Connected to %s as %s (uid=%d)", c.Endpoint, c.Login, uid)
	return nil
}

// ExecuteKw invokes a model method through the "object" service and
// decodes the result into out (pass nil to discard it).
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	if c.uid == 0 {
		return fmt.Errorf("odoo: not connected")
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	callArgs := []any{c.Database, c.uid, c.password, model, method, args, kwargs}
	if err := c.call(ctx, "object", "execute_kw", callArgs, out); err != nil {
		return fmt.Errorf("odoo: %s.%s: %w", model, method, err)
	}
	return nil
}

// SearchRead fetches records matching domain. A limit of 0 means no
// limit; fields nil means all fields.
func (c *Client) SearchRead(ctx context.Context, model string, domain []any, fields []string, limit, offset int) ([]map[string]any, error) {
	kwargs := map[string]any{}
	if fields != nil {
		kwargs["fields"] = fields
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	if offset > 0 {
		kwargs["offset"] = offset
	}

	var records []map[string]any
	if err := c.ExecuteKw(ctx, model, "search_read", []any{domain}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SearchCount returns the number of records matching domain.
func (c *Client) SearchCount(ctx context.Context, model string, domain []any) (int, error) {
	var count int
	if err := c.ExecuteKw(ctx, model, "search_count", []any{domain}, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// SearchReadAll fetches every record matching domain in batches, to
// avoid timeouts on large datasets.
func (c *Client) SearchReadAll(ctx context.Context, model string, domain []any, fields []string, batchSize int) ([]map[string]any, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	total, err := c.SearchCount(ctx, model, domain)
	if err != nil {
		return nil, err
	}
	c.logger.Info("[odoo] Model %q: %d record(s) match", model, total)

	var records []map[string]any
	for offset := 0; offset < total; offset += batchSize {
		batch, err := c.SearchRead(ctx, model, domain, fields, batchSize, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
		c.logger.Debug("[odoo]   fetched %d/%d", len(records), total)
	}

	return records, nil
}

// Create inserts a record and returns its id.
func (c *Client) Create(ctx context.Context, model string, vals map[string]any) (int64, error) {
	var id int64
	if err := c.ExecuteKw(ctx, model, "create", []any{vals}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Write updates a record in place.
func (c *Client) Write(ctx context.Context, model string, id int64, vals map[string]any) error {
	return c.ExecuteKw(ctx, model, "write", []any{[]any{id}, vals}, nil, nil)
}

// ── JSON-RPC plumbing ──────────────────────────────────────────────

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data != nil {
		if msg, ok := e.Data["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return e.Message
}

func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return parsed.Error
	}

	if out != nil && len(parsed.Result) > 0 {
		// authenticate returns "false" for bad credentials; map that to
		// the zero value instead of a decode error.
		if bytes.Equal(parsed.Result, []byte("false")) {
			return nil
		}
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}
