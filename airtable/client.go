package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/reboothq/reboot_backend/config"
)

// ErrRecordNotFound means the remote record id no longer resolves. It is an
// expected condition and drives re-creation; every other remote failure is a
// TransientError.
var ErrRecordNotFound = errors.New("airtable: record not found")

// TransientError wraps network, auth, and quota failures. The record that hit
// one is left for a later run; bookkeeping is never updated on its behalf.
type TransientError struct {
	Op     string
	Table  string
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("airtable: %s %q failed with status %d: %v", e.Op, e.Table, e.Status, e.Err)
	}
	return fmt.Sprintf("airtable: %s %q failed: %v", e.Op, e.Table, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Record is one remote row.
type Record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// RecordClient is the remote tabular store boundary, keyed by table name and
// opaque record id. Update, Find and Delete return ErrRecordNotFound when the
// id no longer resolves.
type RecordClient interface {
	Create(ctx context.Context, table string, fields map[string]interface{}) (string, error)
	Update(ctx context.Context, table string, recordID string, fields map[string]interface{}) error
	Find(ctx context.Context, table string, recordID string) (*Record, error)
	List(ctx context.Context, table string) ([]Record, error)
	Delete(ctx context.Context, table string, recordID string) error
}

type httpRecordClient struct {
	baseURL string
	baseID  string
	apiKey  string
	http    *http.Client
	limiter <-chan time.Time
}

// NewClient builds the HTTP client from AIRTABLE_API_KEY / AIRTABLE_BASE_ID.
// Airtable enforces 5 requests per second per base, so calls are paced
// through a shared ticker.
func NewClient() (RecordClient, error) {
	apiKey := config.AirtableAPIKey()
	if apiKey == "" {
		return nil, errors.New("AIRTABLE_API_KEY is empty")
	}
	baseID := config.AirtableBaseID()
	if baseID == "" {
		return nil, errors.New("AIRTABLE_BASE_ID is empty")
	}

	ratePerSec := int64(5)
	if v := strings.TrimSpace(os.Getenv("AIRTABLE_RATE_LIMIT_PER_SEC")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ratePerSec = n
		}
	}
	interval := time.Second / time.Duration(ratePerSec)

	return &httpRecordClient{
		baseURL: config.AirtableBaseURL(),
		baseID:  baseID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: time.Tick(interval),
	}, nil
}

func (c *httpRecordClient) endpoint(table string, recordID string) string {
	u := c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if recordID != "" {
		u = u + "/" + url.PathEscape(recordID)
	}
	return u
}

func (c *httpRecordClient) do(ctx context.Context, op string, table string, method string, endpoint string, payload interface{}) ([]byte, error) {
	<-c.limiter

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransientError{Op: op, Table: table, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &TransientError{Op: op, Table: table, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransientError{Op: op, Table: table, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRecordNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransientError{
			Op:     op,
			Table:  table,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}
	return body, nil
}

func (c *httpRecordClient) Create(ctx context.Context, table string, fields map[string]interface{}) (string, error) {
	body, err := c.do(ctx, "create", table, http.MethodPost, c.endpoint(table, ""), map[string]interface{}{
		"fields": fields,
	})
	if err != nil {
		return "", err
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return "", &TransientError{Op: "create", Table: table, Err: err}
	}
	if rec.ID == "" {
		return "", &TransientError{Op: "create", Table: table, Err: errors.New("response missing record id")}
	}
	return rec.ID, nil
}

func (c *httpRecordClient) Update(ctx context.Context, table string, recordID string, fields map[string]interface{}) error {
	_, err := c.do(ctx, "update", table, http.MethodPatch, c.endpoint(table, recordID), map[string]interface{}{
		"fields": fields,
	})
	return err
}

func (c *httpRecordClient) Find(ctx context.Context, table string, recordID string) (*Record, error) {
	body, err := c.do(ctx, "find", table, http.MethodGet, c.endpoint(table, recordID), nil)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, &TransientError{Op: "find", Table: table, Err: err}
	}
	return &rec, nil
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// List pages through the whole table.
func (c *httpRecordClient) List(ctx context.Context, table string) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		endpoint := c.endpoint(table, "")
		if offset != "" {
			params := url.Values{}
			params.Set("offset", offset)
			endpoint = endpoint + "?" + params.Encode()
		}
		body, err := c.do(ctx, "list", table, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &TransientError{Op: "list", Table: table, Err: err}
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

func (c *httpRecordClient) Delete(ctx context.Context, table string, recordID string) error {
	_, err := c.do(ctx, "delete", table, http.MethodDelete, c.endpoint(table, recordID), nil)
	return err
}
