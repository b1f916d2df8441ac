package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"reflect"
	"time"

	"github.com/crucial707/blog-client/internal/metrics"
	"go.uber.org/zap"
)

// FallbackMessage is shown when a failed response carries no "error" field.
const FallbackMessage = "Request failed"

// Credentials supplies the API base URL and bearer token for each call.
// *session.Store implements it, so a changed api-base applies on the next call.
type Credentials interface {
	APIBase() string
	Token() string
}

// APIError is any non-2xx response. Status codes are kept for logging only;
// callers render every failure the same way.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// TransportError means no response was received at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "network error: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a network failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type Client struct {
	creds Credentials
	http  *http.Client
	log   *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each call. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds: creds,
		http:  &http.Client{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a JSON request to apiBase+path and decodes the JSON response into out.
// Content-Type defaults to application/json and may be overridden by headers;
// the bearer Authorization header is applied last whenever a token is held.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, headers http.Header) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.APIBase()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	c.authorize(req)

	return c.send(req, path, out)
}

// Upload sends a single file as multipart form data. Only the bearer header is attached;
// the multipart boundary content type is set by the writer.
func (c *Client) Upload(ctx context.Context, path, field, filename, contentType string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.APIBase()+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	return c.send(req, path, out)
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.creds.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

func (c *Client) send(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPICall(req.Method, path, 0, time.Since(start).Seconds())
		c.log.Warn("api call failed", zap.String("method", req.Method), zap.String("path", path), zap.Error(err))
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	metrics.RecordAPICall(req.Method, path, resp.StatusCode, time.Since(start).Seconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &errResp)
		msg := errResp.Error
		if msg == "" {
			msg = FallbackMessage
		}
		c.log.Debug("api error response",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", msg))
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		// an undecodable body counts as an empty object
		resetValue(out)
		c.log.Debug("api response not json", zap.String("path", path), zap.Error(err))
	}
	return nil
}

func resetValue(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}
