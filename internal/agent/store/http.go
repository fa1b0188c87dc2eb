package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
)

// DefaultPollInterval is how often an HTTP subscription refetches its
// collection. The backend has no push channel, so live subscriptions are
// emulated by polling.
const DefaultPollInterval = 3 * time.Second

// TokenProvider supplies the current staff access token, or "" when the
// terminal is not logged in.
type TokenProvider func() string

// HTTPStore is the DocumentStore client for the backend service.
type HTTPStore struct {
	baseURL      string
	httpClient   *http.Client
	token        TokenProvider
	pollInterval time.Duration
}

// HTTPOption customizes an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) { s.httpClient = c }
}

// WithTokenProvider attaches a bearer-token source for authenticated calls.
func WithTokenProvider(tp TokenProvider) HTTPOption {
	return func(s *HTTPStore) { s.token = tp }
}

// WithPollInterval overrides the subscription poll interval.
func WithPollInterval(d time.Duration) HTTPOption {
	return func(s *HTTPStore) { s.pollInterval = d }
}

// NewHTTPStore creates a client for the document-store service at baseURL,
// e.g. "http://127.0.0.1:8080".
func NewHTTPStore(baseURL string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// apiError is the wire shape of a service error.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// mapError converts transport and API failures into *Error values so the
// façade can classify them. Transport-level failures are connectivity
// errors by definition.
func (s *HTTPStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeDeadlineExceeded, "request timed out: %v", err)
	}
	return NewError(CodeUnavailable, "network error: %v", err)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, query map[string]string, body any, out any) error {
	u, err := url.Parse(s.baseURL + path)
	if err != nil {
		return NewError(CodeInternal, "bad url: %v", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return NewError(CodeInternal, "encode error: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return NewError(CodeInternal, "request error: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != nil {
		if t := s.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil || ae.Code == "" {
			return NewError(CodeInternal, "unexpected status %s", resp.Status)
		}
		return &Error{Code: Code(ae.Code), Message: ae.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return NewError(CodeInternal, "decode error: %v", err)
		}
	}
	return nil
}

func collectionPath(name string) string {
	return "/api/v1/collections/" + url.PathEscape(name)
}

func documentPath(name, id string) string {
	return collectionPath(name) + "/documents/" + url.PathEscape(id)
}

func (s *HTTPStore) GetCollection(ctx context.Context, name string, q models.Query) ([]models.Record, error) {
	var out struct {
		Records []models.Record `json:"records"`
	}
	if err := s.do(ctx, http.MethodGet, collectionPath(name), q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

func (s *HTTPStore) GetDocument(ctx context.Context, name, id string) (models.Record, error) {
	var out models.Record
	if err := s.do(ctx, http.MethodGet, documentPath(name, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPStore) AddDocument(ctx context.Context, name string, payload models.Record) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, collectionPath(name)+"/documents", nil, payload, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *HTTPStore) UpdateDocument(ctx context.Context, name, id string, payload models.Record) error {
	return s.do(ctx, http.MethodPatch, documentPath(name, id), nil, payload, nil)
}

func (s *HTTPStore) UpsertDocument(ctx context.Context, name, id string, payload models.Record) error {
	return s.do(ctx, http.MethodPut, documentPath(name, id), nil, payload, nil)
}

func (s *HTTPStore) DeleteDocument(ctx context.Context, name, id string) error {
	return s.do(ctx, http.MethodDelete, documentPath(name, id), nil, nil, nil)
}

func (s *HTTPStore) BatchWrite(ctx context.Context, ops []models.BatchOperation) error {
	body := struct {
		Operations []models.BatchOperation `json:"operations"`
	}{Operations: ops}
	return s.do(ctx, http.MethodPost, "/api/v1/batch", nil, body, nil)
}

func (s *HTTPStore) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Subscribe emulates a live subscription by polling the collection. The
// current snapshot is delivered immediately; afterwards next fires only
// when the result set changes. errFn fires once per failure streak so a
// flapping network does not spam the error path.
func (s *HTTPStore) Subscribe(ctx context.Context, name string, q models.Query, next func([]models.Record), errFn func(error)) (CancelFunc, error) {
	records, err := s.GetCollection(ctx, name, q)
	if err != nil {
		return nil, err
	}
	next(records)

	pollCtx, cancel := context.WithCancel(context.Background())
	var once sync.Once

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		lastFingerprint := fingerprint(records)
		failing := false

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				fresh, err := s.GetCollection(pollCtx, name, q)
				if err != nil {
					if pollCtx.Err() != nil {
						return
					}
					if !failing {
						failing = true
						errFn(err)
					}
					continue
				}
				failing = false
				if fp := fingerprint(fresh); fp != lastFingerprint {
					lastFingerprint = fp
					next(fresh)
				}
			}
		}
	}()

	return func() { once.Do(cancel) }, nil
}

func fingerprint(records []models.Record) string {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Sprintf("len:%d", len(records))
	}
	return string(data)
}
