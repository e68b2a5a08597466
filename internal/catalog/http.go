package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 64 << 20
	maxErrorSnippet  = 512
)

// HTTPSource posts queries to a GraphQL endpoint.
type HTTPSource struct {
	logger   logger.Logger
	client   *http.Client
	endpoint string
}

// NewHTTPSource creates a source for endpoint. A zero timeout uses 30s.
func NewHTTPSource(endpoint string, timeout time.Duration, log logger.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSource{
		logger:   log,
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Query implements Source. A response carrying GraphQL errors fails the query
// even when it also carries data.
func (s *HTTPSource) Query(ctx context.Context, q Query) (*models.Payload, error) {
	body, err := json.Marshal(map[string]string{"query": q.Text})
	if err != nil {
		return nil, newFetchError(s.Name(), KindConfig, fmt.Errorf("encoding query: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newFetchError(s.Name(), KindConfig, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newFetchError(s.Name(), KindTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newFetchError(s.Name(), KindTransport, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		snippet := data
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet]
		}
		return nil, newFetchError(s.Name(), KindStatus, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	payload, gqlErrs, err := decodeResponse(data)
	if err != nil {
		return nil, newFetchError(s.Name(), KindDecode, err)
	}
	if len(gqlErrs) > 0 {
		return nil, newFetchError(s.Name(), KindQuery, queryErrors(gqlErrs))
	}
	if payload == nil {
		payload = &models.Payload{}
	}

	s.logger.Debug("Executed catalog query",
		"source", s.Name(),
		"query", q.Kind,
		"bytes", len(data),
		"duration", time.Since(start))

	return payload, nil
}
