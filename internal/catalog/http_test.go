package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

func TestHTTPSource_Query(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		gotQuery = req["query"]

		_, _ = w.Write([]byte(`{"data": {"tagGroups": {"edges": [{"node": {"id": "tg-1", "name": "CostCentre"}}]}}}`))
	}))
	defer server.Close()

	mock := logger.NewMockLogger()
	src := NewHTTPSource(server.URL, time.Second, mock)

	p, err := src.Query(context.Background(), TaxonomyQuery())
	require.NoError(t, err)
	assert.Equal(t, TaxonomyQuery().Text, gotQuery)
	require.True(t, p.Has(models.SectionTagGroups))
	assert.Equal(t, "CostCentre", p.TagGroups.Nodes()[0].Name)
	assert.True(t, mock.HasMessage("DEBUG", "Executed catalog query"))
}

func TestHTTPSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    ErrorKind
		wantMsg string
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    "upstream unavailable\n",
			kind:    KindStatus,
			wantMsg: "unexpected status 500: upstream unavailable",
		},
		{
			name:    "graphql errors",
			status:  http.StatusOK,
			body:    `{"data": null, "errors": [{"message": "Cannot query field \"foo\""}]}`,
			kind:    KindQuery,
			wantMsg: "catalog rejected query",
		},
		{
			name:   "undecodable body",
			status: http.StatusOK,
			body:   `not json`,
			kind:   KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPSource(server.URL, time.Second, logger.NewMockLogger()).Query(context.Background(), TaxonomyQuery())
			requireKind(t, err, tt.kind)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestHTTPSource_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": null}`))
	}))
	defer server.Close()

	p, err := NewHTTPSource(server.URL, 0, logger.NewMockLogger()).Query(context.Background(), TaxonomyQuery())
	require.NoError(t, err)
	assert.ErrorIs(t, RequireSection(p, models.SectionTagGroups), ErrIncompleteData)
}

func TestHTTPSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPSource(url, time.Second, logger.NewMockLogger()).Query(context.Background(), TaxonomyQuery())
	requireKind(t, err, KindTransport)
}

func TestHTTPSource_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(server.URL, time.Second, logger.NewMockLogger()).Query(ctx, TaxonomyQuery())
	requireKind(t, err, KindContext)
}
