package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// countingSource answers every query with an empty taxonomy and counts calls.
type countingSource struct {
	err   error
	calls int
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Query(context.Context, Query) (*models.Payload, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Payload{TagGroups: &models.Connection[models.TagGroupNode]{}}, nil
}

func TestCachedSource_Query(t *testing.T) {
	mock := logger.NewMockLogger()
	next := &countingSource{}
	src, err := NewCachedSource(next, t.TempDir(), time.Hour, mock)
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		payload, err := src.Query(ctx, TaxonomyQuery())
		require.NoError(t, err)
		assert.True(t, payload.Has(models.SectionTagGroups))
	}
	assert.Equal(t, 1, next.calls)
	assert.True(t, mock.HasMessage("DEBUG", "Catalog cache hit"))

	_, err = src.Query(ctx, EntityQuery(EntityFilter{}))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "a different query misses the cache")

	stats, err := src.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, int64(2), stats.TotalHits)
	assert.Equal(t, "counting", src.Name())
}

func TestCachedSource_DoesNotCacheFailures(t *testing.T) {
	next := &countingSource{err: newFetchError("counting", KindStatus, errors.New("502"))}
	src, err := NewCachedSource(next, t.TempDir(), 0, logger.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheTTL, src.ttl)

	for range 2 {
		_, err := src.Query(context.Background(), TaxonomyQuery())
		requireKind(t, err, KindStatus)
	}
	assert.Equal(t, 2, next.calls)
}

// flakySource answers the first query with an empty payload and complete
// ones afterwards.
type flakySource struct {
	calls int
}

func (s *flakySource) Name() string { return "flaky" }

func (s *flakySource) Query(context.Context, Query) (*models.Payload, error) {
	s.calls++
	if s.calls == 1 {
		return &models.Payload{}, nil
	}
	return &models.Payload{Applications: &models.Connection[models.EntityNode]{}}, nil
}

func TestCachedSource_DoesNotCacheIncompleteResponses(t *testing.T) {
	next := &flakySource{}
	src, err := NewCachedSource(next, t.TempDir(), time.Hour, logger.NewMockLogger())
	require.NoError(t, err)
	ctx := context.Background()
	q := EntityQuery(referenceFilter())

	first, err := src.Query(ctx, q)
	require.NoError(t, err)
	assert.ErrorIs(t, q.CheckComplete(first), ErrIncompleteData)

	second, err := src.Query(ctx, q)
	require.NoError(t, err)
	assert.True(t, second.Has(models.SectionApplications))
	assert.Equal(t, 2, next.calls)

	third, err := src.Query(ctx, q)
	require.NoError(t, err)
	assert.True(t, third.Has(models.SectionApplications))
	assert.Equal(t, 2, next.calls, "the complete response is served from the cache")
}

func TestNewCachedSource_InvalidDir(t *testing.T) {
	_, err := NewCachedSource(&countingSource{}, "../cache", time.Hour, logger.NewMockLogger())
	requireKind(t, err, KindConfig)
}
