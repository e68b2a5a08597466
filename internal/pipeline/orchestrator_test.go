package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/catalog"
	"github.com/joshsymonds/appquality/internal/config"
	"github.com/joshsymonds/appquality/internal/index/indextest"
	"github.com/joshsymonds/appquality/internal/market"
	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/internal/report"
	"github.com/joshsymonds/appquality/internal/rules"
	"github.com/joshsymonds/appquality/pkg/logger"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// scriptedSource answers queries from a fixed script and records them.
type scriptedSource struct {
	taxonomy    *models.Payload
	entities    *models.Payload
	taxonomyErr error
	entitiesErr error
	queries     []catalog.Query
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Query(_ context.Context, q catalog.Query) (*models.Payload, error) {
	s.queries = append(s.queries, q)
	if q.Kind == catalog.QueryTaxonomy {
		return s.taxonomy, s.taxonomyErr
	}
	return s.entities, s.entitiesErr
}

func newOrchestrator(src catalog.Source, log logger.Logger) *Orchestrator {
	return NewOrchestratorWithLogger(src, market.TagGroupLabeler{Group: "Market"}, rules.Reference(now), config.Default(), log)
}

func entities() *models.Payload {
	return indextest.Entities(
		[]models.EntityNode{
			indextest.App("a", "A").Tag("Market", "tag-eu", "EU").Phase(models.PhaseActive, "2020-01-01").Description("x").Build(),
			indextest.App("b", "B").Tag("Market", "tag-eu", "EU").Phase(models.PhaseActive, "2020-01-01").Build(),
		},
		[]models.EntityNode{}, []models.EntityNode{}, []models.EntityNode{},
	)
}

func findRow(t *testing.T, rep *report.Report, id string) report.Row {
	t.Helper()
	for _, r := range rep.Rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("no row %q", id)
	return report.Row{}
}

func TestRun_QueriesInOrder(t *testing.T) {
	src := &scriptedSource{taxonomy: indextest.DefaultTaxonomy(), entities: entities()}
	mock := logger.NewMockLogger()

	rep, err := newOrchestrator(src, mock).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, src.queries, 2)
	assert.Equal(t, catalog.QueryTaxonomy, src.queries[0].Kind)
	assert.Equal(t, catalog.QueryEntities, src.queries[1].Kind)

	// resolved ids become facets
	appFacets := src.queries[1].Filters[models.SectionApplications]
	assert.Contains(t, appFacets, catalog.Facet{Key: "Application Type", Keys: []string{indextest.ApplicationTagID}})
	assert.Contains(t, appFacets, catalog.Facet{Key: "CostCentre", Keys: []string{indextest.ITTagID}})
	assert.Contains(t, src.queries[1].Filters[models.SectionBusinessCapabilities], catalog.Facet{Key: "BC Type", Keys: []string{indextest.AppMapTagID}})

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, map[int]string{0: "EU"}, rep.Groups)
	assert.Len(t, rep.Rows, rules.Reference(now).Len())

	desc := findRow(t, rep, "EU-"+rules.RuleDescription)
	assert.Equal(t, 50, desc.Percentage)
	assert.Equal(t, "A", desc.CompliantApps[0].Text)

	assert.True(t, mock.HasMessage("INFO", "Built report"))
	assert.False(t, mock.HasMessage("WARN", "Tag not found in taxonomy, matching by name"))
}

func TestRun_UnresolvedTagsFallBackToNames(t *testing.T) {
	taxonomy := indextest.Taxonomy(
		indextest.TagGroup("tg-apptype", "Application Type", indextest.Tag(indextest.ApplicationTagID, "Application")),
	)
	src := &scriptedSource{taxonomy: taxonomy, entities: entities()}
	mock := logger.NewMockLogger()

	rep, err := newOrchestrator(src, mock).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, src.queries[1].Filters[models.SectionBusinessCapabilities], 1, "no AppMap facet")
	assert.True(t, mock.HasMessageContaining("WARN", "Tag not found in taxonomy"))
	assert.Len(t, rep.Groups, 1, "IT tag matched by name")
}

func TestRun_Failures(t *testing.T) {
	fetchErr := &catalog.FetchError{Source: "scripted", Kind: catalog.KindTransport, Err: errors.New("connection reset")}

	tests := []struct {
		src         *scriptedSource
		wantIs      error
		name        string
		wantMsg     string
		wantQueries int
		wantFetch   bool
	}{
		{
			name:        "taxonomy fetch fails",
			src:         &scriptedSource{taxonomyErr: fetchErr},
			wantMsg:     "taxonomy query",
			wantQueries: 1,
			wantFetch:   true,
		},
		{
			name:        "taxonomy lacks tag groups",
			src:         &scriptedSource{taxonomy: &models.Payload{}},
			wantIs:      catalog.ErrIncompleteData,
			wantMsg:     `missing "tagGroups" section`,
			wantQueries: 1,
		},
		{
			name:        "entity fetch fails",
			src:         &scriptedSource{taxonomy: indextest.DefaultTaxonomy(), entitiesErr: fetchErr},
			wantMsg:     "entity query",
			wantQueries: 2,
			wantFetch:   true,
		},
		{
			name:        "entities lack applications",
			src:         &scriptedSource{taxonomy: indextest.DefaultTaxonomy(), entities: &models.Payload{}},
			wantIs:      catalog.ErrIncompleteData,
			wantMsg:     `missing "applications" section`,
			wantQueries: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := newOrchestrator(tt.src, logger.NewMockLogger()).Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, rep)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Len(t, tt.src.queries, tt.wantQueries)
			assert.Equal(t, tt.wantFetch, catalog.IsFetchError(err))
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestRun_EmptyApplicationsIsNotAnError(t *testing.T) {
	src := &scriptedSource{
		taxonomy: indextest.DefaultTaxonomy(),
		entities: indextest.Entities([]models.EntityNode{}, nil, nil, nil),
	}

	rep, err := newOrchestrator(src, logger.NewMockLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)
	assert.Empty(t, rep.Groups)
}

func TestRun_SnapshotTagsWithoutIDs(t *testing.T) {
	fixtures, err := filepath.Abs(filepath.Join("..", "..", "testdata", "catalog"))
	require.NoError(t, err)
	taxonomy, err := os.ReadFile(filepath.Join(fixtures, "taxonomy.json"))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taxonomy.json"), taxonomy, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "entities.json"), []byte(`{"data": {"applications": {"edges": [
		{"node": {"id": "app-named", "name": "Named", "description": "x", "tags": [
			{"name": "Application", "tagGroup": {"name": "Application Type"}},
			{"name": "IT", "tagGroup": {"name": "CostCentre"}},
			{"name": "EU", "tagGroup": {"name": "Market"}}
		]}}
	]}}}`), 0600))

	src := catalog.NewFileSource(dir, "*.json", logger.NewMockLogger())
	orch := NewOrchestratorWithLogger(src, market.TagGroupLabeler{Group: "Market"}, rules.Reference(now), config.Default(), logger.NewMockLogger())

	rep, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "EU"}, rep.Groups)
	assert.Len(t, rep.Rows, rules.Reference(now).Len())
}

func TestRun_FixtureSnapshot(t *testing.T) {
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "catalog"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Report.FactSheetBaseURL = "https://catalog.example.com/acme"
	src := catalog.NewFileSource(dir, "*.json", logger.NewMockLogger())
	orch := NewOrchestratorWithLogger(src, market.TagGroupLabeler{Group: "Market"}, rules.Reference(now), cfg, logger.NewMockLogger())

	rep, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[int]string{0: "EU", 1: "US"}, rep.Groups)
	assert.Len(t, rep.Rows, 2*rules.Reference(now).Len())

	tests := []struct {
		id           string
		compliant    int
		nonCompliant int
		percentage   int
	}{
		{id: "EU-" + rules.RuleAnyProjects, compliant: 0, nonCompliant: 1, percentage: 0},
		{id: "EU-" + rules.RuleCOBRA, compliant: 1, nonCompliant: 1, percentage: 50},
		{id: "EU-" + rules.RuleSoftwareProduct, compliant: 1, nonCompliant: 0, percentage: 100},
		{id: "EU-" + rules.RuleNoPlaceholder, compliant: 1, nonCompliant: 0, percentage: 100},
		{id: "EU-" + rules.RuleDescription, compliant: 1, nonCompliant: 1, percentage: 50},
		{id: "EU-" + rules.RuleITOwner, compliant: 1, nonCompliant: 1, percentage: 50},
		{id: "US-" + rules.RuleRetiringProject, compliant: 1, nonCompliant: 0, percentage: 100},
		{id: "US-" + rules.RuleDescription, compliant: 0, nonCompliant: 0, percentage: 100},
		{id: "US-" + rules.RuleLifecycle, compliant: 1, nonCompliant: 0, percentage: 100},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			row := findRow(t, rep, tt.id)
			assert.Equal(t, tt.compliant, row.Compliant)
			assert.Equal(t, tt.nonCompliant, row.NonCompliant)
			assert.Equal(t, tt.percentage, row.Percentage)
		})
	}

	billing := findRow(t, rep, "EU-"+rules.RuleAnyProjects).NonCompliantApps
	require.Len(t, billing, 1)
	assert.Equal(t, report.Link{
		ID:     "app-billing",
		Text:   "Billing",
		Link:   "https://catalog.example.com/acme/factsheet/Application/app-billing",
		Target: "_blank",
	}, billing[0])
}
