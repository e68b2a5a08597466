package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshsymonds/appquality/internal/models"
)

func TestTaxonomyQuery(t *testing.T) {
	q := TaxonomyQuery()

	assert.Equal(t, QueryTaxonomy, q.Kind)
	assert.Contains(t, q.Text, "tagGroups: allTagGroups")
	assert.Contains(t, q.Text, "tags { edges { node { id name } } }")
	assert.Empty(t, q.Filters)
}

func TestEntityQuery(t *testing.T) {
	tests := []struct {
		name            string
		filter          EntityFilter
		wantAppFacets   []Facet
		wantBCFacets    []Facet
		wantText        []string
		wantMissingText []string
	}{
		{
			name: "all ids resolved",
			filter: EntityFilter{
				ApplicationGroup: "Application Type", ApplicationTagID: "tag-application",
				ITGroup: "CostCentre", ITTagID: "tag-it",
				AppMapGroup: "BC Type", AppMapTagID: "tag-appmap",
			},
			wantAppFacets: []Facet{
				{Key: FacetFactSheetTypes, Keys: []string{"Application"}},
				{Key: "Application Type", Keys: []string{"tag-application"}},
				{Key: "CostCentre", Keys: []string{"tag-it"}},
			},
			wantBCFacets: []Facet{
				{Key: FacetFactSheetTypes, Keys: []string{"BusinessCapability"}},
				{Key: "BC Type", Keys: []string{"tag-appmap"}},
			},
			wantText: []string{
				`{facetKey: "Application Type", keys: ["tag-application"]}`,
				`{facetKey: "CostCentre", keys: ["tag-it"]}`,
				`{facetKey: "BC Type", keys: ["tag-appmap"]}`,
				`key: "displayName", order: asc`,
				"edges { node { id } }",
			},
			wantMissingText: []string{"edges { node { id tags { name } } }\n}\nitComponents"},
		},
		{
			name:   "nothing resolved",
			filter: EntityFilter{ApplicationGroup: "Application Type", ITGroup: "CostCentre", AppMapGroup: "BC Type"},
			wantAppFacets: []Facet{
				{Key: FacetFactSheetTypes, Keys: []string{"Application"}},
			},
			wantBCFacets: []Facet{
				{Key: FacetFactSheetTypes, Keys: []string{"BusinessCapability"}},
			},
			wantText: []string{
				`businessCapabilities: allFactSheets(filter: {facetFilters: [{facetKey: "FactSheetTypes", keys: ["BusinessCapability"]}]}) {` + "\n\tedges { node { id tags { name } } }",
			},
			wantMissingText: []string{`facetKey: "Application Type"`, `facetKey: "BC Type"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := EntityQuery(tt.filter)

			assert.Equal(t, QueryEntities, q.Kind)
			assert.Equal(t, tt.wantAppFacets, q.Filters[models.SectionApplications])
			assert.Equal(t, tt.wantBCFacets, q.Filters[models.SectionBusinessCapabilities])
			assert.Equal(t, []Facet{
				{Key: FacetFactSheetTypes, Keys: []string{"ITComponent"}},
				{Key: FacetCategory, Keys: []string{"software"}},
			}, q.Filters[models.SectionITComponents])
			assert.Len(t, q.Filters[models.SectionProjects], 1)

			for _, s := range []string{"applications:", "businessCapabilities:", "itComponents:", "projects:"} {
				assert.Contains(t, q.Text, s)
			}
			for _, s := range tt.wantText {
				assert.Contains(t, q.Text, s)
			}
			for _, s := range tt.wantMissingText {
				assert.NotContains(t, q.Text, s)
			}
		})
	}
}

func TestQuery_CheckComplete(t *testing.T) {
	tests := []struct {
		payload *models.Payload
		query   Query
		name    string
		missing string
	}{
		{name: "taxonomy present", query: TaxonomyQuery(), payload: &models.Payload{TagGroups: &models.Connection[models.TagGroupNode]{}}},
		{name: "taxonomy missing", query: TaxonomyQuery(), payload: &models.Payload{}, missing: models.SectionTagGroups},
		{name: "applications missing", query: EntityQuery(EntityFilter{}), payload: &models.Payload{Projects: &models.Connection[models.EntityNode]{}}, missing: models.SectionApplications},
		{name: "nil payload", query: EntityQuery(EntityFilter{}), missing: models.SectionApplications},
		{name: "unknown kind", query: Query{Kind: "other"}, payload: &models.Payload{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.CheckComplete(tt.payload)
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrIncompleteData)
			assert.ErrorContains(t, err, tt.missing)
		})
	}
}

func TestFacet_IsTagFacet(t *testing.T) {
	assert.False(t, Facet{Key: FacetFactSheetTypes}.IsTagFacet())
	assert.False(t, Facet{Key: FacetCategory}.IsTagFacet())
	assert.True(t, Facet{Key: "CostCentre"}.IsTagFacet())
}
