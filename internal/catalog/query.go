// Package catalog fetches taxonomy and fact sheet data from the application
// catalog. A Source answers the two queries a report needs: the taxonomy
// query (tag groups) and the entity query (applications and the records
// they relate to).
package catalog

import (
	"fmt"
	"strings"

	"github.com/joshsymonds/appquality/internal/models"
)

// QueryKind distinguishes the two queries.
type QueryKind string

// Query kinds.
const (
	QueryTaxonomy QueryKind = "taxonomy"
	QueryEntities QueryKind = "entities"
)

// Structural facet keys. Every other facet key names a tag group and is
// matched against tag ids.
const (
	FacetFactSheetTypes = "FactSheetTypes"
	FacetCategory       = "category"
)

// Facet restricts a section to fact sheets with one of the keys.
type Facet struct {
	Key  string
	Keys []string
}

// IsTagFacet reports whether the facet filters by tag id.
func (f Facet) IsTagFacet() bool {
	return f.Key != FacetFactSheetTypes && f.Key != FacetCategory
}

// Query is a catalog request. Text is the GraphQL document sent to remote
// catalogs; Filters carries the same facet filters per section so snapshot
// sources can apply them locally.
type Query struct {
	Filters map[string][]Facet
	Kind    QueryKind
	Text    string
}

// EntityFilter carries the tag ids resolved from the taxonomy. Empty ids add
// no facet.
type EntityFilter struct {
	ApplicationTagID string
	ITTagID          string
	AppMapTagID      string
	ApplicationGroup string
	ITGroup          string
	AppMapGroup      string
}

// RequiredSection names the top-level section a successful response to a
// query of this kind must contain.
func (k QueryKind) RequiredSection() string {
	switch k {
	case QueryTaxonomy:
		return models.SectionTagGroups
	case QueryEntities:
		return models.SectionApplications
	default:
		return ""
	}
}

// CheckComplete returns ErrIncompleteData when p lacks the section the
// query requires.
func (q Query) CheckComplete(p *models.Payload) error {
	section := q.Kind.RequiredSection()
	if section == "" {
		return nil
	}
	return RequireSection(p, section)
}

const taxonomyText = `{tagGroups: allTagGroups(sort: {mode: BY_FIELD, key: "name", order: asc}) {
	edges { node { id name tags { edges { node { id name } } } } }
}}`

// TaxonomyQuery returns the query for all tag groups and their tags.
func TaxonomyQuery() Query {
	return Query{Kind: QueryTaxonomy, Text: taxonomyText}
}

// EntityQuery returns the query for applications, business capabilities, IT
// components and projects, narrowed by the resolved tag ids. When the AppMap
// tag id is unknown, capabilities are fetched unfiltered with their tag names
// so AppMap membership can be checked by name.
func EntityQuery(f EntityFilter) Query {
	filters := map[string][]Facet{
		models.SectionApplications: withTagFacets(
			[]Facet{{Key: FacetFactSheetTypes, Keys: []string{string(models.TypeApplication)}}},
			f.ApplicationGroup, f.ApplicationTagID,
			f.ITGroup, f.ITTagID,
		),
		models.SectionBusinessCapabilities: withTagFacets(
			[]Facet{{Key: FacetFactSheetTypes, Keys: []string{string(models.TypeBusinessCapability)}}},
			f.AppMapGroup, f.AppMapTagID,
		),
		models.SectionITComponents: {
			{Key: FacetFactSheetTypes, Keys: []string{string(models.TypeITComponent)}},
			{Key: FacetCategory, Keys: []string{"software"}},
		},
		models.SectionProjects: {
			{Key: FacetFactSheetTypes, Keys: []string{string(models.TypeProject)}},
		},
	}

	capabilityFields := "id"
	if f.AppMapTagID == "" {
		capabilityFields = "id tags { name }"
	}

	var b strings.Builder
	b.WriteString("{")
	fmt.Fprintf(&b, `%s: allFactSheets(
	sort: {mode: BY_FIELD, key: "displayName", order: asc},
	filter: {facetFilters: [%s]}
) {
	edges { node {
		id name description tags { id name tagGroup { name } }
		subscriptions { edges { node { roles { name } } } }
		... on Application {
			lifecycle { asString phases { phase startDate } }
			functionalSuitability technicalSuitability
			relApplicationToProject { edges { node { projectImpact factSheet { id } } } }
			relApplicationToBusinessCapability { edges { node { factSheet { id } } } }
			relApplicationToITComponent { edges { node { factSheet { id } } } }
		}
	}}
}
`, models.SectionApplications, facetText(filters[models.SectionApplications]))
	fmt.Fprintf(&b, "%s: allFactSheets(filter: {facetFilters: [%s]}) {\n\tedges { node { %s } }\n}\n",
		models.SectionBusinessCapabilities, facetText(filters[models.SectionBusinessCapabilities]), capabilityFields)
	fmt.Fprintf(&b, "%s: allFactSheets(filter: {facetFilters: [%s]}) {\n\tedges { node { id tags { name } } }\n}\n",
		models.SectionITComponents, facetText(filters[models.SectionITComponents]))
	fmt.Fprintf(&b, "%s: allFactSheets(filter: {facetFilters: [%s]}) {\n\tedges { node { id name } }\n}",
		models.SectionProjects, facetText(filters[models.SectionProjects]))
	b.WriteString("}")

	return Query{Kind: QueryEntities, Text: b.String(), Filters: filters}
}

// withTagFacets appends a facet per (group, id) pair with a non-empty id.
func withTagFacets(facets []Facet, pairs ...string) []Facet {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		facets = append(facets, Facet{Key: pairs[i], Keys: []string{pairs[i+1]}})
	}
	return facets
}

func facetText(facets []Facet) string {
	parts := make([]string, 0, len(facets))
	for _, f := range facets {
		keys := make([]string, 0, len(f.Keys))
		for _, k := range f.Keys {
			keys = append(keys, fmt.Sprintf("%q", k))
		}
		parts = append(parts, fmt.Sprintf(`{facetKey: %q, keys: [%s]}`, f.Key, strings.Join(keys, ", ")))
	}
	return strings.Join(parts, ", ")
}
