package catalog

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/joshsymonds/appquality/internal/models"
)

// GraphQLError is one entry of a response's errors list.
type GraphQLError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

type envelope struct {
	Data   *models.Payload `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// decodeResponse decodes a {data, errors} response. Snapshot files may also
// hold the bare data object.
func decodeResponse(body []byte) (*models.Payload, []GraphQLError, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("decoding response: %w", err)
	}
	if env.Data != nil || len(env.Errors) > 0 {
		return env.Data, env.Errors, nil
	}

	var bare models.Payload
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, nil, fmt.Errorf("decoding payload: %w", err)
	}
	return &bare, nil, nil
}

func queryErrors(errs []GraphQLError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("catalog rejected query: %v", msgs)
}

// snapshot accumulates payloads read from exported query results and answers
// queries from them.
type snapshot struct {
	tagIDs  map[tagKey]string
	payload models.Payload
	files   int
}

type tagKey struct {
	group string
	name  string
}

// add merges p into the snapshot, appending edges section by section and
// indexing tag ids by group and name.
func (s *snapshot) add(p *models.Payload) {
	if p == nil {
		return
	}
	s.files++
	if s.tagIDs == nil {
		s.tagIDs = map[tagKey]string{}
	}
	for _, g := range p.TagGroups.Nodes() {
		for _, tag := range g.Tags.Nodes() {
			key := tagKey{group: g.Name, name: tag.Name}
			if _, seen := s.tagIDs[key]; !seen && tag.ID != "" {
				s.tagIDs[key] = tag.ID
			}
		}
	}
	s.payload.TagGroups = appendEdges(s.payload.TagGroups, p.TagGroups)
	s.payload.Applications = appendEdges(s.payload.Applications, p.Applications)
	s.payload.BusinessCapabilities = appendEdges(s.payload.BusinessCapabilities, p.BusinessCapabilities)
	s.payload.ITComponents = appendEdges(s.payload.ITComponents, p.ITComponents)
	s.payload.Projects = appendEdges(s.payload.Projects, p.Projects)
}

func appendEdges[T any](dst, src *models.Connection[T]) *models.Connection[T] {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = &models.Connection[T]{Edges: []models.Edge[T]{}}
	}
	dst.Edges = append(dst.Edges, src.Edges...)
	return dst
}

// answer returns the sections q asks for, applying its tag facets. Sections
// missing from the snapshot stay missing.
func (s *snapshot) answer(q Query) (*models.Payload, error) {
	switch q.Kind {
	case QueryTaxonomy:
		return &models.Payload{TagGroups: s.payload.TagGroups}, nil
	case QueryEntities:
		return &models.Payload{
			Applications:         s.filterNodes(s.payload.Applications, q.Filters[models.SectionApplications]),
			BusinessCapabilities: s.filterNodes(s.payload.BusinessCapabilities, q.Filters[models.SectionBusinessCapabilities]),
			ITComponents:         s.filterNodes(s.payload.ITComponents, q.Filters[models.SectionITComponents]),
			Projects:             s.filterNodes(s.payload.Projects, q.Filters[models.SectionProjects]),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported query kind %q", q.Kind)
	}
}

func (s *snapshot) filterNodes(conn *models.Connection[models.EntityNode], facets []Facet) *models.Connection[models.EntityNode] {
	if conn == nil {
		return nil
	}
	out := &models.Connection[models.EntityNode]{Edges: []models.Edge[models.EntityNode]{}}
	for _, edge := range conn.Edges {
		if s.matchesFacets(edge.Node, facets) {
			out.Edges = append(out.Edges, edge)
		}
	}
	return out
}

// matchesFacets requires, for every tag facet, a tag whose id is one of its
// keys. A tag exported without an id is looked up in the snapshot's taxonomy
// by its tag group, or the facet's group when it names none.
func (s *snapshot) matchesFacets(n models.EntityNode, facets []Facet) bool {
	for _, f := range facets {
		if !f.IsTagFacet() {
			continue
		}
		found := false
		for _, t := range n.Tags {
			if id := s.tagID(t, f.Key); id != "" && slices.Contains(f.Keys, id) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *snapshot) tagID(t models.TagNode, facetGroup string) string {
	if t.ID != "" {
		return t.ID
	}
	group := facetGroup
	if t.TagGroup != nil && t.TagGroup.Name != "" {
		group = t.TagGroup.Name
	}
	return s.tagIDs[tagKey{group: group, name: t.Name}]
}
