// Package index builds a flat, id-addressable view of catalog query results.
//
// An Index is filled by sequential Ingest calls (taxonomy first, then
// entities) and is read-only afterwards. Lookups never fail: a missing
// entity, tag list, relation list or lifecycle resolves to "not present".
package index

import (
	"time"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

const dateLayout = "2006-01-02"

type tagKey struct {
	group string
	name  string
}

// Index holds every ingested entity keyed by id.
type Index struct {
	logger    logger.Logger
	byID      map[string]*models.Entity
	order     map[models.EntityType][]string
	tagIDs    map[tagKey]string
	tagsByID  map[string]models.Tag
	tagGroups []string
}

// New creates an empty index using the global logger.
func New() *Index {
	return NewWithLogger(logger.GetGlobalLogger())
}

// NewWithLogger creates an empty index with a custom logger.
func NewWithLogger(log logger.Logger) *Index {
	return &Index{
		logger:   log,
		byID:     make(map[string]*models.Entity),
		order:    make(map[models.EntityType][]string),
		tagIDs:   make(map[tagKey]string),
		tagsByID: make(map[string]models.Tag),
	}
}

// Ingest merges a payload into the index. Entities are last-write-wins per
// id but keep their first-seen position. Absent sections are skipped.
func (i *Index) Ingest(p *models.Payload) {
	if p == nil {
		return
	}

	for _, group := range p.TagGroups.Nodes() {
		i.ingestTagGroup(group)
	}

	sections := []struct {
		conn *models.Connection[models.EntityNode]
		typ  models.EntityType
	}{
		{p.Applications, models.TypeApplication},
		{p.BusinessCapabilities, models.TypeBusinessCapability},
		{p.ITComponents, models.TypeITComponent},
		{p.Projects, models.TypeProject},
	}
	for _, s := range sections {
		nodes := s.conn.Nodes()
		for idx := range nodes {
			i.put(i.toEntity(&nodes[idx], s.typ))
		}
		if s.conn != nil {
			i.logger.Debug("Ingested section", "type", s.typ, "count", len(nodes))
		}
	}
}

func (i *Index) ingestTagGroup(group models.TagGroupNode) {
	i.tagGroups = append(i.tagGroups, group.Name)
	for _, tag := range group.Tags.Nodes() {
		key := tagKey{group: group.Name, name: tag.Name}
		if _, seen := i.tagIDs[key]; !seen && tag.ID != "" {
			i.tagIDs[key] = tag.ID
		}
		if tag.ID != "" {
			i.tagsByID[tag.ID] = models.Tag{ID: tag.ID, Name: tag.Name, Group: group.Name}
		}
	}
}

func (i *Index) put(e *models.Entity) {
	if _, seen := i.byID[e.ID]; !seen {
		i.order[e.Type] = append(i.order[e.Type], e.ID)
	}
	i.byID[e.ID] = e
}

func (i *Index) toEntity(n *models.EntityNode, typ models.EntityType) *models.Entity {
	e := &models.Entity{
		ID:                    n.ID,
		Type:                  typ,
		Name:                  n.Name,
		Description:           nonEmpty(n.Description),
		FunctionalSuitability: nonEmpty(n.FunctionalSuitability),
		TechnicalSuitability:  nonEmpty(n.TechnicalSuitability),
	}

	for _, t := range n.Tags {
		e.Tags = append(e.Tags, i.resolveTag(t))
	}

	if n.Lifecycle != nil {
		lc := &models.Lifecycle{}
		for _, p := range n.Lifecycle.Phases {
			lc.Phases = append(lc.Phases, models.Phase{Name: p.Phase, StartDate: i.parseDate(n.ID, p.StartDate)})
		}
		e.Lifecycle = lc
	}

	for _, s := range n.Subscriptions.Nodes() {
		sub := models.Subscription{}
		for _, r := range s.Roles {
			sub.Roles = append(sub.Roles, r.Name)
		}
		e.Subscriptions = append(e.Subscriptions, sub)
	}

	e.Projects = relations(n.RelApplicationToProject)
	e.BusinessCapabilities = relations(n.RelApplicationToBusinessCapability)
	e.ITComponents = relations(n.RelApplicationToITComponent)

	return e
}

// resolveTag fills in the tag group from the taxonomy when the entity
// payload only carried the tag id and name.
func (i *Index) resolveTag(t models.TagNode) models.Tag {
	tag := models.Tag{ID: t.ID, Name: t.Name}
	if t.TagGroup != nil {
		tag.Group = t.TagGroup.Name
	}
	if tag.Group == "" && t.ID != "" {
		if known, ok := i.tagsByID[t.ID]; ok {
			tag.Group = known.Group
		}
	}
	if tag.ID == "" && tag.Group != "" {
		tag.ID = i.tagIDs[tagKey{group: tag.Group, name: tag.Name}]
	}
	return tag
}

func (i *Index) parseDate(entityID, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	i.logger.Debug("Ignoring unparseable lifecycle date", "entity", entityID, "date", s)
	return time.Time{}
}

func relations(conn *models.Connection[models.RelationNode]) []models.Relation {
	if conn == nil {
		return nil
	}
	rels := make([]models.Relation, 0, len(conn.Edges))
	for _, r := range conn.Nodes() {
		rel := models.Relation{TargetID: r.FactSheet.ID}
		if r.ProjectImpact != "" {
			rel.Attributes = map[string]string{models.AttrProjectImpact: r.ProjectImpact}
		}
		rels = append(rels, rel)
	}
	return rels
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Lookup returns the entity with the given id.
func (i *Index) Lookup(id string) (*models.Entity, bool) {
	e, ok := i.byID[id]
	return e, ok
}

// Len returns the number of indexed entities.
func (i *Index) Len() int {
	return len(i.byID)
}

// Entities returns all entities of a type in first-seen order.
func (i *Index) Entities(typ models.EntityType) []*models.Entity {
	ids := i.order[typ]
	out := make([]*models.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, i.byID[id])
	}
	return out
}

// Applications returns all application entities in first-seen order.
func (i *Index) Applications() []*models.Entity {
	return i.Entities(models.TypeApplication)
}

// TagGroups returns the tag group names seen in the taxonomy.
func (i *Index) TagGroups() []string {
	return append([]string(nil), i.tagGroups...)
}

// TagGroupFirstID resolves the first tag id matching the group and tag name.
// It returns false when the taxonomy does not use those names, in which case
// callers fall back to checking tag names literally.
func (i *Index) TagGroupFirstID(group, tagName string) (string, bool) {
	id, ok := i.tagIDs[tagKey{group: group, name: tagName}]
	return id, ok
}

// EntityHasTag reports whether tagName appears in any of the entity's tag groups.
func (i *Index) EntityHasTag(e *models.Entity, tagName string) bool {
	if e == nil {
		return false
	}
	for _, t := range e.Tags {
		if t.Name == tagName {
			return true
		}
	}
	return false
}

// EntityHasTagID reports whether the entity carries the tag with the given id.
func (i *Index) EntityHasTagID(e *models.Entity, tagID string) bool {
	if e == nil || tagID == "" {
		return false
	}
	for _, t := range e.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// FirstTagFromGroup returns the first tag the entity carries in group.
func (i *Index) FirstTagFromGroup(e *models.Entity, group string) (models.Tag, bool) {
	if e == nil {
		return models.Tag{}, false
	}
	for _, t := range e.Tags {
		if t.Group == group {
			return t, true
		}
	}
	return models.Tag{}, false
}
