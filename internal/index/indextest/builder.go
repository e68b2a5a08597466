// Package indextest builds catalog payloads and indexes for tests.
package indextest

import (
	"github.com/joshsymonds/appquality/internal/index"
	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// Reference taxonomy names and ids used by DefaultTaxonomy.
const (
	ApplicationTagID = "tag-application"
	ITTagID          = "tag-it"
	AppMapTagID      = "tag-appmap"
)

// Tag returns a taxonomy tag node.
func Tag(id, name string) models.TagNode {
	return models.TagNode{ID: id, Name: name}
}

// TagGroup returns a taxonomy tag group node.
func TagGroup(id, name string, tags ...models.TagNode) models.TagGroupNode {
	conn := &models.Connection[models.TagNode]{}
	for _, t := range tags {
		conn.Edges = append(conn.Edges, models.Edge[models.TagNode]{Node: t})
	}
	return models.TagGroupNode{ID: id, Name: name, Tags: conn}
}

// Taxonomy wraps tag groups in a taxonomy payload.
func Taxonomy(groups ...models.TagGroupNode) *models.Payload {
	conn := &models.Connection[models.TagGroupNode]{}
	for _, g := range groups {
		conn.Edges = append(conn.Edges, models.Edge[models.TagGroupNode]{Node: g})
	}
	return &models.Payload{TagGroups: conn}
}

// DefaultTaxonomy returns a taxonomy using the reference tag group names.
func DefaultTaxonomy() *models.Payload {
	return Taxonomy(
		TagGroup("tg-apptype", "Application Type", Tag(ApplicationTagID, "Application"), Tag("tag-interface", "Interface")),
		TagGroup("tg-costcentre", "CostCentre", Tag(ITTagID, "IT"), Tag("tag-finance", "Finance")),
		TagGroup("tg-bctype", "BC Type", Tag(AppMapTagID, "AppMap")),
		TagGroup("tg-cots", "COTS Package", Tag("tag-cots", "COTS Package")),
		TagGroup("tg-other", "Other", Tag("tag-placeholder", "Placeholder")),
		TagGroup("tg-market", "Market", Tag("tag-eu", "EU"), Tag("tag-us", "US")),
	)
}

// Entities builds an entity payload. Nil slices leave the section absent.
func Entities(apps, capabilities, components, projects []models.EntityNode) *models.Payload {
	return &models.Payload{
		Applications:         connection(apps),
		BusinessCapabilities: connection(capabilities),
		ITComponents:         connection(components),
		Projects:             connection(projects),
	}
}

func connection(nodes []models.EntityNode) *models.Connection[models.EntityNode] {
	if nodes == nil {
		return nil
	}
	conn := &models.Connection[models.EntityNode]{}
	for _, n := range nodes {
		conn.Edges = append(conn.Edges, models.Edge[models.EntityNode]{Node: n})
	}
	return conn
}

// Build ingests payloads in order into a fresh index with a mock logger.
func Build(payloads ...*models.Payload) *index.Index {
	idx := index.NewWithLogger(logger.NewMockLogger())
	for _, p := range payloads {
		idx.Ingest(p)
	}
	return idx
}

// NodeBuilder assembles an entity node fluently.
type NodeBuilder struct {
	node models.EntityNode
}

// Node starts a fact sheet node.
func Node(id, name string) *NodeBuilder {
	return &NodeBuilder{node: models.EntityNode{ID: id, Name: name}}
}

// App starts an application tagged as an IT application.
func App(id, name string) *NodeBuilder {
	return Node(id, name).
		Tag("Application Type", ApplicationTagID, "Application").
		Tag("CostCentre", ITTagID, "IT")
}

// Description sets the description.
func (b *NodeBuilder) Description(s string) *NodeBuilder {
	b.node.Description = &s
	return b
}

// Suitability sets the functional and technical suitability ratings; "" leaves one unset.
func (b *NodeBuilder) Suitability(functional, technical string) *NodeBuilder {
	if functional != "" {
		b.node.FunctionalSuitability = &functional
	}
	if technical != "" {
		b.node.TechnicalSuitability = &technical
	}
	return b
}

// Tag attaches a tag in a group.
func (b *NodeBuilder) Tag(group, id, name string) *NodeBuilder {
	b.node.Tags = append(b.node.Tags, models.TagNode{ID: id, Name: name, TagGroup: &models.NameRef{Name: group}})
	return b
}

// Phase appends a lifecycle phase with a YYYY-MM-DD start date.
func (b *NodeBuilder) Phase(name, startDate string) *NodeBuilder {
	if b.node.Lifecycle == nil {
		b.node.Lifecycle = &models.LifecycleNode{}
	}
	b.node.Lifecycle.Phases = append(b.node.Lifecycle.Phases, models.PhaseNode{Phase: name, StartDate: startDate})
	return b
}

// Projects sets the project relations; calling with no arguments records an empty list.
func (b *NodeBuilder) Projects(rels ...models.RelationNode) *NodeBuilder {
	b.node.RelApplicationToProject = relConnection(rels)
	return b
}

// Capabilities sets business capability relations by id.
func (b *NodeBuilder) Capabilities(ids ...string) *NodeBuilder {
	b.node.RelApplicationToBusinessCapability = relConnection(refs(ids))
	return b
}

// Components sets IT component relations by id.
func (b *NodeBuilder) Components(ids ...string) *NodeBuilder {
	b.node.RelApplicationToITComponent = relConnection(refs(ids))
	return b
}

// Subscriber adds a subscription with the given roles.
func (b *NodeBuilder) Subscriber(roles ...string) *NodeBuilder {
	if b.node.Subscriptions == nil {
		b.node.Subscriptions = &models.Connection[models.SubscriptionNode]{}
	}
	sub := models.SubscriptionNode{}
	for _, r := range roles {
		sub.Roles = append(sub.Roles, models.NameRef{Name: r})
	}
	b.node.Subscriptions.Edges = append(b.node.Subscriptions.Edges, models.Edge[models.SubscriptionNode]{Node: sub})
	return b
}

// Build returns the node.
func (b *NodeBuilder) Build() models.EntityNode {
	return b.node
}

// Rel returns a relation to id.
func Rel(id string) models.RelationNode {
	return models.RelationNode{FactSheet: models.IDRef{ID: id}}
}

// RelImpact returns a project relation carrying an impact classification.
func RelImpact(id, impact string) models.RelationNode {
	return models.RelationNode{FactSheet: models.IDRef{ID: id}, ProjectImpact: impact}
}

func refs(ids []string) []models.RelationNode {
	rels := make([]models.RelationNode, 0, len(ids))
	for _, id := range ids {
		rels = append(rels, Rel(id))
	}
	return rels
}

func relConnection(rels []models.RelationNode) *models.Connection[models.RelationNode] {
	conn := &models.Connection[models.RelationNode]{Edges: []models.Edge[models.RelationNode]{}}
	for _, r := range rels {
		conn.Edges = append(conn.Edges, models.Edge[models.RelationNode]{Node: r})
	}
	return conn
}
