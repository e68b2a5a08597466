package models

// Payload is the data section of a catalog query response. Every section is
// optional; which ones are required depends on the query that produced it.
type Payload struct {
	TagGroups            *Connection[TagGroupNode] `json:"tagGroups,omitempty"`
	Applications         *Connection[EntityNode]   `json:"applications,omitempty"`
	BusinessCapabilities *Connection[EntityNode]   `json:"businessCapabilities,omitempty"`
	ITComponents         *Connection[EntityNode]   `json:"itComponents,omitempty"`
	Projects             *Connection[EntityNode]   `json:"projects,omitempty"`
}

// Section names as they appear in query responses.
const (
	SectionTagGroups            = "tagGroups"
	SectionApplications         = "applications"
	SectionBusinessCapabilities = "businessCapabilities"
	SectionITComponents         = "itComponents"
	SectionProjects             = "projects"
)

// Has reports whether the named section is present in the payload.
func (p *Payload) Has(section string) bool {
	if p == nil {
		return false
	}
	switch section {
	case SectionTagGroups:
		return p.TagGroups != nil
	case SectionApplications:
		return p.Applications != nil
	case SectionBusinessCapabilities:
		return p.BusinessCapabilities != nil
	case SectionITComponents:
		return p.ITComponents != nil
	case SectionProjects:
		return p.Projects != nil
	default:
		return false
	}
}

// Connection is a paged list of nodes.
type Connection[T any] struct {
	Edges []Edge[T] `json:"edges"`
}

// Edge wraps a single node.
type Edge[T any] struct {
	Node T `json:"node"`
}

// Nodes returns the connection's nodes in order. Nil-safe.
func (c *Connection[T]) Nodes() []T {
	if c == nil {
		return nil
	}
	nodes := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

// TagGroupNode is a tag group in the taxonomy response.
type TagGroupNode struct {
	Tags *Connection[TagNode] `json:"tags,omitempty"`
	ID   string               `json:"id"`
	Name string               `json:"name"`
}

// TagNode is a tag, either in the taxonomy or attached to an entity.
type TagNode struct {
	TagGroup *NameRef `json:"tagGroup,omitempty"`
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
}

// NameRef carries only a name.
type NameRef struct {
	Name string `json:"name"`
}

// IDRef carries only an id.
type IDRef struct {
	ID string `json:"id"`
}

// EntityNode is a fact sheet in the entity response.
type EntityNode struct {
	Description                        *string                       `json:"description,omitempty"`
	FunctionalSuitability              *string                       `json:"functionalSuitability,omitempty"`
	TechnicalSuitability               *string                       `json:"technicalSuitability,omitempty"`
	Lifecycle                          *LifecycleNode                `json:"lifecycle,omitempty"`
	Subscriptions                      *Connection[SubscriptionNode] `json:"subscriptions,omitempty"`
	RelApplicationToProject            *Connection[RelationNode]     `json:"relApplicationToProject,omitempty"`
	RelApplicationToBusinessCapability *Connection[RelationNode]     `json:"relApplicationToBusinessCapability,omitempty"`
	RelApplicationToITComponent        *Connection[RelationNode]     `json:"relApplicationToITComponent,omitempty"`
	ID                                 string                        `json:"id"`
	Name                               string                        `json:"name"`
	Tags                               []TagNode                     `json:"tags,omitempty"`
}

// LifecycleNode is the lifecycle block of a fact sheet.
type LifecycleNode struct {
	AsString string      `json:"asString,omitempty"`
	Phases   []PhaseNode `json:"phases"`
}

// PhaseNode is one lifecycle phase; StartDate is formatted YYYY-MM-DD.
type PhaseNode struct {
	Phase     string `json:"phase"`
	StartDate string `json:"startDate"`
}

// SubscriptionNode is a subscription with its roles.
type SubscriptionNode struct {
	Roles []NameRef `json:"roles"`
}

// RelationNode is one relation edge to another fact sheet.
type RelationNode struct {
	FactSheet     IDRef  `json:"factSheet"`
	ProjectImpact string `json:"projectImpact,omitempty"`
}
