// Package models contains the catalog records that appquality scores.
package models

import (
	"time"
)

// EntityType identifies the kind of catalog record.
type EntityType string

// Entity types known to the catalog.
const (
	TypeApplication        EntityType = "Application"
	TypeBusinessCapability EntityType = "BusinessCapability"
	TypeITComponent        EntityType = "ITComponent"
	TypeProject            EntityType = "Project"
)

// Lifecycle phase names.
const (
	PhasePlan      = "plan"
	PhasePhaseIn   = "phaseIn"
	PhaseActive    = "active"
	PhasePhaseOut  = "phaseOut"
	PhaseEndOfLife = "endOfLife"
)

// AttrProjectImpact is the relation attribute classifying a project's impact on an application.
const AttrProjectImpact = "projectImpact"

// Entity is one catalog record. Optional scalar fields are nil when the
// catalog did not report them; nil relation lists mean the relation was absent.
type Entity struct {
	Description           *string
	FunctionalSuitability *string
	TechnicalSuitability  *string
	Lifecycle             *Lifecycle
	ID                    string
	Type                  EntityType
	Name                  string
	Tags                  []Tag
	Projects              []Relation
	BusinessCapabilities  []Relation
	ITComponents          []Relation
	Subscriptions         []Subscription
}

// Tag is a classification attached to an entity under a tag group.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// Relation is a directed edge from an entity to another entity.
type Relation struct {
	Attributes map[string]string
	TargetID   string
}

// Attr returns a relation attribute, or "" when it is absent.
func (r Relation) Attr(key string) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[key]
}

// Subscription is a user's subscription to an entity.
type Subscription struct {
	Roles []string
}

// HasRole reports whether the subscription carries the named role.
func (s Subscription) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Phase is one lifecycle period. A zero StartDate means no date was recorded.
type Phase struct {
	StartDate time.Time
	Name      string
}

// Lifecycle is the ordered list of an entity's phases.
type Lifecycle struct {
	Phases []Phase
}

// Current returns the last phase whose start date is not after at.
func (l *Lifecycle) Current(at time.Time) *Phase {
	if l == nil {
		return nil
	}
	var current *Phase
	for i := range l.Phases {
		p := &l.Phases[i]
		if p.StartDate.IsZero() || p.StartDate.After(at) {
			continue
		}
		current = p
	}
	return current
}

// Find returns the first phase with the given name.
func (l *Lifecycle) Find(name string) *Phase {
	if l == nil {
		return nil
	}
	for i := range l.Phases {
		if l.Phases[i].Name == name {
			return &l.Phases[i]
		}
	}
	return nil
}

// CurrentPhase returns the entity's current lifecycle phase, or nil.
func (e *Entity) CurrentPhase(at time.Time) *Phase {
	if e == nil {
		return nil
	}
	return e.Lifecycle.Current(at)
}

// InPhase reports whether the entity's current phase is name.
func (e *Entity) InPhase(name string, at time.Time) bool {
	p := e.CurrentPhase(at)
	return p != nil && p.Name == name
}

// EntityRef is a lightweight reference used for drill-down lists.
type EntityRef struct {
	ID   string     `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Type EntityType `json:"type" yaml:"type"`
}

// Ref returns a reference to the entity.
func (e *Entity) Ref() EntityRef {
	return EntityRef{ID: e.ID, Name: e.Name, Type: e.Type}
}
