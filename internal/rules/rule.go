// Package rules defines the ordered data-quality policy applied to applications.
//
// A policy is a fixed sequence of rules. Leaf rules test one entity at a
// time; aggregate rules reduce the results of the rules declared before them
// in the same group. Declaration order is evaluation order.
package rules

import (
	"fmt"
	"time"

	"github.com/joshsymonds/appquality/internal/models"
)

// Catalog is the read-only entity lookup rules evaluate against.
type Catalog interface {
	Lookup(id string) (*models.Entity, bool)
	EntityHasTag(e *models.Entity, tagName string) bool
	FirstTagFromGroup(e *models.Entity, group string) (models.Tag, bool)
}

// Env is the evaluation environment shared by every rule in one run.
type Env struct {
	Catalog Catalog
	// Now is the policy's frozen clock; current lifecycle phases are resolved against it.
	Now time.Time
	// AppMapResolved is true when the "AppMap" tag id was found in the taxonomy
	// and the capability query was already filtered by it.
	AppMapResolved bool
}

// Predicate tests one entity.
type Predicate func(env *Env, e *models.Entity) bool

// Subset selects which applications of a group a leaf rule is evaluated over.
type Subset int

// Subsets a leaf rule may require.
const (
	SubsetAll Subset = iota
	SubsetActive
	SubsetActiveCOTS
)

// String returns the subset's display name.
func (s Subset) String() string {
	switch s {
	case SubsetAll:
		return "all"
	case SubsetActive:
		return "active"
	case SubsetActiveCOTS:
		return "active+cots"
	default:
		return fmt.Sprintf("subset(%d)", int(s))
	}
}

// Includes reports whether e belongs to the subset.
func (s Subset) Includes(env *Env, e *models.Entity) bool {
	switch s {
	case SubsetAll:
		return true
	case SubsetActive:
		return e.InPhase(models.PhaseActive, env.Now)
	case SubsetActiveCOTS:
		return e.InPhase(models.PhaseActive, env.Now) && env.Catalog.EntityHasTag(e, TagCOTSPackage)
	default:
		return false
	}
}

// Rule is either a *LeafRule or an *AggregateRule.
type Rule interface {
	RuleName() string
	isRule()
}

// LeafRule is evaluated per entity. Entities failing AppliesTo are neither
// compliant nor non-compliant.
type LeafRule struct {
	// AppliesTo defaults to always true when nil.
	AppliesTo Predicate
	Compute   Predicate
	Name      string
	Subset    Subset
}

// RuleName returns the rule's unique name.
func (r *LeafRule) RuleName() string { return r.Name }

func (*LeafRule) isRule() {}

// Applies runs the applicability predicate.
func (r *LeafRule) Applies(env *Env, e *models.Entity) bool {
	if r.AppliesTo == nil {
		return true
	}
	return r.AppliesTo(env, e)
}

// Tally is a compliant / non-compliant count pair.
type Tally struct {
	Compliant    int
	NonCompliant int
}

// Total returns Compliant + NonCompliant.
func (t Tally) Total() int {
	return t.Compliant + t.NonCompliant
}

// Reducer folds earlier results of a group into a single tally.
type Reducer func(view ResultView) Tally

// AggregateRule reduces the results of the leaf rules declared before it.
type AggregateRule struct {
	Reduce Reducer
	Name   string
}

// RuleName returns the rule's unique name.
func (r *AggregateRule) RuleName() string { return r.Name }

func (*AggregateRule) isRule() {}

// SumAll adds up compliant and non-compliant counts of every recorded rule.
func SumAll(view ResultView) Tally {
	var t Tally
	for _, name := range view.Names() {
		b, _ := view.Bucket(name)
		bt := b.Tally()
		t.Compliant += bt.Compliant
		t.NonCompliant += bt.NonCompliant
	}
	return t
}
