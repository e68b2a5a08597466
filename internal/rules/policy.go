package rules

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/joshsymonds/appquality/internal/models"
)

// Tag, tag group and role names the reference policy tests for.
const (
	TagCOTSPackage      = "COTS Package"
	TagGroupCOTSPackage = "COTS Package"
	TagGroupCostCentre  = "CostCentre"
	TagAppMap           = "AppMap"
	TagPlaceholder      = "Placeholder"
	RoleITOwner         = "IT Owner"
	RoleSPOC            = "SPOC"
	ImpactSunsets       = "sunsets"
)

// Rule names of the reference policy, in evaluation order.
const (
	RuleAnyProjects        = "Adding applications having any projects"
	RuleRetiringProject    = "Retiring applications having project (w/ impact 'Sunsets' or decommissioning)"
	RuleCOBRA              = "has COBRA (only active, exactly one)"
	RuleCOTSTagGroup       = "has COTS Package TagGroup assigned (only active)"
	RuleSoftwareProduct    = "has Software Product (only active, w/ Tag 'COTS Package')"
	RuleNoPlaceholder      = "has Software Product, but no Placeholder (only active, w/ Tag 'COTS Package')"
	RuleDescription        = "has Description (only active)"
	RuleLifecycle          = "has Lifecycle"
	RuleITOwner            = "has IT Owner (only active)"
	RuleSPOC               = "has SPOC (only active)"
	RuleBusinessValue      = "has Business Value (only active)"
	RuleTechnicalCondition = "has Technical Condition (only active)"
	RuleCostCentre         = "has Cost Centre (only active)"
	RuleOverallQuality     = "Overall Quality"
)

const (
	productionPhase   = models.PhaseActive
	retirementPhase   = models.PhaseEndOfLife
	recentWindowYears = 1
)

var decommissioningRE = regexp.MustCompile(`(?i)decommissioning`)

// Policy is an immutable, ordered rule set with the clock snapshot its
// time-windowed rules were built against.
type Policy struct {
	now    time.Time
	cutoff time.Time
	rules  []Rule
}

// New builds a policy from rules. Names must be unique and every leaf rule
// needs a Compute predicate and every aggregate a reducer.
func New(now time.Time, rules ...Rule) (*Policy, error) {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		name := r.RuleName()
		if name == "" {
			return nil, fmt.Errorf("rule %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate rule name %q", name)
		}
		seen[name] = true

		switch r := r.(type) {
		case *LeafRule:
			if r.Compute == nil {
				return nil, fmt.Errorf("leaf rule %q has no compute predicate", name)
			}
		case *AggregateRule:
			if r.Reduce == nil {
				return nil, fmt.Errorf("aggregate rule %q has no reducer", name)
			}
		default:
			return nil, fmt.Errorf("rule %q has unsupported type %T", name, r)
		}
	}

	return &Policy{
		now:    now,
		cutoff: now.AddDate(-recentWindowYears, 0, 0),
		rules:  append([]Rule(nil), rules...),
	}, nil
}

// Rules returns the rules in evaluation order.
func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Len returns the number of rules.
func (p *Policy) Len() int {
	return len(p.rules)
}

// Now returns the clock snapshot taken when the policy was built.
func (p *Policy) Now() time.Time {
	return p.now
}

// Cutoff returns the start of the "recent" window: one year before Now.
func (p *Policy) Cutoff() time.Time {
	return p.cutoff
}

var defaultPolicy = sync.OnceValue(func() *Policy {
	return Reference(time.Now())
})

// Default returns the process-wide reference policy. Its clock is read once,
// on first use, and never refreshed: a long-running process keeps scoring
// against the same window even across a date boundary.
func Default() *Policy {
	return defaultPolicy()
}

// Reference builds the reference policy against the given clock. Both
// time-windowed rules share the same cutoff.
func Reference(now time.Time) *Policy {
	cutoff := now.AddDate(-recentWindowYears, 0, 0)

	recentlyProductive := func(env *Env, e *models.Entity) bool {
		current := e.CurrentPhase(env.Now)
		return current != nil && current.Name == productionPhase && current.StartDate.After(cutoff)
	}
	recentlyRetiring := func(_ *Env, e *models.Entity) bool {
		p := e.Lifecycle.Find(retirementPhase)
		return p != nil && !p.StartDate.IsZero() && p.StartDate.After(cutoff)
	}
	active := func(env *Env, e *models.Entity) bool {
		return e.InPhase(models.PhaseActive, env.Now)
	}
	activeCOTS := func(env *Env, e *models.Entity) bool {
		return active(env, e) && env.Catalog.EntityHasTag(e, TagCOTSPackage)
	}

	p, err := New(now,
		&LeafRule{
			Name:      RuleAnyProjects,
			Subset:    SubsetAll,
			AppliesTo: recentlyProductive,
			Compute: func(_ *Env, e *models.Entity) bool {
				return len(e.Projects) > 0
			},
		},
		&LeafRule{
			Name:      RuleRetiringProject,
			Subset:    SubsetAll,
			AppliesTo: recentlyRetiring,
			Compute: func(env *Env, e *models.Entity) bool {
				return len(e.Projects) > 0 && hasRetiringProject(env, e)
			},
		},
		&LeafRule{
			Name:      RuleCOBRA,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute: func(env *Env, e *models.Entity) bool {
				matches := 0
				for _, rel := range e.BusinessCapabilities {
					bc, ok := env.Catalog.Lookup(rel.TargetID)
					if !ok {
						continue
					}
					if env.AppMapResolved || env.Catalog.EntityHasTag(bc, TagAppMap) {
						matches++
					}
				}
				return matches == 1
			},
		},
		&LeafRule{
			Name:      RuleCOTSTagGroup,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute: func(env *Env, e *models.Entity) bool {
				_, ok := env.Catalog.FirstTagFromGroup(e, TagGroupCOTSPackage)
				return ok
			},
		},
		&LeafRule{
			Name:      RuleSoftwareProduct,
			Subset:    SubsetActiveCOTS,
			AppliesTo: activeCOTS,
			Compute: func(env *Env, e *models.Entity) bool {
				return firstKnownComponent(env, e) != nil
			},
		},
		&LeafRule{
			Name:   RuleNoPlaceholder,
			Subset: SubsetActiveCOTS,
			AppliesTo: func(env *Env, e *models.Entity) bool {
				return activeCOTS(env, e) && len(e.ITComponents) > 0
			},
			Compute: func(env *Env, e *models.Entity) bool {
				// no indexed component counts as compliant
				return !env.Catalog.EntityHasTag(firstKnownComponent(env, e), TagPlaceholder)
			},
		},
		&LeafRule{
			Name:      RuleDescription,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute: func(_ *Env, e *models.Entity) bool {
				return e.Description != nil
			},
		},
		&LeafRule{
			Name:   RuleLifecycle,
			Subset: SubsetAll,
			Compute: func(env *Env, e *models.Entity) bool {
				return e.CurrentPhase(env.Now) != nil
			},
		},
		&LeafRule{
			Name:      RuleITOwner,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute:   hasSubscriptionRole(RoleITOwner),
		},
		&LeafRule{
			Name:      RuleSPOC,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute:   hasSubscriptionRole(RoleSPOC),
		},
		&LeafRule{
			Name:      RuleBusinessValue,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute: func(_ *Env, e *models.Entity) bool {
				return e.FunctionalSuitability != nil
			},
		},
		&LeafRule{
			Name:      RuleTechnicalCondition,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute: func(_ *Env, e *models.Entity) bool {
				return e.TechnicalSuitability != nil
			},
		},
		&LeafRule{
			Name:      RuleCostCentre,
			Subset:    SubsetActive,
			AppliesTo: active,
			Compute: func(env *Env, e *models.Entity) bool {
				_, ok := env.Catalog.FirstTagFromGroup(e, TagGroupCostCentre)
				return ok
			},
		},
		&AggregateRule{
			Name:   RuleOverallQuality,
			Reduce: SumAll,
		},
	)
	if err != nil {
		panic(fmt.Sprintf("rules: reference policy is invalid: %v", err))
	}
	return p
}

// hasRetiringProject reports whether any related project sunsets the
// application or is named like a decommissioning project.
func hasRetiringProject(env *Env, e *models.Entity) bool {
	for _, rel := range e.Projects {
		if rel.Attr(models.AttrProjectImpact) == ImpactSunsets {
			return true
		}
		if project, ok := env.Catalog.Lookup(rel.TargetID); ok && decommissioningRE.MatchString(project.Name) {
			return true
		}
	}
	return false
}

func firstKnownComponent(env *Env, e *models.Entity) *models.Entity {
	for _, rel := range e.ITComponents {
		if c, ok := env.Catalog.Lookup(rel.TargetID); ok {
			return c
		}
	}
	return nil
}

func hasSubscriptionRole(role string) Predicate {
	return func(_ *Env, e *models.Entity) bool {
		for _, s := range e.Subscriptions {
			if s.HasRole(role) {
				return true
			}
		}
		return false
	}
}
