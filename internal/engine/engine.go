// Package engine filters applications, partitions them into groups and
// scores every group against a rule policy.
package engine

import (
	"fmt"
	"time"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/internal/rules"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// Catalog is the read-only index the engine evaluates.
type Catalog interface {
	rules.Catalog
	Applications() []*models.Entity
	EntityHasTagID(e *models.Entity, tagID string) bool
}

// Labeler derives the group label of an application.
type Labeler interface {
	Label(e *models.Entity) (string, bool)
}

// Filter selects the applications that are scored. Each test matches by tag
// id when the id was resolved from the taxonomy and by literal tag name otherwise.
type Filter struct {
	ApplicationTagID   string
	ApplicationTagName string
	ITTagID            string
	ITTagName          string
	AppMapResolved     bool
}

// Engine evaluates a policy per group.
type Engine struct {
	logger  logger.Logger
	policy  *rules.Policy
	labeler Labeler
}

// New creates an engine using the global logger.
func New(policy *rules.Policy, labeler Labeler) *Engine {
	return NewWithLogger(policy, labeler, logger.GetGlobalLogger())
}

// NewWithLogger creates an engine with a custom logger.
func NewWithLogger(policy *rules.Policy, labeler Labeler, log logger.Logger) *Engine {
	return &Engine{
		logger:  log,
		policy:  policy,
		labeler: labeler,
	}
}

// Group is a set of applications sharing a label. Handles are assigned in
// first-seen order starting at 0.
type Group struct {
	Label        string
	Applications []*models.Entity
	Handle       int
}

// Row is the score of one rule in one group.
type Row struct {
	Rule              string
	Compliant         []*models.Entity
	NonCompliant      []*models.Entity
	Group             int
	CompliantCount    int
	NonCompliantCount int
	Percentage        int
	Aggregate         bool
}

// Result is the full evaluation output, ordered group then rule.
type Result struct {
	Now    time.Time
	Groups []Group
	Rows   []Row
}

// Labels maps group handles to labels.
func (r *Result) Labels() map[int]string {
	labels := make(map[int]string, len(r.Groups))
	for _, g := range r.Groups {
		labels[g.Handle] = g.Label
	}
	return labels
}

// Evaluate scores every group of the catalog's applications.
func (e *Engine) Evaluate(cat Catalog, f Filter) (*Result, error) {
	if e.policy == nil {
		return nil, fmt.Errorf("engine has no rule policy")
	}
	if e.labeler == nil {
		return nil, fmt.Errorf("engine has no group labeler")
	}

	env := &rules.Env{
		Catalog:        cat,
		Now:            e.policy.Now(),
		AppMapResolved: f.AppMapResolved,
	}

	groups := e.partition(cat, f)
	result := &Result{
		Now:    env.Now,
		Groups: groups,
		Rows:   make([]Row, 0, len(groups)*e.policy.Len()),
	}

	for _, g := range groups {
		rows, err := e.evaluateGroup(env, g)
		if err != nil {
			return nil, fmt.Errorf("evaluating group %q: %w", g.Label, err)
		}
		result.Rows = append(result.Rows, rows...)
	}

	e.logger.Info("Evaluated rule policy",
		"groups", len(groups),
		"rules", e.policy.Len(),
		"rows", len(result.Rows))

	return result, nil
}

// partition applies the application filter and groups survivors by label.
// Applications without a label are dropped.
func (e *Engine) partition(cat Catalog, f Filter) []Group {
	var groups []Group
	handles := make(map[string]int)
	dropped := 0

	for _, app := range cat.Applications() {
		if !matchesTag(cat, app, f.ApplicationTagID, f.ApplicationTagName) {
			continue
		}
		if !matchesTag(cat, app, f.ITTagID, f.ITTagName) {
			continue
		}

		label, ok := e.labeler.Label(app)
		if !ok || label == "" {
			dropped++
			continue
		}

		h, seen := handles[label]
		if !seen {
			h = len(groups)
			handles[label] = h
			groups = append(groups, Group{Handle: h, Label: label})
		}
		groups[h].Applications = append(groups[h].Applications, app)
	}

	if dropped > 0 {
		e.logger.Debug("Dropped applications without group label", "applications", dropped)
	}
	return groups
}

func matchesTag(cat Catalog, app *models.Entity, tagID, tagName string) bool {
	if tagID != "" {
		return cat.EntityHasTagID(app, tagID)
	}
	if tagName == "" {
		return true
	}
	return cat.EntityHasTag(app, tagName)
}

func (e *Engine) evaluateGroup(env *rules.Env, g Group) ([]Row, error) {
	log := e.logger.With("group", g.Label)

	subsets := map[rules.Subset][]*models.Entity{}
	for _, s := range []rules.Subset{rules.SubsetAll, rules.SubsetActive, rules.SubsetActiveCOTS} {
		for _, app := range g.Applications {
			if s.Includes(env, app) {
				subsets[s] = append(subsets[s], app)
			}
		}
	}

	acc := rules.NewAccumulator()
	rows := make([]Row, 0, e.policy.Len())

	for _, rule := range e.policy.Rules() {
		row := Row{Group: g.Handle, Rule: rule.RuleName()}
		var tally rules.Tally

		switch r := rule.(type) {
		case *rules.LeafRule:
			bucket := evaluateLeaf(env, r, subsets[r.Subset])
			acc.Record(r.Name, bucket)
			row.Compliant = bucket.Compliant
			row.NonCompliant = bucket.NonCompliant
			tally = bucket.Tally()
		case *rules.AggregateRule:
			tally = r.Reduce(acc.View())
			row.Aggregate = true
			row.Compliant = []*models.Entity{}
			row.NonCompliant = []*models.Entity{}
		default:
			return nil, fmt.Errorf("rule %q has unsupported type %T", rule.RuleName(), rule)
		}

		row.CompliantCount = tally.Compliant
		row.NonCompliantCount = tally.NonCompliant
		row.Percentage = Percentage(row.CompliantCount, row.NonCompliantCount)
		log.Debug("Evaluated rule",
			"rule", row.Rule,
			"compliant", row.CompliantCount,
			"non_compliant", row.NonCompliantCount,
			"applicable", tally.Total(),
			"percentage", row.Percentage)
		rows = append(rows, row)
	}

	return rows, nil
}

// evaluateLeaf buckets the applicable entities; inapplicable ones are skipped.
func evaluateLeaf(env *rules.Env, r *rules.LeafRule, apps []*models.Entity) rules.Bucket {
	bucket := rules.Bucket{
		Compliant:    []*models.Entity{},
		NonCompliant: []*models.Entity{},
	}
	for _, app := range apps {
		if !r.Applies(env, app) {
			continue
		}
		if r.Compute(env, app) {
			bucket.Compliant = append(bucket.Compliant, app)
		} else {
			bucket.NonCompliant = append(bucket.NonCompliant, app)
		}
	}
	return bucket
}

// Percentage returns the integer compliance percentage. No evidence either
// way counts as fully compliant.
func Percentage(compliant, nonCompliant int) int {
	sum := compliant + nonCompliant
	switch {
	case sum == 0:
		return 100
	case compliant > 0 && nonCompliant == 0:
		return 100
	case compliant == 0 && nonCompliant > 0:
		return 0
	default:
		return compliant * 100 / sum
	}
}
