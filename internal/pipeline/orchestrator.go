// Package pipeline runs the two-query report flow: fetch the taxonomy,
// resolve the filter tags, fetch the entities, evaluate and assemble.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joshsymonds/appquality/internal/catalog"
	"github.com/joshsymonds/appquality/internal/config"
	"github.com/joshsymonds/appquality/internal/engine"
	"github.com/joshsymonds/appquality/internal/index"
	"github.com/joshsymonds/appquality/internal/market"
	"github.com/joshsymonds/appquality/internal/report"
	"github.com/joshsymonds/appquality/internal/rules"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// Orchestrator builds one report per Run. Runs share nothing but the policy.
type Orchestrator struct {
	logger   logger.Logger
	source   catalog.Source
	labeler  market.Labeler
	policy   *rules.Policy
	taxonomy config.TaxonomyConfig
	options  report.Options
}

// NewOrchestrator creates a report orchestrator.
func NewOrchestrator(source catalog.Source, labeler market.Labeler, policy *rules.Policy, cfg *config.Config) *Orchestrator {
	return NewOrchestratorWithLogger(source, labeler, policy, cfg, logger.GetGlobalLogger())
}

// NewOrchestratorWithLogger creates a report orchestrator with a custom logger.
func NewOrchestratorWithLogger(source catalog.Source, labeler market.Labeler, policy *rules.Policy, cfg *config.Config, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		logger:   log,
		source:   source,
		labeler:  labeler,
		policy:   policy,
		taxonomy: cfg.Taxonomy,
		options: report.Options{
			FactSheetBaseURL: cfg.Report.FactSheetBaseURL,
			AllowEditing:     cfg.Report.AllowEditing,
		},
	}
}

// resolvedTags holds the taxonomy ids the entity query and filter use. An
// empty id means the tag was not found.
type resolvedTags struct {
	application string
	it          string
	appMap      string
}

// Run fetches the catalog and builds a report. The taxonomy query always
// completes before the entity query is issued, and the index is complete
// before evaluation starts. Any fetch failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*report.Report, error) {
	runID := uuid.NewString()
	log := o.logger.With("run_id", runID)

	idx := index.NewWithLogger(log)

	taxonomyQuery := catalog.TaxonomyQuery()
	taxonomy, err := o.source.Query(ctx, taxonomyQuery)
	if err != nil {
		return nil, fmt.Errorf("taxonomy query: %w", err)
	}
	if err := taxonomyQuery.CheckComplete(taxonomy); err != nil {
		return nil, fmt.Errorf("taxonomy query: %w", err)
	}
	idx.Ingest(taxonomy)
	log.Debug("Ingested taxonomy", "source", o.source.Name(), "tag_groups", len(idx.TagGroups()))

	tags := o.resolve(idx, log)

	entityQuery := catalog.EntityQuery(catalog.EntityFilter{
		ApplicationGroup: o.taxonomy.Application.Group,
		ApplicationTagID: tags.application,
		ITGroup:          o.taxonomy.IT.Group,
		ITTagID:          tags.it,
		AppMapGroup:      o.taxonomy.AppMap.Group,
		AppMapTagID:      tags.appMap,
	})
	entities, err := o.source.Query(ctx, entityQuery)
	if err != nil {
		return nil, fmt.Errorf("entity query: %w", err)
	}
	if err := entityQuery.CheckComplete(entities); err != nil {
		return nil, fmt.Errorf("entity query: %w", err)
	}
	idx.Ingest(entities)
	log.Debug("Ingested entities", "source", o.source.Name(), "entities", idx.Len())

	result, err := engine.NewWithLogger(o.policy, o.labeler, log).Evaluate(idx, engine.Filter{
		ApplicationTagID:   tags.application,
		ApplicationTagName: o.taxonomy.Application.Tag,
		ITTagID:            tags.it,
		ITTagName:          o.taxonomy.IT.Tag,
		AppMapResolved:     tags.appMap != "",
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating rules: %w", err)
	}

	rep := report.Assemble(result, o.options)
	rep.RunID = runID

	log.Info("Built report",
		"applications", len(idx.Applications()),
		"groups", len(rep.Groups),
		"rows", len(rep.Rows))

	return rep, nil
}

func (o *Orchestrator) resolve(idx *index.Index, log logger.Logger) resolvedTags {
	lookup := func(ref config.TagRef) string {
		id, ok := idx.TagGroupFirstID(ref.Group, ref.Tag)
		if !ok {
			log.Warn("Tag not found in taxonomy, matching by name", "tag_group", ref.Group, "tag", ref.Tag)
		}
		return id
	}

	return resolvedTags{
		application: lookup(o.taxonomy.Application),
		it:          lookup(o.taxonomy.IT),
		appMap:      lookup(o.taxonomy.AppMap),
	}
}
