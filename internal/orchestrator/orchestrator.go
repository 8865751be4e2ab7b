// Package orchestrator runs a campaign end to end: one content generation
// pass, a concurrent fan-out to every target platform, then asynchronous
// memory and CRM reporting.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/content"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
	"github.com/jonesrussell/social-swarm/internal/platform"
)

// MemoryWriter records campaign outcomes for later retrieval.
type MemoryWriter interface {
	StoreCampaignMemory(ctx context.Context, result *models.CampaignResult) (string, error)
}

// CRMReporter pushes campaign outcomes into the CRM.
type CRMReporter interface {
	ReportCampaignOutcome(ctx context.Context, result *models.CampaignResult) error
}

// Repository persists campaign results for the API surface.
type Repository interface {
	SaveCampaign(ctx context.Context, result *models.CampaignResult) error
}

// Tracker records publish counters and campaign history for analytics.
type Tracker interface {
	RecordPublish(ctx context.Context, platform string, success bool)
	RecordCampaign(ctx context.Context, result *models.CampaignResult)
}

// Orchestrator coordinates one campaign across all configured platforms.
// Content is generated once; per-platform publishing runs concurrently and
// a single platform failure never aborts the others.
type Orchestrator struct {
	registry  *platform.Registry
	generator content.Generator
	memory    MemoryWriter
	crm       CRMReporter
	repo      Repository
	tracker   Tracker
	cfg       config.OrchestratorConfig
	logger    logger.Logger
	tracer    trace.Tracer

	// reporting tracks the fire-and-forget goroutines so shutdown and
	// tests can wait for them.
	reporting sync.WaitGroup
}

// New creates an orchestrator. MemoryWriter, CRMReporter, Repository and
// Tracker may be nil, in which case that reporting step is skipped.
func New(
	registry *platform.Registry,
	generator content.Generator,
	memory MemoryWriter,
	crm CRMReporter,
	repo Repository,
	tracker Tracker,
	cfg config.OrchestratorConfig,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry:  registry,
		generator: generator,
		memory:    memory,
		crm:       crm,
		repo:      repo,
		tracker:   tracker,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer("orchestrator"),
	}
}

// Execute runs the campaign described by req. Validation and content
// generation failures are fatal and return an error with no partial
// results; individual platform failures are captured in the result set
// instead. Reporting (memory, CRM, persistence) happens asynchronously
// after the result is final.
func (o *Orchestrator) Execute(ctx context.Context, req models.CampaignRequest) (*models.CampaignResult, error) {
	adapters, err := o.resolveAdapters(req.Platforms)
	if err != nil {
		return nil, err
	}

	campaignID := req.CampaignID
	if campaignID == "" {
		campaignID = uuid.NewString()
	}

	ctx, span := o.tracer.Start(ctx, "campaign.execute",
		trace.WithAttributes(
			attribute.String("campaign.id", campaignID),
			attribute.String("campaign.client_id", req.ClientID),
			attribute.StringSlice("campaign.platforms", req.Platforms),
		),
	)
	defer span.End()

	now := time.Now()
	result := &models.CampaignResult{
		CampaignID: campaignID,
		ClientID:   req.ClientID,
		Objective:  req.Objective,
		Brief:      req.Brief,
		Platforms:  req.Platforms,
		Results:    make(map[string]models.PublishResult, len(req.Platforms)),
		Status:     models.CampaignStarted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	o.logger.Info("Campaign started",
		logger.String("campaign_id", campaignID),
		logger.String("client_id", req.ClientID),
		logger.Strings("platforms", req.Platforms),
	)

	item, err := o.generate(ctx, req)
	if err != nil {
		o.logger.Error("Content generation failed, campaign aborted",
			logger.String("campaign_id", campaignID),
			logger.Error(err),
		)
		return nil, err
	}
	result.Content = item
	result.Advance(models.CampaignContentGenerated)

	o.publishAll(ctx, adapters, item, result)

	if ctx.Err() != nil {
		// A cancelled campaign is not reported or remembered.
		return result, fmt.Errorf("campaign %s cancelled: %w", campaignID, ctx.Err())
	}
	result.Advance(models.CampaignCompleted)

	o.logger.Info("Campaign completed",
		logger.String("campaign_id", campaignID),
		logger.Int("platforms", len(req.Platforms)),
		logger.Int("failures", result.FailureCount()),
	)

	o.reporting.Add(1)
	go o.report(context.WithoutCancel(ctx), result)

	return result, nil
}

// Wait blocks until all in-flight reporting goroutines finish.
func (o *Orchestrator) Wait() {
	o.reporting.Wait()
}

// resolveAdapters validates the platform list before any external call.
func (o *Orchestrator) resolveAdapters(platforms []string) ([]platform.Adapter, error) {
	if len(platforms) == 0 {
		return nil, models.ErrNoPlatforms
	}
	adapters := make([]platform.Adapter, 0, len(platforms))
	for _, name := range platforms {
		a, err := o.registry.Get(name)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func (o *Orchestrator) generate(ctx context.Context, req models.CampaignRequest) (models.ContentItem, error) {
	ctx, span := o.tracer.Start(ctx, "campaign.generate")
	defer span.End()

	if o.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.GenerateTimeout)
		defer cancel()
	}
	return o.generator.Generate(ctx, req.Brief, req.Objective)
}

// publishAll optimizes and publishes concurrently, one goroutine per
// platform, and blocks until every result slot is filled.
func (o *Orchestrator) publishAll(ctx context.Context, adapters []platform.Adapter, item models.ContentItem, result *models.CampaignResult) {
	slots := make([]models.PublishResult, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter platform.Adapter) {
			defer wg.Done()
			slots[i] = o.publishOne(ctx, adapter, item, result.ClientID)
		}(i, adapter)
	}
	wg.Wait()

	for i, adapter := range adapters {
		result.Results[adapter.Name()] = slots[i]
	}
}

func (o *Orchestrator) publishOne(ctx context.Context, adapter platform.Adapter, item models.ContentItem, clientID string) models.PublishResult {
	name := adapter.Name()
	ctx, span := o.tracer.Start(ctx, "campaign.publish",
		trace.WithAttributes(attribute.String("platform", name)),
	)
	defer span.End()

	if o.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.PublishTimeout)
		defer cancel()
	}

	optimized := adapter.Optimize(item)
	res := adapter.Publish(ctx, optimized, clientID)

	// The publish context may already be done when the publish timed
	// out; the counter increment must still go through.
	if o.tracker != nil {
		o.tracker.RecordPublish(context.WithoutCancel(ctx), name, res.Succeeded())
	}
	if res.Succeeded() {
		o.logger.Info("Platform publish succeeded",
			logger.String("platform", name),
			logger.String("post_id", res.PostID),
		)
	} else {
		o.logger.Warn("Platform publish failed",
			logger.String("platform", name),
			logger.String("error", res.Error),
		)
	}
	return res
}

// report runs the off-critical-path steps: memory, CRM, persistence and
// analytics. Each step fails independently and only logs.
func (o *Orchestrator) report(ctx context.Context, result *models.CampaignResult) {
	defer o.reporting.Done()

	if o.cfg.ReportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.ReportTimeout)
		defer cancel()
	}

	if o.repo != nil {
		if err := o.repo.SaveCampaign(ctx, result); err != nil {
			o.logger.Error("Failed to persist campaign",
				logger.String("campaign_id", result.CampaignID),
				logger.Error(err),
			)
		}
	}
	if o.memory != nil {
		if _, err := o.memory.StoreCampaignMemory(ctx, result); err != nil {
			o.logger.Error("Failed to store campaign memory",
				logger.String("campaign_id", result.CampaignID),
				logger.Error(err),
			)
		}
	}
	if o.crm != nil {
		if err := o.crm.ReportCampaignOutcome(ctx, result); err != nil {
			o.logger.Warn("Failed to report campaign to CRM",
				logger.String("campaign_id", result.CampaignID),
				logger.Error(err),
			)
		}
	}
	if o.tracker != nil {
		o.tracker.RecordCampaign(ctx, result)
	}
}
