package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
	"github.com/jonesrussell/social-swarm/internal/orchestrator"
	"github.com/jonesrussell/social-swarm/internal/platform"
)

// fakeAdapter implements platform.Adapter with scripted publish results.
type fakeAdapter struct {
	name      string
	failWith  error
	delay     time.Duration
	mu        sync.Mutex
	published []models.ContentItem
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Constraint() platform.Constraint {
	return platform.Constraint{MaxTextLength: 280}
}

func (f *fakeAdapter) Optimize(item models.ContentItem) models.ContentItem {
	out := item.Clone()
	out.Text = "[" + f.name + "] " + out.Text
	return out
}

func (f *fakeAdapter) Publish(ctx context.Context, item models.ContentItem, clientID string) models.PublishResult {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.PublishResult{
				Platform: f.name,
				ClientID: clientID,
				Status:   models.PublishStatusFailed,
				Error:    ctx.Err().Error(),
			}
		}
	}
	f.mu.Lock()
	f.published = append(f.published, item)
	f.mu.Unlock()

	if f.failWith != nil {
		return models.PublishResult{
			Platform: f.name,
			ClientID: clientID,
			Status:   models.PublishStatusFailed,
			Error:    f.failWith.Error(),
		}
	}
	return models.PublishResult{
		Platform: f.name,
		ClientID: clientID,
		Status:   models.PublishStatusSuccess,
		PostID:   f.name + "_post",
		Text:     item.Text,
	}
}

func (f *fakeAdapter) FetchMetrics(_ context.Context, postID string) models.MetricsResult {
	return models.MetricsResult{Platform: f.name, PostID: postID}
}
func (f *fakeAdapter) Initialize(_ context.Context) error { return nil }
func (f *fakeAdapter) Shutdown() error                    { return nil }
func (f *fakeAdapter) Status() models.PlatformStatus      { return models.PlatformStatus{Connected: true} }

type fakeGenerator struct {
	item  models.ContentItem
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (models.ContentItem, error) {
	f.calls++
	return f.item, f.err
}

type recorder struct {
	mu             sync.Mutex
	memories       []*models.CampaignResult
	reports        []*models.CampaignResult
	saved          []*models.CampaignResult
	published      map[string]bool
	publishCtxErrs map[string]error
	campaigns      int
}

func newRecorder() *recorder {
	return &recorder{
		published:      map[string]bool{},
		publishCtxErrs: map[string]error{},
	}
}

func (r *recorder) StoreCampaignMemory(_ context.Context, result *models.CampaignResult) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories = append(r.memories, result)
	return "campaign_" + result.CampaignID, nil
}

func (r *recorder) ReportCampaignOutcome(_ context.Context, result *models.CampaignResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, result)
	return nil
}

func (r *recorder) SaveCampaign(_ context.Context, result *models.CampaignResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, result)
	return nil
}

func (r *recorder) RecordPublish(ctx context.Context, platformName string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published[platformName] = success
	r.publishCtxErrs[platformName] = ctx.Err()
}

func (r *recorder) RecordCampaign(_ context.Context, _ *models.CampaignResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns++
}

func testConfig() config.OrchestratorConfig {
	return config.OrchestratorConfig{
		PublishTimeout:  5 * time.Second,
		GenerateTimeout: 5 * time.Second,
		ReportTimeout:   5 * time.Second,
	}
}

func newOrchestrator(gen *fakeGenerator, rec *recorder, adapters ...platform.Adapter) *orchestrator.Orchestrator {
	registry := platform.NewRegistry(logger.NewNopLogger(), adapters...)
	return orchestrator.New(registry, gen, rec, rec, rec, rec, testConfig(), logger.NewNopLogger())
}

func TestExecute_PlatformFailureDoesNotAbortOthers(t *testing.T) {
	gen := &fakeGenerator{item: models.ContentItem{Text: "launch day", Hashtags: []string{"launch"}}}
	rec := newRecorder()
	orch := newOrchestrator(gen, rec,
		&fakeAdapter{name: "facebook"},
		&fakeAdapter{name: "twitter", failWith: errors.New("api down")},
		&fakeAdapter{name: "instagram", delay: 20 * time.Millisecond},
	)

	result, err := orch.Execute(context.Background(), models.CampaignRequest{
		ClientID:  "client-1",
		Objective: "grow audience",
		Brief:     "spring launch",
		Platforms: []string{"facebook", "twitter", "instagram"},
	})
	require.NoError(t, err)
	orch.Wait()

	assert.Equal(t, models.CampaignCompleted, result.Status)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results["facebook"].Succeeded())
	assert.True(t, result.Results["instagram"].Succeeded())
	assert.False(t, result.Results["twitter"].Succeeded())
	assert.Contains(t, result.Results["twitter"].Error, "api down")
	assert.Equal(t, 1, result.FailureCount())

	// Reporting ran once each.
	assert.Len(t, rec.memories, 1)
	assert.Len(t, rec.reports, 1)
	assert.Len(t, rec.saved, 1)
	assert.Equal(t, 1, rec.campaigns)
	assert.True(t, rec.published["facebook"])
	assert.False(t, rec.published["twitter"])
}

func TestExecute_PublishTimeoutIsCountedAsFailure(t *testing.T) {
	gen := &fakeGenerator{item: models.ContentItem{Text: "draft"}}
	rec := newRecorder()
	slow := &fakeAdapter{name: "facebook", delay: 500 * time.Millisecond}
	registry := platform.NewRegistry(logger.NewNopLogger(), slow)
	cfg := testConfig()
	cfg.PublishTimeout = 10 * time.Millisecond
	orch := orchestrator.New(registry, gen, rec, rec, rec, rec, cfg, logger.NewNopLogger())

	result, err := orch.Execute(context.Background(), models.CampaignRequest{
		ClientID:  "client-1",
		Objective: "objective",
		Brief:     "brief",
		Platforms: []string{"facebook"},
	})
	require.NoError(t, err)
	orch.Wait()

	require.False(t, result.Results["facebook"].Succeeded())

	// The timed-out publish still reaches the tracker, and with a live
	// context so the counter write can go through.
	require.Contains(t, rec.published, "facebook")
	assert.False(t, rec.published["facebook"])
	assert.NoError(t, rec.publishCtxErrs["facebook"])
}

func TestExecute_ContentGeneratedOncePerCampaign(t *testing.T) {
	gen := &fakeGenerator{item: models.ContentItem{Text: "one draft"}}
	rec := newRecorder()
	fb := &fakeAdapter{name: "facebook"}
	tw := &fakeAdapter{name: "twitter"}
	orch := newOrchestrator(gen, rec, fb, tw)

	_, err := orch.Execute(context.Background(), models.CampaignRequest{
		ClientID:  "client-1",
		Objective: "objective",
		Brief:     "brief",
		Platforms: []string{"facebook", "twitter"},
	})
	require.NoError(t, err)
	orch.Wait()

	assert.Equal(t, 1, gen.calls)

	// Each adapter received its own optimized variant of the one draft.
	require.Len(t, fb.published, 1)
	require.Len(t, tw.published, 1)
	assert.Equal(t, "[facebook] one draft", fb.published[0].Text)
	assert.Equal(t, "[twitter] one draft", tw.published[0].Text)
}

func TestExecute_ValidationBeforeExternalCalls(t *testing.T) {
	testCases := []struct {
		name      string
		platforms []string
		wantErr   error
	}{
		{name: "empty platform list", platforms: nil, wantErr: models.ErrNoPlatforms},
		{name: "unknown platform", platforms: []string{"facebook", "myspace"}, wantErr: models.ErrUnknownPlatform},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{item: models.ContentItem{Text: "draft"}}
			rec := newRecorder()
			orch := newOrchestrator(gen, rec, &fakeAdapter{name: "facebook"})

			result, err := orch.Execute(context.Background(), models.CampaignRequest{
				ClientID:  "client-1",
				Objective: "objective",
				Brief:     "brief",
				Platforms: tc.platforms,
			})
			orch.Wait()

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, result)
			assert.Zero(t, gen.calls)
			assert.Empty(t, rec.memories)
		})
	}
}

func TestExecute_GenerationFailureIsFatal(t *testing.T) {
	gen := &fakeGenerator{err: models.ErrContentGeneration}
	rec := newRecorder()
	fb := &fakeAdapter{name: "facebook"}
	orch := newOrchestrator(gen, rec, fb)

	result, err := orch.Execute(context.Background(), models.CampaignRequest{
		ClientID:  "client-1",
		Objective: "objective",
		Brief:     "brief",
		Platforms: []string{"facebook"},
	})
	orch.Wait()

	assert.ErrorIs(t, err, models.ErrContentGeneration)
	assert.Nil(t, result)
	assert.Empty(t, fb.published)
	assert.Empty(t, rec.memories)
	assert.Empty(t, rec.saved)
}

func TestExecute_CancelledCampaignIsNotRemembered(t *testing.T) {
	gen := &fakeGenerator{item: models.ContentItem{Text: "draft"}}
	rec := newRecorder()
	orch := newOrchestrator(gen, rec, &fakeAdapter{name: "facebook"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := orch.Execute(ctx, models.CampaignRequest{
		ClientID:  "client-1",
		Objective: "objective",
		Brief:     "brief",
		Platforms: []string{"facebook"},
	})
	orch.Wait()

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.NotEqual(t, models.CampaignCompleted, result.Status)
	assert.Empty(t, rec.memories)
	assert.Empty(t, rec.reports)
}

func TestExecute_ReusesRequestedCampaignID(t *testing.T) {
	gen := &fakeGenerator{item: models.ContentItem{Text: "draft"}}
	rec := newRecorder()
	orch := newOrchestrator(gen, rec, &fakeAdapter{name: "facebook"})

	result, err := orch.Execute(context.Background(), models.CampaignRequest{
		ClientID:   "client-1",
		Objective:  "objective",
		Brief:      "brief",
		Platforms:  []string{"facebook"},
		CampaignID: "cmp-fixed",
	})
	require.NoError(t, err)
	orch.Wait()

	assert.Equal(t, "cmp-fixed", result.CampaignID)
	require.Len(t, rec.memories, 1)
	assert.Equal(t, "cmp-fixed", rec.memories[0].CampaignID)
}
