package crm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/social-swarm/internal/config"
	"github.com/jonesrussell/social-swarm/internal/crm"
	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *crm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := crm.NewClient(config.CRMConfig{
		BaseURL:    server.URL,
		APIKey:     "ghl-key",
		LocationID: "loc-1",
		PipelineID: "pipe-1",
		Timeout:    5 * time.Second,
	}, logger.NewNopLogger())
	return client
}

func campaignResult(status models.CampaignStatus, failures int) *models.CampaignResult {
	results := map[string]models.PublishResult{
		"facebook": {Platform: "facebook", Status: models.PublishStatusSuccess, PostID: "fb1"},
		"twitter":  {Platform: "twitter", Status: models.PublishStatusSuccess, PostID: "tw1"},
	}
	if failures > 0 {
		results["twitter"] = models.PublishResult{Platform: "twitter", Status: models.PublishStatusFailed, Error: "boom"}
	}
	return &models.CampaignResult{
		CampaignID: "cmp-1",
		ClientID:   "client-1",
		Objective:  "grow audience",
		Platforms:  []string{"facebook", "twitter"},
		Results:    results,
		Status:     status,
	}
}

func TestClient_InitializeFailureIsNonFatal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))

	require.NoError(t, client.Initialize(context.Background()))
	assert.False(t, client.Connected())

	// Reporting degrades to errors instead of blocking campaigns.
	err := client.ReportCampaignOutcome(context.Background(), campaignResult(models.CampaignCompleted, 0))
	assert.ErrorIs(t, err, models.ErrNotInitialized)
}

func TestClient_ReportCampaignOutcome(t *testing.T) {
	testCases := []struct {
		name         string
		result       *models.CampaignResult
		wantStatus   string
		wantFailures float64
	}{
		{
			name:       "fully successful campaign is won",
			result:     campaignResult(models.CampaignCompleted, 0),
			wantStatus: "won",
		},
		{
			name:         "completed campaign with platform failures is still won",
			result:       campaignResult(models.CampaignCompleted, 1),
			wantStatus:   "won",
			wantFailures: 1,
		},
		{
			name:       "unfinished campaign stays open",
			result:     campaignResult(models.CampaignContentGenerated, 0),
			wantStatus: "open",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotStatus string
			var gotFailures float64
			mux := http.NewServeMux()
			mux.HandleFunc("/locations/loc-1", func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"id":"loc-1"}`)
			})
			mux.HandleFunc("/opportunities/", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer ghl-key", r.Header.Get("Authorization"))
				var payload struct {
					PipelineID   string `json:"pipelineId"`
					Status       string `json:"status"`
					CustomFields []struct {
						Key   string `json:"key"`
						Value any    `json:"value"`
					} `json:"customFields"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "pipe-1", payload.PipelineID)
				gotStatus = payload.Status
				for _, field := range payload.CustomFields {
					if field.Key == "failed_platforms" {
						gotFailures = field.Value.(float64)
					}
				}
				fmt.Fprint(w, `{"id":"opp-1"}`)
			})

			client := newTestClient(t, mux)
			ctx := context.Background()
			require.NoError(t, client.Initialize(ctx))

			require.NoError(t, client.ReportCampaignOutcome(ctx, tc.result))
			assert.Equal(t, tc.wantStatus, gotStatus)
			assert.Equal(t, tc.wantFailures, gotFailures)
		})
	}
}

func TestClient_CreateLeadFromEngagement(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations/loc-1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"loc-1"}`)
	})
	mux.HandleFunc("/contacts/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Name  string   `json:"name"`
			Email string   `json:"email"`
			Tags  []string `json:"tags"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "", payload.Email)
		assert.Equal(t, []string{"social-media-lead", "instagram"}, payload.Tags)
		fmt.Fprint(w, `{"contact":{"id":"contact-9"}}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()
	require.NoError(t, client.Initialize(ctx))

	contactID, err := client.CreateLeadFromEngagement(ctx, models.EngagementEvent{
		Platform: "instagram",
		Type:     "comment",
		PostID:   "ig_1",
		Name:     "Jordan",
	})
	require.NoError(t, err)
	assert.Equal(t, "contact-9", contactID)
}

func TestClient_GetContact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations/loc-1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"loc-1"}`)
	})
	mux.HandleFunc("/contacts/contact-9", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"contact":{"id":"contact-9","name":"Jordan","tags":["social-media-lead"]}}`)
	})
	mux.HandleFunc("/contacts/ghost", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"contact":{}}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()
	require.NoError(t, client.Initialize(ctx))

	contact, err := client.GetContact(ctx, "contact-9")
	require.NoError(t, err)
	assert.Equal(t, "Jordan", contact.Name)

	_, err = client.GetContact(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClient_TriggerAutomation(t *testing.T) {
	var triggered string
	mux := http.NewServeMux()
	mux.HandleFunc("/locations/loc-1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"loc-1"}`)
	})
	mux.HandleFunc("/contacts/contact-9/workflow/wf-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		triggered = r.URL.Path
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{}`)
	})

	client := newTestClient(t, mux)
	ctx := context.Background()
	require.NoError(t, client.Initialize(ctx))

	require.NoError(t, client.TriggerAutomation(ctx, "wf-1", "contact-9"))
	assert.Equal(t, "/contacts/contact-9/workflow/wf-1", triggered)
}
