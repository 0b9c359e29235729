package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bindery/internal/config"
	"bindery/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUpdatesAvailable(context.Background(), []string{"gopls"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		publish        func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "updates available",
			publish: func(svc notifications.Service) error {
				return svc.NotifyUpdatesAvailable(context.Background(), []string{"gopls", "dlv"})
			},
			expectTitle:   "Bindery - Updates Available",
			expectMessage: "2 tool(s) have updates: gopls, dlv",
			expectTags:    "bindery,updates,found",
		},
		{
			name: "batch completed clean",
			publish: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), "install", 3, 0, 42*time.Second)
			},
			expectTitle:   "Bindery - Batch Complete",
			expectMessage: "install batch complete: 3 tool(s) in 42s",
			expectTags:    "bindery,batch,completed",
		},
		{
			name: "batch completed with failures",
			publish: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), "update", 1, 2, 90*time.Second)
			},
			expectTitle:   "Bindery - Batch Complete (with errors)",
			expectMessage: "update batch complete: 1 succeeded, 2 failed in 1m30s",
			expectTags:    "bindery,batch,completed",
		},
		{
			name: "error",
			publish: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("installer not found"), "install batch")
			},
			expectTitle:    "Bindery - Error",
			expectMessage:  "Error with install batch: installer not found",
			expectTags:     "bindery,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.publish(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventGates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Updates = false
	cfg.Notifications.Batches = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUpdatesAvailable(context.Background(), []string{"gopls"}); err != nil {
		t.Fatalf("suppressed updates notification errored: %v", err)
	}
	if err := svc.NotifyBatchCompleted(context.Background(), "install", 1, 0, time.Second); err != nil {
		t.Fatalf("suppressed batch notification errored: %v", err)
	}
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "check"); err != nil {
		t.Fatalf("suppressed error notification errored: %v", err)
	}
}

func TestNtfyServiceSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
