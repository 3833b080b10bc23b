package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

func sampleResult() *application.Result {
	return &application.Result{
		RunID: "run-hook",
		Rows: []profiles.MergedRow{
			{Key: "2013010101", Demand: 100, Solar: 1000, Wind: 833},
			{Key: "2013010102", Demand: 110, Solar: 1000, Wind: 1000},
		},
		Merge: profiles.MergeStats{ForwardFilled: map[string]int{profiles.SeriesWind: 0, profiles.SeriesSolar: 1}},
		Solar: profiles.GenerationReport{Series: profiles.SeriesSolar, CapacityFactor: []profiles.CapacityFactorStat{
			{Index: 0, Hours: 2, CapacityFactor: 0.145},
		}},
	}
}

func TestWebhookNotifier_WritePostsRun(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, WithReportURL("http://profiles.local/api/v1/reports/latest.pdf"))
	if notifier.Name() != "webhook" {
		t.Fatalf("unexpected name %q", notifier.Name())
	}
	if err := notifier.Write(context.Background(), sampleResult()); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got.MsgType != "text" {
		t.Fatalf("expected text message, got %q", got.MsgType)
	}
	if got.Run.RunID != "run-hook" || got.Run.Rows != 2 || got.Run.LastKey != "2013010102" {
		t.Fatalf("unexpected run payload: %+v", got.Run)
	}
	for _, want := range []string{
		"Run: run-hook",
		"Rows: 2 (2013010101 to 2013010102)",
		"Forward filled: solar=1 wind=0",
		"CF solar year 0: 0.1450",
		"Report URL: http://profiles.local/api/v1/reports/latest.pdf",
	} {
		if !strings.Contains(got.Text.Content, want) {
			t.Fatalf("content missing %q:\n%s", want, got.Text.Content)
		}
	}
}

func TestWebhookNotifier_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := NewWebhookNotifier(server.URL).Write(context.Background(), sampleResult()); err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
	if err := NewWebhookNotifier("").Notify(context.Background(), RunMessage{}); err == nil {
		t.Fatalf("expected empty url error")
	}
	if err := NewWebhookNotifier(server.URL).Write(context.Background(), nil); err == nil {
		t.Fatalf("expected nil result error")
	}
}
