package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxscore/voxscore/internal/score"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Healthz()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestReadyz_AllHealthy(t *testing.T) {
	t.Parallel()

	checks := map[string]Checker{
		"store":  func(context.Context) error { return nil },
		"device": func(context.Context) error { return nil },
	}

	rec := httptest.NewRecorder()
	Readyz(checks)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	t.Parallel()

	checks := map[string]Checker{
		"store":  func(context.Context) error { return errors.New("connection refused") },
		"device": func(context.Context) error { return nil },
	}

	rec := httptest.NewRecorder()
	Readyz(checks)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body struct {
		Status   string            `json:"status"`
		Failures map[string]string `json:"failures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Failures["store"] != "connection refused" {
		t.Errorf("failures = %v, want store failure listed", body.Failures)
	}
	if _, ok := body.Failures["device"]; ok {
		t.Errorf("healthy check listed as failure: %v", body.Failures)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	snap := &score.Snapshot{PitchAccuracy: 92, Timing: 100, Total: 96}
	handler := Status(func() SessionStatus {
		return SessionStatus{State: "recording", Recording: true, Score: snap}
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got SessionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.State != "recording" || !got.Recording {
		t.Errorf("status = %+v, want recording state", got)
	}
	if got.Score == nil || got.Score.Total != 96 {
		t.Errorf("score = %+v, want total 96", got.Score)
	}
	if got.Error != "" {
		t.Errorf("error = %q, want empty", got.Error)
	}
}
