package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"coolerctl/internal/models"
	"coolerctl/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.CoolerEvent{
		{EventID: "e1", OccurredAt: now, Type: "START", Description: "cooler started"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: "MODE_CHANGE", Description: "mode"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// Invalid 'from' → 400
	w := doAuthed(r, http.MethodGet, "/api/v1/logs/?from=notatime", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Valid range and type (lowercase type should be normalized to upper)
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=mode_change"
	w = doAuthed(r, http.MethodGet, q, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                  `json:"count"`
		Events []models.CoolerEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "MODE_CHANGE" {
		t.Fatalf("type not normalized: %q", logs.lastType)
	}

	// Inverted range → 400
	q = "/api/v1/logs/?from=" + now.Add(time.Hour).Format(time.RFC3339) + "&to=" + now.Format(time.RFC3339)
	w = doAuthed(r, http.MethodGet, q, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	logs := &mockEventLog{}
	s := &service.Service{Authorization: auth, EventLog: logs}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/logs/?to=2026-08-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	endOfDay := time.Date(2026, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(endOfDay) {
		t.Fatalf("date-only 'to' not widened: %v", logs.lastTo)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"2026-08-27T15:04:05Z", false},
		{"2026-08-27 15:04:05", false},
		{"2026-08-27", false},
		{"27/08/2026", true},
		{"", true},
	}
	for _, tc := range cases {
		_, err := parseQueryTime(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseQueryTime(%q): err=%v, wantErr=%v", tc.in, err, tc.wantErr)
		}
	}
}
