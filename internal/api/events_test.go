package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func TestListEvents(t *testing.T) {
	handler := listEvents(discardLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Events []string `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling body: %v", err)
	}

	if len(body.Events) != 13 {
		t.Fatalf("len(events) = %d, want 13", len(body.Events))
	}

	want := []string{
		"50 Freestyle",
		"100 Freestyle",
		"200 Freestyle",
		"500 Freestyle",
		"1000 Freestyle",
		"1650 Freestyle",
		"100 Backstroke",
		"200 Backstroke",
		"100 Breaststroke",
		"200 Breaststroke",
		"100 Butterfly",
		"200 Butterfly",
		"200 Individual Medley",
	}
	if !slices.Equal(body.Events, want) {
		t.Errorf("events = %v, want %v", body.Events, want)
	}
}

func TestListEvents_StableAcrossCalls(t *testing.T) {
	handler := listEvents(discardLogger())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/events", nil))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/events", nil))

	if first.Body.String() != second.Body.String() {
		t.Error("event list changed between calls")
	}
}
