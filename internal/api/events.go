package api

import (
	"log/slog"
	"net/http"
)

// benchmarkEvents is the fixed list of events the benchmarking agent covers:
// the short-course events contested at USA Swimming age-group meets.
// Served from memory; the database is never consulted.
var benchmarkEvents = []string{
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

// listEvents handles GET /events, the supported event list.
func listEvents(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string][]string{"events": benchmarkEvents}, logger)
	}
}
