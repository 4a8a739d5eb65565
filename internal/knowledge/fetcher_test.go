package knowledge

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastFetchConfig() FetchConfig {
	return FetchConfig{
		Parallelism: 2,
		Delay:       time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

func TestNewFetcher_Defaults(t *testing.T) {
	t.Parallel()

	f := NewFetcher(FetchConfig{}, nil)
	if f.cfg.Parallelism != DefaultFetchParallelism {
		t.Errorf("Parallelism = %d, want %d", f.cfg.Parallelism, DefaultFetchParallelism)
	}
	if f.cfg.Delay != DefaultFetchDelay {
		t.Errorf("Delay = %v, want %v", f.cfg.Delay, DefaultFetchDelay)
	}
	if f.cfg.Timeout != DefaultFetchTimeout {
		t.Errorf("Timeout = %v, want %v", f.cfg.Timeout, DefaultFetchTimeout)
	}
}

func TestFetchAll(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/standards.txt":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("50 Free SCY B: 37.79"))
		case "/records.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body><p>NAG record</p></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(fastFetchConfig(), slog.New(slog.DiscardHandler))

	t.Run("fetches all urls", func(t *testing.T) {
		urls := []string{srv.URL + "/standards.txt", srv.URL + "/records.html"}
		results, err := f.FetchAll(context.Background(), urls)
		if err != nil {
			t.Fatalf("FetchAll() error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}

		text := results[srv.URL+"/standards.txt"]
		if string(text.Body) != "50 Free SCY B: 37.79" {
			t.Errorf("text body = %q", text.Body)
		}
		if text.ContentType != "text/plain" {
			t.Errorf("text content type = %q", text.ContentType)
		}

		page := results[srv.URL+"/records.html"]
		if !strings.Contains(string(page.Body), "NAG record") {
			t.Errorf("html body = %q", page.Body)
		}
		if !strings.HasPrefix(page.ContentType, "text/html") {
			t.Errorf("html content type = %q", page.ContentType)
		}
	})

	t.Run("duplicate urls fetched once", func(t *testing.T) {
		before := hits.Load()
		url := srv.URL + "/standards.txt"
		results, err := f.FetchAll(context.Background(), []string{url, url, url})
		if err != nil {
			t.Fatalf("FetchAll() error: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1", len(results))
		}
		if got := hits.Load() - before; got != 1 {
			t.Errorf("server hit %d times, want 1", got)
		}
	})

	t.Run("http error fails the batch", func(t *testing.T) {
		missing := srv.URL + "/missing.pdf"
		_, err := f.FetchAll(context.Background(), []string{missing})
		if err == nil {
			t.Fatal("FetchAll() expected error for 404")
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("error %q does not name the failing URL", err)
		}
	})

	t.Run("unreachable url fails the batch", func(t *testing.T) {
		good := srv.URL + "/standards.txt"
		bad := "http://127.0.0.1:1/nope.txt"
		results, err := f.FetchAll(context.Background(), []string{good, bad})
		if err == nil {
			t.Fatal("FetchAll() expected error for unreachable URL")
		}
		// The good URL still fetched; callers decide what to do.
		if _, ok := results[good]; !ok {
			t.Error("good URL missing from partial results")
		}
	})
}
