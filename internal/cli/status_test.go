package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func healthServer(t *testing.T, code int, indexHealth string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok", "index": indexHealth}); err != nil {
			t.Errorf("encoding health: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		index string
		want  string
	}{
		{"fresh", http.StatusOK, "fresh", "up to date"},
		{"stale", http.StatusOK, "stale", "reloading"},
		{"unreliable", http.StatusOK, "unreliable", "bookings blocked"},
		{"server error", http.StatusInternalServerError, "", "unexpected response (500)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := healthServer(t, tt.code, tt.index)
			t.Setenv("HOME", t.TempDir())
			t.Setenv("CAMPBOOK_SERVER_URL", srv.URL)

			out, err := executeCommand("status")
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			if !strings.Contains(out, srv.URL) {
				t.Errorf("output does not name the server:\n%s", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestStatusUnreachable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CAMPBOOK_SERVER_URL", "http://127.0.0.1:1")

	// Not an error; the problem is reported in the output.
	out, err := executeCommand("status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "cannot reach server") {
		t.Errorf("output:\n%s", out)
	}
}
