package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/personal-calendar/internal/application"
)

var testArgon2Params = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	hash, err := application.CreatePasswordHash("correct horse", testArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	handler := BasicAuth("me", hash, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(okHandler())

	tests := []struct {
		name           string
		path           string
		user, password string
		setAuth        bool
		expectedStatus int
	}{
		{name: "missing credentials", path: "/events", expectedStatus: http.StatusUnauthorized},
		{name: "wrong password", path: "/events", user: "me", password: "battery staple", setAuth: true, expectedStatus: http.StatusUnauthorized},
		{name: "wrong user", path: "/events", user: "you", password: "correct horse", setAuth: true, expectedStatus: http.StatusUnauthorized},
		{name: "valid credentials", path: "/events", user: "me", password: "correct horse", setAuth: true, expectedStatus: http.StatusOK},
		{name: "health stays open", path: "/healthz", expectedStatus: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.setAuth {
				req.SetBasicAuth(tc.user, tc.password)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d", tc.expectedStatus, recorder.Code)
			}
			if recorder.Code == http.StatusUnauthorized && recorder.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("expected a basic auth challenge")
			}
		})
	}

	t.Run("broken hash is a server error", func(t *testing.T) {
		t.Parallel()

		broken := BasicAuth("me", "$argon2id$garbage", nil)(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		req.SetBasicAuth("me", "correct horse")
		recorder := httptest.NewRecorder()
		broken.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", recorder.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	if CORS(nil) != nil {
		t.Fatalf("expected no middleware without origins")
	}

	handler := NewRouter(RouterConfig{
		Middleware: []func(http.Handler) http.Handler{CORS([]string{"http://localhost:5173"})},
	})

	t.Run("preflight from an allowed origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Fatalf("expected origin to be allowed, got %q", got)
		}
	})

	t.Run("other origins get no grant", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no grant, got %q", got)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var sawLogger bool
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))

	if !sawLogger {
		t.Fatalf("expected the request logger in the handler context")
	}
	out := buf.String()
	for _, want := range []string{`"msg":"request completed"`, `"status":418`, `"bytes":15`, `"request_id":1`, `"path":"/events"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %s, got %s", want, out)
		}
	}
}
