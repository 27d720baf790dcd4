package http

import (
	"context"
	"net/http"
	"strings"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker func(ctx context.Context) error

type RouterConfig struct {
	Calendar *CalendarHandler
	Events   *EventHandler
	Health   HealthChecker
	// Middleware wraps the mux; the first entry is outermost.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, r, http.MethodGet, http.MethodHead)
			return
		}
		health(w, r, cfg.Health)
	})

	if cfg.Calendar != nil {
		mux.HandleFunc("/calendar", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, r, http.MethodGet)
				return
			}
			cfg.Calendar.Month(w, r)
		})
		mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, r, http.MethodGet)
				return
			}
			cfg.Calendar.Export(w, r)
		})
	}

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/events/")
			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithEventID(r.Context(), id)
			r = r.WithContext(ctx)

			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Events.Get(w, r)
				case http.MethodPut:
					cfg.Events.Update(w, r)
				case http.MethodDelete:
					cfg.Events.Delete(w, r)
				default:
					methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "reschedule":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, r, http.MethodPost)
					return
				}
				cfg.Events.Reschedule(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func health(w http.ResponseWriter, r *http.Request, check HealthChecker) {
	responder := newResponder(nil)
	if check != nil {
		if err := check(r.Context()); err != nil {
			responder.writeError(r.Context(), w, http.StatusServiceUnavailable, nil)
			handlerLogger(r.Context(), nil, "Health", "Check").WarnContext(r.Context(), "health check failed", "error", err)
			return
		}
	}
	responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	newResponder(nil).writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: statusMessage(http.StatusMethodNotAllowed)})
}
