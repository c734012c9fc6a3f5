package app

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ctxKey int

const requestIDKey ctxKey = iota

// statusClientClosedRequest is recorded when the client disconnects before
// the feed is ready. Nothing reaches the client.
const statusClientClosedRequest = 499

// Server adapts the Service to HTTP.
type Server struct {
	cfg Config
	svc *Service
	log *zap.Logger
}

// NewServer creates the HTTP adapter for svc.
func NewServer(cfg Config, svc *Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, svc: svc, log: log}
}

// Router returns the routes shared by the standalone server and the
// serverless entry point.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestContext)

	r.HandleFunc(s.cfg.FeedPath, s.HandleCalendar).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(s.cfg.FeedPath, s.handlePreflight).Methods(http.MethodOptions)
	r.HandleFunc("/healthz", s.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.HandleIndex).Methods(http.MethodGet)

	return r
}

// HandleCalendar serves the ICS feed. Any failure yields an error status
// and no calendar body.
func (s *Server) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	ics, err := s.svc.BuildCalendar(r.Context())
	if err != nil {
		if s.clientGone(w, r, err) {
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUpstream) {
			status = http.StatusBadGateway
		}
		s.log.Error("failed to generate calendar",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "Failed to generate calendar", status)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(s.cfg.FeedPath)+`"`)
	_, _ = w.Write([]byte(ics))
}

// clientGone reports whether err only says the client went away, recording
// the request as such instead of as a server failure.
func (s *Server) clientGone(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, context.Canceled) || r.Context().Err() == nil {
		return false
	}
	s.log.Debug("client closed request",
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	w.WriteHeader(statusClientClosedRequest)
	return true
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleHealth reports liveness without touching the league API.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// HandleIndex renders a page listing the team's matches.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline';")

	events, err := s.svc.Events(r.Context())
	if err != nil {
		if s.clientGone(w, r, err) {
			return
		}
		s.log.Error("failed to load matches",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "Failed to load matches", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Team":     s.cfg.TeamKeyword,
		"FeedPath": s.cfg.FeedPath,
		"Timezone": s.cfg.TimezoneID,
		"Events":   events,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error("template execution error", zap.Error(err))
	}
}

// requestContext tags the request with an ID, then logs and counts it.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		recordRequest(route, rec.status)

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// RequestID returns the ID assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"day":  func(t time.Time) string { return t.Format("Mon 02 Jan 2006") },
	"hour": func(t time.Time) string { return t.Format("15:04") },
}).Parse(htmlTemplate))

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Team}} matches</title>
    <style>
        body {
            margin: 0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            color: #333;
            background: #f5f5f5;
        }

        #container {
            max-width: 900px;
            margin: 0 auto;
            padding: 20px;
        }

        #header {
            background: linear-gradient(135deg, #0074A2 0%, #00A1C9 100%);
            color: white;
            padding: 30px;
            border-radius: 8px;
            text-align: center;
            margin-bottom: 20px;
        }

        #header a {
            color: white;
            font-weight: 600;
        }

        .match {
            background: white;
            padding: 15px 20px;
            border-radius: 8px;
            margin-bottom: 10px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }

        .match .when {
            color: #0074A2;
            font-weight: 500;
        }

        .match .where {
            color: #666;
            font-size: 13px;
        }
    </style>
</head>
<body>
    <div id="container">
        <div id="header">
            <h1>{{.Team}}</h1>
            <div id="subtitle">Subscribe: <a id="feed-link" href="{{.FeedPath}}">{{.FeedPath}}</a></div>
        </div>

        <div id="match-list">
            {{range .Events}}
            <div class="match" data-uid="{{.UID}}">
                <div class="when">{{day .Start}} {{hour .Start}}&ndash;{{hour .End}}</div>
                <div class="summary">{{.Summary}}</div>
                {{if .Location}}<div class="where">{{.Location}}</div>{{end}}
            </div>
            {{else}}
            <div class="empty">No matches scheduled.</div>
            {{end}}
        </div>

        <div id="footer">
            <p>Times are local to {{.Timezone}}.</p>
        </div>
    </div>
</body>
</html>
`
