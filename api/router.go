// Package api assembles the HTTP surface of the service.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/telematics/api/admin"
	"github.com/kilianp07/telematics/api/events"
	"github.com/kilianp07/telematics/api/respond"
	"github.com/kilianp07/telematics/api/vehicles"
	"github.com/kilianp07/telematics/core/logger"
	"github.com/kilianp07/telematics/core/trip"
	"github.com/kilianp07/telematics/core/vehiclestate"
)

// Deps are the components served by the router.
type Deps struct {
	Processor events.Processor
	Store     vehiclestate.Store
	Trips     *trip.Tracker
	Sweeper   admin.Sweeper
	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string
	Logger      logger.Logger
	Started     time.Time
}

// Options tune the router.
type Options struct {
	APIKey         string
	RecentLimit    int
	MaxRecentLimit int
	MaxBodyBytes   int64
}

// NewRouter returns the service handler. When opts.APIKey is set every route
// except /status and the metrics path requires a matching X-API-Key header.
func NewRouter(d Deps, opts Options) http.Handler {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	if d.MetricsPath == "" {
		d.MetricsPath = "/metrics"
	}
	v := vehicles.NewHandler(d.Store, d.Trips, opts.RecentLimit, opts.MaxRecentLimit)

	mux := http.NewServeMux()
	mux.Handle("POST /events", events.NewHandler(d.Processor, opts.MaxBodyBytes))
	mux.HandleFunc("GET /data/{vehicleId}", v.Data)
	mux.HandleFunc("GET /trips/{vehicleId}", v.Trips)
	status := admin.NewStatusHandler(d.Store, d.Trips, d.Started)
	mux.Handle("GET /status", status)
	mux.Handle("GET /status/{$}", status)
	mux.Handle("POST /admin/cleanup", admin.NewCleanupHandler(d.Sweeper))
	if d.Metrics != nil {
		mux.Handle("GET "+d.MetricsPath, d.Metrics)
	}

	exempt := []string{"/status", d.MetricsPath}
	var h http.Handler = mux
	h = RequireAPIKey(opts.APIKey, exempt...)(h)
	if d.Logger != nil {
		h = LogRequests(d.Logger)(h)
	}
	return h
}

// RequireAPIKey rejects requests whose X-API-Key header does not match key
// with 403. An empty key disables the check. Paths in exempt, with or without
// a trailing slash, are always served.
func RequireAPIKey(key string, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}
			for _, p := range exempt {
				if path == p {
					next.ServeHTTP(w, r)
					return
				}
			}
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				respond.Error(w, http.StatusForbidden, "Forbidden: Invalid API Key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogRequests logs every request at debug level with its status and latency.
func LogRequests(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debugw("http request", map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"latency_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}
