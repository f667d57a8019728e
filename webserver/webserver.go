// Package webserver exposes a debounced value over HTTP.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/Gleipnir-Technology/settle/subscription"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	heartbeatInterval = 15 * time.Second
	// maxBodyBytes bounds a POST /value body.
	maxBodyBytes = 1 << 20
	// maxDelayMS is the largest delay_ms that still fits in a time.Duration.
	maxDelayMS = math.MaxInt64 / int64(time.Millisecond)
)

// Holder is the part of debounce.Holder[string] the webserver uses.
type Holder interface {
	ObserveDelay(v string, d time.Duration) string
	Pending() (string, bool)
	Subscribe() *subscription.Subscription[string]
	Value() string
}

// Document is the JSON body returned by /value.
type Document struct {
	Settled string `json:"settled"`
	Pending string `json:"pending"`
	Armed   bool   `json:"armed"`
}

// Observation is the JSON body accepted by POST /value.
type Observation struct {
	Value string `json:"value"`
	// DelayMS is optional. Zero or absent means the holder default.
	DelayMS *int64 `json:"delay_ms,omitempty"`
}

type Webserver struct {
	holder Holder
}

func New(holder Holder) *Webserver {
	return &Webserver{
		holder: holder,
	}
}

// Router builds the chi router serving the holder.
func (ws *Webserver) Router(logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/value", ws.getValue)
	r.Post("/value", ws.postValue)
	r.Get("/events", ws.sseHandler)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves until ctx is cancelled.
func (ws *Webserver) Start(ctx context.Context, bind string) error {
	logger := log.Ctx(ctx)
	server := &http.Server{
		Addr:              bind,
		Handler:           ws.Router(*logger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("webserver shutdown")
		}
	}()

	logger.Info().Str("bind", bind).Msg("webserver starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webserver: %w", err)
	}
	return nil
}

func (ws *Webserver) document() Document {
	pending, armed := ws.holder.Pending()
	return Document{
		Settled: ws.holder.Value(),
		Pending: pending,
		Armed:   armed,
	}
}

func (ws *Webserver) getValue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ws.document())
}

func (ws *Webserver) postValue(w http.ResponseWriter, r *http.Request) {
	var obs Observation
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&obs); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "observation too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("invalid observation: %v", err), http.StatusBadRequest)
		return
	}
	var d time.Duration
	if obs.DelayMS != nil {
		if *obs.DelayMS > maxDelayMS {
			http.Error(w, fmt.Sprintf("delay_ms must not exceed %d", maxDelayMS), http.StatusBadRequest)
			return
		}
		d = time.Duration(*obs.DelayMS) * time.Millisecond
	}
	ws.holder.ObserveDelay(obs.Value, d)
	writeJSON(w, r, http.StatusAccepted, ws.document())
}

// sseHandler streams every commit as a Server-Sent Event.
func (ws *Webserver) sseHandler(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sub := ws.holder.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if err := writeEvent(w, "connected", ws.document()); err != nil {
		logger.Debug().Err(err).Msg("failed to write connected event")
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("client closed connection")
			return
		case v, ok := <-sub.C:
			if !ok {
				logger.Debug().Msg("holder torn down, closing stream")
				return
			}
			if err := writeEvent(w, "commit", Document{Settled: v}); err != nil {
				logger.Debug().Err(err).Msg("failed to write commit event")
				return
			}
			flusher.Flush()
		case t := <-ticker.C:
			fmt.Fprintf(w, ": heartbeat %s\n\n", t.Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to write response")
	}
}

// requestLogger attaches logger to each request context and logs the outcome.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))
			l.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
