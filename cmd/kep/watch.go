package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/kep/pkg/definition"
	"github.com/coolbeans/kep/pkg/metrics"
)

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Reload specifications on change and serve metrics",
		Long: `Watch the specification directory. Whenever the configured
specification is created or modified, the given bulletin files are
extracted again and the outcome is logged. Prometheus metrics are served
until the process is interrupted.

Examples:
  kep watch --spec-dir specs tab.txt
  KEP_METRICS_ADDR=:9200 kep watch --spec-dir specs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Metrics.Addr, _ = cmd.Flags().GetString("addr")
			}
			if a.cfg.Spec.Dir == "" {
				return fmt.Errorf("--spec-dir is required for watch")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, args)
		},
	}
	cmd.Flags().String("addr", "", "Metrics listen address (default from KEP_METRICS_ADDR)")
	return cmd
}

func (a *app) watch(ctx context.Context, files []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	registry, err := definition.NewRegistryWithDirectory(a.cfg.Spec.Dir, definition.WithRegistryLogger(a.logger))
	if err != nil {
		return err
	}

	status := &runStatus{}
	run := func(spec *definition.Specification) {
		if len(files) == 0 {
			return
		}
		results, err := a.runExtract(ctx, spec, files, m)
		if err != nil {
			status.set(spec, 0, err)
			a.logger.Error("extraction failed", zap.String("spec", spec.Name), zap.Error(err))
			return
		}
		obs := merge(results)
		status.set(spec, len(obs), nil)
		a.logger.Info("extraction succeeded",
			zap.String("spec", spec.Name),
			zap.String("version", spec.Version),
			zap.Int("observations", len(obs)))
	}

	registry.SetOnChange(func(event string, spec *definition.Specification) {
		m.ObserveSpecEvent(event)
		if spec == nil || spec.Name != a.cfg.Spec.Name {
			return
		}
		run(spec)
	})

	if spec, ok := registry.Get(a.cfg.Spec.Name); ok {
		run(spec)
	} else {
		a.logger.Warn("specification not loaded yet",
			zap.String("name", a.cfg.Spec.Name),
			zap.Strings("have", registry.Names()))
	}

	if err := registry.Watch(); err != nil {
		return err
	}
	defer registry.StopWatch()

	server := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           newRouter(reg, registry, status, a.cfg.Metrics.Endpoint),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving metrics",
			zap.String("addr", a.cfg.Metrics.Addr),
			zap.String("endpoint", a.cfg.Metrics.Endpoint),
			zap.String("dir", a.cfg.Spec.Dir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runStatus is the outcome of the latest extraction.
type runStatus struct {
	mu           sync.RWMutex
	spec         string
	version      string
	finished     time.Time
	observations int
	err          string
}

func (s *runStatus) set(spec *definition.Specification, observations int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spec = spec.Name
	s.version = spec.Version
	s.finished = time.Now().UTC()
	s.observations = observations
	s.err = ""
	if err != nil {
		s.err = err.Error()
	}
}

func (s *runStatus) snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]interface{}{
		"spec":         s.spec,
		"version":      s.version,
		"observations": s.observations,
	}
	if !s.finished.IsZero() {
		out["finished"] = s.finished
	}
	if s.err != "" {
		out["error"] = s.err
	}
	return out
}

type specSummary struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Required int    `json:"required"`
	Scopes   int    `json:"scopes"`
}

// newRouter serves metrics, health, the loaded specifications and the
// latest extraction status.
func newRouter(reg *prometheus.Registry, registry *definition.Registry, status *runStatus, endpoint string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle(endpoint, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]interface{}{"status": "ok", "specs": registry.Count()})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, status.snapshot())
	})

	r.Route("/specs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			summaries := make([]specSummary, 0, registry.Count())
			for _, name := range registry.Names() {
				s, ok := registry.Get(name)
				if !ok {
					continue
				}
				summaries = append(summaries, specSummary{
					Name:     s.Name,
					Version:  s.Version,
					Required: len(s.Required()),
					Scopes:   len(s.Scopes),
				})
			}
			render.JSON(w, r, summaries)
		})
		r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
			s, ok := registry.Get(chi.URLParam(r, "name"))
			if !ok {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]interface{}{"error": "specification not found"})
				return
			}
			render.JSON(w, r, s)
		})
	})

	return r
}
