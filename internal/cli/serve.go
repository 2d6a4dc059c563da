package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/outline/internal/config"
	httpAdapter "github.com/aretw0/outline/pkg/adapters/http"
	"github.com/aretw0/outline/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/outline/pkg/adapters/redis"
	"github.com/aretw0/outline/pkg/authority"
	"github.com/aretw0/outline/pkg/observability"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures the authority server.
type ServeOptions struct {
	Config     config.Config
	ImportPath string // optional outline file loaded at startup
	Logger     *slog.Logger
	Registry   *prometheus.Registry
}

// Backend is the storage selected by the configuration.
type Backend struct {
	Store  ports.ContentStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases the backend connections.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend builds the content store and locker for the configured driver.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return &Backend{Store: memory.NewStore(), Locker: memory.NewLocker()}, nil
	case config.DriverRedis:
		store := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return &Backend{
			Store:  store,
			Locker: redisAdapter.NewLocker(store.Client(), cfg.Redis.Prefix),
			closer: store,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewServeHandler wires the authority, the event streams and /metrics into one handler.
func NewServeHandler(ctx context.Context, opts ServeOptions, backend *Backend) (http.Handler, *authority.Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := httpAdapter.ValidateSpec(ctx); err != nil {
		return nil, nil, err
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	changes, err := observability.NewChangeCounter(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	streams := httpAdapter.NewStreamManager()
	svc := authority.New(backend.Store,
		authority.WithLogger(logger),
		authority.WithCourseSettings(opts.Config.Course),
		authority.WithLocker(backend.Locker),
		authority.WithObserver(streams.Publish),
		authority.WithObserver(changes.Observe),
	)

	if opts.ImportPath != "" {
		info, err := LoadNodeFile(opts.ImportPath)
		if err != nil {
			return nil, nil, err
		}
		if err := svc.Import(ctx, info.Spec()); err != nil {
			return nil, nil, fmt.Errorf("failed to import %s: %w", opts.ImportPath, err)
		}
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/", httpAdapter.NewHandler(svc,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithLogger(logger),
	))
	return r, svc, nil
}

// Serve runs the authority until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := OpenBackend(ctx, opts.Config.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	handler, _, err := NewServeHandler(ctx, opts, backend)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    opts.Config.Server.Addr,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("outline authority listening", "address", srv.Addr, "store", opts.Config.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		logger.Info("outline authority stopped")
		return nil
	}
}
