// Package app wires configuration, the membership backend, the topic
// registry and the HTTP server into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/topichub/internal/config"
	"github.com/nfrund/topichub/internal/groups"
	"github.com/nfrund/topichub/internal/membership"
	"github.com/nfrund/topichub/internal/pubsub"
	"github.com/nfrund/topichub/internal/server"
	"github.com/nfrund/topichub/internal/topics"
)

// App holds the assembled services.
type App struct {
	Config   *config.Config
	Registry *topics.Registry
	Server   *server.Server

	closers []func()
}

// New builds every service cfg asks for. ctx bounds backend connection and
// the lifetime of background subscriptions. Call Close when done, even if
// Run was never called.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	i := do.New()
	do.ProvideValue(i, cfg)
	do.Provide(i, a.provideTracer(ctx))
	do.Provide(i, a.provideBus)
	do.Provide(i, a.provideGroups(ctx))
	do.Provide(i, provideStore)
	do.Provide(i, provideRegistry)
	do.Provide(i, provideServer)

	srv, err := do.Invoke[*server.Server](i)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build services: %w", err)
	}
	a.Server = srv
	a.Registry, err = do.Invoke[*topics.Registry](i)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Run starts the registry coordinator and serves HTTP until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	go a.Registry.Run(ctx)
	return a.Server.Start(ctx, a.Config.HTTPAddr)
}

// Close releases backend connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *App) provideTracer(ctx context.Context) func(do.Injector) (trace.Tracer, error) {
	return func(i do.Injector) (trace.Tracer, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}
		tracer, cleanup, err := pubsub.SetupOTel(ctx, cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		a.onClose(cleanup)
		return tracer, nil
	}
}

func (a *App) provideBus(i do.Injector) (pubsub.Bus, error) {
	tracer, err := do.Invoke[trace.Tracer](i)
	if err != nil {
		return nil, err
	}
	bus := pubsub.NewWatermillBridgeWithTracer(tracer)
	a.onClose(func() {
		if err := bus.Close(); err != nil {
			slog.Error("Failed to close message bus", "error", err)
		}
	})
	return bus, nil
}

func (a *App) provideGroups(ctx context.Context) func(do.Injector) (groups.Groups, error) {
	return func(i do.Injector) (groups.Groups, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}

		switch cfg.Backend {
		case config.BackendRedis:
			client, err := groups.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisRetryAttempts, cfg.RedisRetryInterval)
			if err != nil {
				return nil, err
			}
			a.onClose(func() {
				if err := client.Close(); err != nil {
					slog.Error("Failed to close redis client", "error", err)
				}
			})
			slog.Info("Using redis membership backend", "url", cfg.RedisURL)
			return groups.NewRedis(client, cfg.Namespace+":"), nil

		case config.BackendReplicated:
			bus, err := do.Invoke[pubsub.Bus](i)
			if err != nil {
				return nil, err
			}
			rep := groups.NewReplicated(cfg.NodeID, bus)
			if err := rep.Start(ctx); err != nil {
				return nil, fmt.Errorf("start replication: %w", err)
			}
			slog.Info("Using replicated membership backend", "node_id", cfg.NodeID)
			return rep, nil

		default:
			slog.Info("Using in-memory membership backend")
			return groups.NewMemory(), nil
		}
	}
}

func provideStore(i do.Injector) (*membership.Store, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	g, err := do.Invoke[groups.Groups](i)
	if err != nil {
		return nil, err
	}
	return membership.NewStore(g, cfg.Namespace), nil
}

func provideRegistry(i do.Injector) (*topics.Registry, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	store, err := do.Invoke[*membership.Store](i)
	if err != nil {
		return nil, err
	}
	return topics.NewRegistry(store,
		topics.WithCallTimeout(cfg.CallTimeout),
		topics.WithLogger(slog.Default().With("component", "topics")),
	), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, err
	}
	registry, err := do.Invoke[*topics.Registry](i)
	if err != nil {
		return nil, err
	}
	return server.New(registry, cfg.MailboxSize), nil
}
