package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ilng/roster/config"
	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/bot"
	"github.com/ilng/roster/internal/db"
	"github.com/ilng/roster/internal/handlers"
	"github.com/ilng/roster/internal/mq"
	"github.com/ilng/roster/internal/ratelimit"
	"github.com/ilng/roster/internal/seed"
	"github.com/ilng/roster/internal/services"
	"github.com/ilng/roster/internal/storage"
	"github.com/ilng/roster/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server, the router and every backend it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	bot        *bot.Bot
	closers    []func() error
}

// Runtime holds the backends shared by the server and the CLI commands.
type Runtime struct {
	Store    *store.Store
	Audit    *audit.Recorder
	Backups  *storage.Backups
	Services *services.Services

	closers []func() error
}

// Close releases the backends in reverse order of opening.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// OpenRuntime opens the store, event publisher and backup storage named
// by cfg and wires the services over them.
func OpenRuntime(ctx context.Context, cfg config.Config) (*Runtime, error) {
	rt := &Runtime{}

	persister, err := openPersister(ctx, cfg, rt)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Store, err = store.Open(ctx, persister)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	events, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	var publisher audit.Publisher
	if events != nil {
		publisher = events
		rt.closers = append(rt.closers, events.Close)
	}
	rt.Audit = audit.NewRecorder(rt.Store, publisher)

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	var uploader services.BackupUploader
	if objects != nil {
		rt.Backups = storage.NewBackups(objects)
		uploader = rt.Backups
	}

	rt.Services = services.New(rt.Store, rt.Audit, services.NewBcryptHasher(), uploader)
	return rt, nil
}

func openPersister(ctx context.Context, cfg config.Config, rt *Runtime) (store.Persister, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "", "file":
		p, err := store.NewFilePersister(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		log.WithField("path", p.Path()).Info("Using file store")
		return p, nil
	case "postgres":
		if err := db.MigrateUp(cfg.Database); err != nil {
			return nil, err
		}
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, conn.Close)
		log.WithField("host", cfg.Database.Host).Info("Using postgres store")
		return db.NewSnapshotPersister(conn), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// New constructs a Server from cfg.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	rt, err := OpenRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.SeedOnStart {
		if err := seedOnStart(ctx, rt, cfg.SeedFile); err != nil {
			_ = rt.Close()
			return nil, err
		}
	}

	limiter, closeLimiter, err := ratelimit.Open(ctx, cfg.RateLimit)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	router := handlers.NewRouter(rt.Services, limiter, cfg.JWTSecret)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 75 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		closers: []func() error{closeLimiter, rt.Close},
	}

	if cfg.Discord.BotToken != "" {
		b, err := bot.New(cfg.Discord)
		if err != nil {
			log.WithError(err).Error("Discord bot disabled")
		} else {
			srv.bot = b
		}
	}
	return srv, nil
}

func seedOnStart(ctx context.Context, rt *Runtime, file string) error {
	doc, err := seed.Load(file)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, rt.Store, rt.Audit, doc, seed.Options{})
	if errors.Is(err, seed.ErrAlreadySeeded) {
		log.Info("Store already seeded, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	log.WithFields(log.Fields{
		"users":  res.Users,
		"units":  res.Units,
		"awards": res.Awards,
	}).Info("Seeded store")
	return nil
}

// Router exposes the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves HTTP, and the Discord bot when configured, until ctx is
// cancelled or the listener fails. A bot failure never stops the server.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	if s.bot != nil {
		g.Go(func() error {
			if err := s.bot.Run(gctx); err != nil {
				log.WithError(err).Error("Discord bot stopped")
			}
			return nil
		})
	}

	err := g.Wait()
	if cerr := s.Close(); cerr != nil {
		log.WithError(cerr).Warn("Error releasing backends")
	}
	return err
}

// Close releases the limiter, store connection and event publisher.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
