package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/p-chth/KaoDuenMate-VER2/internal/auth"
	"github.com/p-chth/KaoDuenMate-VER2/internal/config"
	"github.com/p-chth/KaoDuenMate-VER2/internal/delivery/httpd"
	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/middleware"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/internal/service"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

type App struct {
	server *http.Server
	logger zerolog.Logger
	config *config.Config
	db     *sql.DB
	hub    *feed.Hub
	broker *feed.Broker
}

// New wires the application. db may be nil when the memory storage driver
// is configured.
func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	clock, err := dates.LoadClock(cfg.Tracker.Timezone)
	if err != nil {
		return nil, err
	}

	// Создаем хранилище
	var (
		store  *repository.Store
		pinger httpd.Pinger
	)
	switch cfg.Storage.Driver {
	case "memory":
		store = repository.NewMemoryStore()
		log.Warn().Msg("Using in-memory storage, data will not survive a restart")
	default:
		if db == nil {
			return nil, errors.New("postgres storage requires a database connection")
		}
		store = repository.NewPostgresStore(db, log)
		pinger = repository.NewPostgresRepository(db, log)
	}

	hub := feed.NewHub(cfg.Feed.BufferSize, log)

	var (
		publisher feed.Publisher = hub
		broker    *feed.Broker
	)
	if cfg.RabbitMQ.Enabled {
		broker, err = feed.NewBroker(cfg.RabbitMQ, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create RabbitMQ broker, publishing in-process only")
			broker = nil
		} else {
			publisher = broker
		}
	}

	// Создаем сервисы
	profileService := service.NewProfileService(store.Profiles, clock, publisher, log)
	assignmentService := service.NewAssignmentService(store.Assignments, profileService, publisher, log)
	examService := service.NewExamService(store.Exams, publisher, log)
	courseService := service.NewCourseService(store.Courses, profileService, publisher, log)
	dashboardService := service.NewDashboardService(store, profileService, clock, service.DashboardOptions{
		UpcomingLimit: cfg.Tracker.UpcomingLimit,
		CountAppOpen:  cfg.Streak.CountAppOpen,
	}, log)

	handler := httpd.NewHandler(
		profileService,
		assignmentService,
		examService,
		courseService,
		dashboardService,
		hub,
		auth.NewVerifier(cfg.Auth),
		pinger,
		httpd.Options{
			RequestTimeout: cfg.Server.RequestTimeout,
			Heartbeat:      cfg.Feed.Heartbeat,
		},
		log,
	)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.NewCORS(cfg.CORS))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server: server,
		logger: log,
		config: cfg,
		db:     db,
		hub:    hub,
		broker: broker,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled or a component fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msgf("Starting KaoDuen Mate on %s", ln.Addr())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.broker != nil {
		g.Go(func() error {
			return a.consume(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// consume feeds broker deliveries into the hub. Losing the consumer while
// the app is still running is fatal: writes would no longer reach feeds.
func (a *App) consume(ctx context.Context) error {
	msgs, err := a.broker.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start change consumer: %w", err)
	}

	if err := feed.Forward(ctx, msgs, a.hub, a.logger); err != nil {
		return err
	}
	if ctx.Err() == nil {
		return errors.New("change consumer stopped unexpectedly")
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down KaoDuen Mate...")

	// feeds block until their subscription ends
	a.hub.Close()

	err := a.server.Shutdown(ctx)

	// Закрываем RabbitMQ соединение
	if a.broker != nil {
		if cerr := a.broker.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("Failed to close RabbitMQ connection")
		}
	}

	// Закрываем соединение с БД
	if a.db != nil {
		if cerr := a.db.Close(); cerr != nil {
			a.logger.Error().Err(cerr).Msg("Failed to close database connection")
		}
	}

	return err
}
