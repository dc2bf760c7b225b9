package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fieldcrew/api/clients"
	clientHandlers "github.com/fieldcrew/api/clients/handlers"
	clientRepository "github.com/fieldcrew/api/clients/repository"
	clientServices "github.com/fieldcrew/api/clients/services"
	"github.com/fieldcrew/api/crews"
	crewHandlers "github.com/fieldcrew/api/crews/handlers"
	crewRepository "github.com/fieldcrew/api/crews/repository"
	crewServices "github.com/fieldcrew/api/crews/services"
	"github.com/fieldcrew/api/equipment"
	equipmentHandlers "github.com/fieldcrew/api/equipment/handlers"
	equipmentRepository "github.com/fieldcrew/api/equipment/repository"
	equipmentServices "github.com/fieldcrew/api/equipment/services"
	"github.com/fieldcrew/api/internal/cache"
	"github.com/fieldcrew/api/internal/database/migrations"
	"github.com/fieldcrew/api/internal/database/observability"
	"github.com/fieldcrew/api/internal/database/postgres"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/middleware/dualauth"
	"github.com/fieldcrew/api/internal/middleware/ratelimit"
	"github.com/fieldcrew/api/internal/middleware/requestid"
	"github.com/fieldcrew/api/internal/pkg/log"
	platformconfig "github.com/fieldcrew/api/internal/platform/config"
	"github.com/fieldcrew/api/invoices"
	invoiceHandlers "github.com/fieldcrew/api/invoices/handlers"
	invoiceRepository "github.com/fieldcrew/api/invoices/repository"
	invoiceServices "github.com/fieldcrew/api/invoices/services"
	"github.com/fieldcrew/api/projects"
	projectHandlers "github.com/fieldcrew/api/projects/handlers"
	projectRepository "github.com/fieldcrew/api/projects/repository"
	projectServices "github.com/fieldcrew/api/projects/services"
	"github.com/fieldcrew/api/settings"
	settingsHandlers "github.com/fieldcrew/api/settings/handlers"
	settingsRepository "github.com/fieldcrew/api/settings/repository"
	settingsServices "github.com/fieldcrew/api/settings/services"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/tasks"
	taskHandlers "github.com/fieldcrew/api/tasks/handlers"
	taskRepository "github.com/fieldcrew/api/tasks/repository"
	taskServices "github.com/fieldcrew/api/tasks/services"
	"github.com/fieldcrew/api/users"
	memberHandlers "github.com/fieldcrew/api/users/handlers"
	memberRepository "github.com/fieldcrew/api/users/repository"
	memberServices "github.com/fieldcrew/api/users/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load platform config: %w", err)
	}
	log.SetDebug(cfg.Server.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Without a database every data call answers 503; the process stays up for /healthz.
	pgClient, err := connect(ctx, cfg)
	if err != nil {
		log.Error("Failed to create postgres client, running degraded: %v", err)
		pgClient = nil
	} else {
		defer pgClient.Close()
		if cfg.Database.AutoMigrate {
			if err := autoMigrate(pgClient, cfg.Database.Postgres.Schema); err != nil {
				return err
			}
		}
	}
	store := tenant.NewStore(pgClient, tenant.WithMetrics(observability.NewQueryMetrics(registry)))

	appCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer appCache.Close()

	auth, err := dualauth.New(dualauth.Config{
		PayloadSecret: cfg.HMAC.Secret,
		PublicKey:     cfg.JWT.PublicKey,
		ClaimKey:      cfg.JWT.ClaimKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.ErrorWithContext(c.UserContext(), "[ErrorHandler] Path: %s, Error: %v, Code: %d", c.Path(), err, code)

			// If response already set by handler, don't override it
			if len(c.Response().Body()) > 0 {
				return nil
			}
			return c.Status(code).JSON(sharederrors.ErrorResponse{
				Code:    sharederrors.CodeInternalError,
				Message: err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.WebDomain,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Business-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := store.HealthCheck(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// The limiter keys on the authenticated business so it runs after auth.
	chain := []fiber.Handler{auth}
	if cfg.RateLimit.Enabled {
		chain = append(chain, ratelimit.New(ratelimit.Config{
			Max:        cfg.RateLimit.Max,
			Expiration: cfg.RateLimit.Duration,
			Storage:    cache.NewStorage(appCache, cfg.Cache.Prefix+"ratelimit:"),
		}))
	}

	registerModules(app.Group(cfg.Server.BaseRoute), store, appCache, cfg, chain)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Shutdown failed: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting Fieldcrew API on %s", addr)
	return app.Listen(addr)
}

func autoMigrate(client *postgres.Client, schema string) error {
	m, err := migrations.New(client.DB(), schema)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func registerModules(router fiber.Router, store *tenant.Store, c cache.Cache, cfg *platformconfig.Config, chain []fiber.Handler) {
	settingsService := settingsServices.NewService(settingsRepository.NewRepository(store), c, cfg.Cache.TTL)
	settings.RegisterRoutes(router, &settings.Handlers{
		SettingsHandler: settingsHandlers.NewSettingsHandler(settingsService),
	}, chain...)

	clients.RegisterRoutes(router, &clients.Handlers{
		ClientHandler: clientHandlers.NewClientHandler(clientServices.NewService(clientRepository.NewRepository(store))),
	}, chain...)
	crews.RegisterRoutes(router, &crews.Handlers{
		CrewHandler: crewHandlers.NewCrewHandler(crewServices.NewService(crewRepository.NewRepository(store))),
	}, chain...)
	equipment.RegisterRoutes(router, &equipment.Handlers{
		EquipmentHandler: equipmentHandlers.NewEquipmentHandler(equipmentServices.NewService(equipmentRepository.NewRepository(store))),
	}, chain...)
	projects.RegisterRoutes(router, &projects.Handlers{
		ProjectHandler: projectHandlers.NewProjectHandler(projectServices.NewService(projectRepository.NewRepository(store))),
	}, chain...)
	tasks.RegisterRoutes(router, &tasks.Handlers{
		TaskHandler: taskHandlers.NewTaskHandler(taskServices.NewService(taskRepository.NewRepository(store))),
	}, chain...)
	users.RegisterRoutes(router, &users.Handlers{
		MemberHandler: memberHandlers.NewMemberHandler(memberServices.NewService(memberRepository.NewRepository(store))),
	}, chain...)
	invoices.RegisterRoutes(router, &invoices.Handlers{
		InvoiceHandler: invoiceHandlers.NewInvoiceHandler(invoiceServices.NewService(invoiceRepository.NewRepository(store), settingsService)),
	}, chain...)
}
