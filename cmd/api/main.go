package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/httpapi"
	memfieldrepo "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/fieldrepo"
	memidempotency "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/idempotency"
	memmembertypes "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/membertypes"
	memprofiledata "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/profiledata"
	postgres "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres"
	pgfieldrepo "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres/fieldrepo"
	pgidempotency "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres/idempotency"
	pgmembertypes "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres/membertypes"
	pgprofiledata "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/postgres/profiledata"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/controller"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	platformclock "github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/clock"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/config"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/logging"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/metrics"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/seed"
	fieldrepoport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
	idempotencyport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/idempotency"
	membertypesport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
	profiledataport "github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

// memberTypeStore is the registry + assignment surface both storage backends provide.
type memberTypeStore interface {
	membertypesport.Registry
	membertypesport.Assigner
}

func main() {
	cfg, err := config.Load(os.Getenv("MTFIELD_CONFIG"))
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	log := logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		types     memberTypeStore
		fields    fieldrepoport.Repository
		data      profiledataport.Repository
		idemStore idempotencyport.Store
		cleanup   func()
	)
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.Error("invalid postgres config", "error", err)
			os.Exit(1)
		}
		cleanup = pool.Close
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Error("migrate", "error", err)
			os.Exit(1)
		}
		types = pgmembertypes.NewRepo(pool)
		fields = pgfieldrepo.NewRepo(pool)
		data = pgprofiledata.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		types = memmembertypes.NewRepo()
		fields = memfieldrepo.NewRepo()
		data = memprofiledata.NewRepo()
		idemStore = memidempotency.NewStore()
	}
	if cleanup != nil {
		defer cleanup()
	}

	if cfg.SeedFile != "" {
		seeded, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Error("load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		n, err := seed.Apply(ctx, types, seeded)
		if err != nil {
			log.Error("apply seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		log.Info("member types seeded", "path", cfg.SeedFile, "registered", n, "declared", len(seeded))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	field := fieldtype.New(fieldtype.Deps{
		Registry: types,
		Fields:   fields,
		Data:     data,
		Session:  httpapi.NewSession(),
		Logger:   log,
		Metrics:  m,
	})
	ctrl := controller.New(controller.Deps{
		Field:    field,
		Fields:   fields,
		Data:     data,
		Registry: types,
		Assigner: types,
		Host: controller.HostCapabilities{
			FieldTypeRegistry: cfg.Host.FieldTypeRegistry,
			ProfileSearch:     cfg.Host.ProfileSearch,
		},
		Logger:  log,
		Metrics: m,
	})
	log.Info("controller installed", "events", ctrl.Installed())

	api := httpapi.NewServer(httpapi.ServerDeps{
		Field:      field,
		Controller: ctrl,
		Types:      ctrl.RegisterFieldTypes(nil),
		Fields:     fields,
		Data:       data,
		Assigner:   types,
		Idem:       idemStore,
		Clock:      platformclock.NewSystemClock(),
		Logger:     log,
	})
	opts := httpapi.RouterOptions{}
	if m != nil {
		opts.Metrics = m.Handler()
	}

	addr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouterWithOptions(api, opts),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("api listening", "addr", addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
