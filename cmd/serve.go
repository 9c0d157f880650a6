// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/access-service/internal/cache"
	"github.com/canonical/access-service/internal/config"
	"github.com/canonical/access-service/internal/db"
	"github.com/canonical/access-service/internal/identity"
	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring/prometheus"
	"github.com/canonical/access-service/internal/storage"
	"github.com/canonical/access-service/internal/tracing"
	"github.com/canonical/access-service/pkg/audit"
	"github.com/canonical/access-service/pkg/rbac"
	"github.com/canonical/access-service/pkg/resolver"
	"github.com/canonical/access-service/pkg/tenant"
	"github.com/canonical/access-service/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("access-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	// One cache instance shared by tenant resolution and policy
	// loading, constructed here and injected so tests can build their
	// own isolated instances.
	cacheService := cache.New(specs.CacheJanitorInterval)
	defer cacheService.Shutdown()

	resolverService := resolver.NewService(s, cacheService, specs.DefaultTenantID, specs.TenantCacheTTL, tracer, monitor, logger)
	rbacService := rbac.NewService(s, cacheService, specs.PolicyCacheTTL, tracer, monitor, logger)
	auditService := audit.NewService(s, tracer, monitor, logger)

	auditRecorder := audit.NewRecorder(s, specs.AuditQueueSize, tracer, monitor, logger)

	identityMiddleware := identity.NewMiddleware(tracer, monitor, logger)
	resolverMiddleware := resolver.NewMiddleware(resolverService, tracer, monitor, logger)
	rbacMiddleware := rbac.NewMiddleware(rbacService, tracer, monitor, logger)
	auditAPI := audit.NewAPI(auditService, tracer, monitor, logger)
	tenantAPI := tenant.NewAPI(resolverService, auditRecorder, tracer, monitor, logger)

	router := web.NewRouter(
		resolverMiddleware,
		identityMiddleware,
		rbacMiddleware,
		auditAPI,
		tenantAPI,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	// Drain pending audit writes before the process exits.
	if err := auditRecorder.Shutdown(ctx); err != nil {
		logger.Errorf("audit recorder shutdown: %v", err)
	}

	return serverError
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
