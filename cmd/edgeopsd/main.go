package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edgeops/deploy/pkg/api"
	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/conftools"
	"github.com/edgeops/deploy/pkg/d1"
	"github.com/edgeops/deploy/pkg/logging"
	"github.com/edgeops/deploy/pkg/orchestrator"
	"github.com/edgeops/deploy/pkg/secrets"
	"github.com/edgeops/deploy/pkg/tools"
	"github.com/edgeops/deploy/pkg/version"
)

var maskedConfig = []string{
	config.CloudflareApiToken,
	config.DatabaseUrl,
	config.FrontendKeys,
}

const databaseConnectBackoffInterval = 3 * time.Second

func run() error {
	cfg := config.Initialize()
	err := conftools.Load(cfg)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	// Welcome
	log.Infof("edgeopsd %s", version.Version())
	ts, err := version.BuildTime()
	if err == nil {
		log.Infof("This version was built %s", ts.Local())
	}

	for _, line := range conftools.Format(maskedConfig) {
		log.Info(line)
	}

	if !cfg.Cloudflare.HasCredentials() {
		log.Warn("Cloudflare credentials not configured; all provisioning tools will refuse to run")
	}

	var auditor audit.Recorder = audit.Discard{}
	if len(cfg.DatabaseURL) > 0 {
		var db *audit.Database
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseConnectTimeout)
		for {
			log.Infof("Connecting to audit database...")
			db, err = audit.New(ctx, cfg.DatabaseURL)
			if err == nil {
				log.Infof("Audit database connection established.")
				break
			} else if ctx.Err() != nil {
				break
			} else {
				log.Errorf("unable to connect to audit database: %s", err)
				time.Sleep(databaseConnectBackoffInterval)
			}
		}
		cancel()
		if err != nil {
			return fmt.Errorf("setup postgres connection: %s", err)
		}

		err = db.Migrate(context.Background())
		if err != nil {
			return fmt.Errorf("migrating audit database: %s", err)
		}

		auditor = db
	} else {
		log.Warn("No audit database configured; audit records will be discarded")
	}

	client := cloudflare.NewClient(cfg.Cloudflare)
	registry := tools.DefaultRegistry(tools.AllowListPolicy(cfg.AdminUsers), tools.Deps{
		Cloudflare:   cfg.Cloudflare,
		Client:       client,
		D1:           d1.NewClient(cfg.Cloudflare),
		Orchestrator: orchestrator.New(client, auditor, cfg.Cloudflare),
		Secrets:      secrets.NewProcessor(client, auditor),
		Auditor:      auditor,
	})

	router := api.New(api.Config{
		Registry:     registry,
		FrontendKeys: cfg.FrontendKeys,
		MetricsPath:  cfg.MetricsPath,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router,
	}

	go func() {
		log.Infof("HTTP server started on %s", cfg.ListenAddress)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server: %s", err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)

	sig := <-signals
	log.Infof("Received signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	return server.Shutdown(ctx)
}

func main() {
	err := run()
	if err != nil {
		log.Errorf("Fatal error: %s", err)
		os.Exit(1)
	}
}
