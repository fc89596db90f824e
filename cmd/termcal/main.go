package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"termcal/internal/config"
	"termcal/internal/ingest"
	appLog "termcal/internal/log"
	"termcal/internal/store"
	"termcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	flags := parseFlags()

	appLog.Init(flags.debug)
	defer appLog.Sync()
	appLog.Info("termcal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"parser_url", conf.ParserURL,
		"session_ttl_minutes", conf.SessionTTLMinutes,
		"sweep", conf.SweepCron,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	var parser *ingest.Client
	if conf.ParserURL != "" {
		parser = ingest.NewClient(conf.ParserURL, conf.CacheDir)
	}

	terms := store.New(conf.SessionTTL())

	// Periodic eviction of expired term sessions.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(conf.SweepCron, func() {
		if n := terms.Sweep(time.Now()); n > 0 {
			appLog.Info("swept expired term sessions", "removed", n, "remaining", terms.Len())
		}
	}); err != nil {
		appLog.Error("invalid sweep cron expression", err, "sweep", conf.SweepCron)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	if err := web.StartServer(ctx, conf, parser, terms); err != nil {
		appLog.Error("HTTP server stopped", err)
		os.Exit(1)
	}

	appLog.Info("termcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/termcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Verbose development logging")

	flag.Parse()

	return cfg
}
