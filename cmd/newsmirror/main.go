package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/newsmirror/newsmirror/pkg/config"
	"github.com/newsmirror/newsmirror/pkg/domain"
	"github.com/newsmirror/newsmirror/pkg/remote"
	"github.com/newsmirror/newsmirror/pkg/store"
	engine "github.com/newsmirror/newsmirror/pkg/sync"
	"github.com/newsmirror/newsmirror/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"newsmirror.yml" description:"config file path"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] can't load config: %v", err)
		os.Exit(1)
	}

	setupLog(opts.Debug, cfg.Remote.Password)
	log.Printf("[INFO] starting newsmirror version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Debug); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, debug bool) error {
	st, err := store.New(store.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer st.Close()

	client := remote.NewClient(remote.Config{
		BaseURL:  cfg.Remote.URL,
		Username: cfg.Remote.Username,
		Password: cfg.Remote.Password,
		Timeout:  cfg.Remote.Timeout,
	})

	syncer := engine.NewSyncer(ctx, st, client, engine.Params{
		BatchSize: cfg.Sync.BatchSize,
		MaxItems:  cfg.Sync.MaxItems,
		PushDelay: cfg.Sync.PushDelay,
	})
	defer syncer.Close()

	go logSyncEvents(ctx, syncer)

	// kick off a full sync on startup, failures are reported as events and
	// retried on the next trigger
	if err := syncer.RequestSync(engine.KindFull, domain.Scope{}, 0); err != nil {
		log.Printf("[WARN] initial sync not started: %v", err)
	}

	srv := server.New(cfg, st, syncer, revision, debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func logSyncEvents(ctx context.Context, syncer *engine.Syncer) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-syncer.Events():
			switch {
			case e.Type == engine.EventStarted:
				log.Printf("[DEBUG] sync event: %s started", e.Kind)
			case e.Err != nil:
				log.Printf("[WARN] sync event: %s finished with error: %v", e.Kind, e.Err)
			default:
				log.Printf("[DEBUG] sync event: %s finished", e.Kind)
			}
		}
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.CallerFile, lgr.CallerFunc)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
