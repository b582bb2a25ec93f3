package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/uhyunpark/matchbook/params"
	"github.com/uhyunpark/matchbook/pkg/api"
	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
	"github.com/uhyunpark/matchbook/pkg/feed"
	"github.com/uhyunpark/matchbook/pkg/feeder"
	"github.com/uhyunpark/matchbook/pkg/journal"
	"github.com/uhyunpark/matchbook/pkg/metrics"
	"github.com/uhyunpark/matchbook/pkg/util"
	"github.com/uhyunpark/matchbook/pkg/venue"
)

func main() {
	envPath := flag.String("env", "", "path to .env file (default: ./.env)")
	flag.Parse()

	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv(*envPath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// Empty LOG_FILE logs to the console only
	level := util.ParseLevel(cfg.Log.Level)
	newLogger := func() (*zap.Logger, error) { return util.NewLogger(level) }
	if cfg.Log.File != "" {
		newLogger = func() (*zap.Logger, error) { return util.NewLoggerWithFile(cfg.Log.File, level) }
	}
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File, "level", cfg.Log.Level)

	// ---- Engine ----
	b, err := book.New(book.Kind(cfg.Engine.BookStrategy))
	if err != nil {
		sugar.Fatalw("book_init_failed", "err", err)
	}
	eng := engine.New(b, util.RealClock{})

	// ---- Observers ----
	// Registered before the sequencer starts; the engine is not shared after that.
	m := metrics.New()
	eng.Observe(m)

	var j *journal.Journal
	if cfg.Sinks.JournalDir != "" {
		j, err = journal.Open(cfg.Sinks.JournalDir, sugar)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "dir", cfg.Sinks.JournalDir, "err", err)
		}
		defer j.Close()
		eng.Observe(j)
		sugar.Infow("journal_enabled", "dir", cfg.Sinks.JournalDir)
	}

	if cfg.Sinks.NATSURL != "" {
		f, err := feed.Connect(cfg.Sinks.NATSURL, cfg.Sinks.NATSSubject, sugar)
		if err != nil {
			sugar.Fatalw("nats_connect_failed", "url", cfg.Sinks.NATSURL, "err", err)
		}
		defer f.Close()
		eng.Observe(f)
		sugar.Infow("feed_enabled", "url", cfg.Sinks.NATSURL, "subject", cfg.Sinks.NATSSubject)
	}

	seq := venue.NewSequencer(eng, sugar)
	sampler := venue.NewSampler(seq, util.RealClock{}, cfg.Engine.PriceSamples, cfg.Engine.PriceGap)

	apiServer := api.NewServer(seq, sampler, sugar)
	apiServer.Journal = j
	apiServer.Metrics = m.Handler()
	eng.Observe(apiServer.Hub())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				sugar.Fatalw(name+"_failed", "err", err)
			}
		}()
	}

	sugar.Infow("venue_starting",
		"book_strategy", cfg.Engine.BookStrategy,
		"serve_mode", cfg.Server.ServeMode,
		"match_interval_ms", cfg.Engine.MatchInterval.Milliseconds())

	run("sequencer", seq.Run)

	// ---- Wire gateway ----
	gw := venue.NewGateway(venue.GatewayConfig{
		Addr:         cfg.Server.TCPAddr,
		Mode:         cfg.Server.ServeMode,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxFrame:     cfg.Server.MaxFrame,
	}, venue.NewDispatcher(seq), sugar)
	gw.Requests = m
	run("gateway", gw.ListenAndServe)

	// ---- Matcher ----
	matcher := venue.NewMatcher(seq, cfg.Engine.MatchInterval, util.RealClock{}, sugar)
	run("matcher", matcher.Run)

	// ---- API Server ----
	run("api_server", func(ctx context.Context) error {
		return apiServer.ListenAndServe(ctx, cfg.Server.APIAddr)
	})

	// ---- Order Feeder (optional) ----
	// Enable with: ENABLE_FEEDER=true FEEDER_MODE=gaussian|randomwalk
	if cfg.Feeder.Enabled {
		run("feeder", func(ctx context.Context) error {
			_, err := feeder.Run(ctx, seq, feeder.Config{
				Mode:     cfg.Feeder.Mode,
				Interval: cfg.Feeder.Interval,
				Mean:     cfg.Feeder.Mean,
			}, util.RealClock{}, sugar)
			return err
		})
	} else {
		sugar.Info("feeder_disabled")
	}

	<-ctx.Done()
	sugar.Info("venue_stopping")
	wg.Wait()
	sugar.Info("venue_stopped")
}
