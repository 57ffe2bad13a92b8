package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"webshield/bodyparsing"
	"webshield/config"
	"webshield/customrule"
	"webshield/logging"
	"webshield/secctx"
	"webshield/server"
	"webshield/waf"
)

// Dependency injection composition root
func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file. Defaults are used when not set.")
	logLevel := flag.String("loglevel", "", "overrides the configured log level. Can be one of: debug, info, warn, error, fatal, panic.")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	loglevel, _ := zerolog.ParseLevel(level)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(loglevel).With().Timestamp().Caller().Logger()

	var rules []customrule.Rule
	if cfg.AppSec.RulesFile != "" {
		var err error
		rules, err = customrule.LoadRulesFile(cfg.AppSec.RulesFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("Error while loading rules")
		}
	}

	engine, err := customrule.NewEngine(logger, rules)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error while creating rule engine")
	}

	resultsLogger := logging.NewZerologResultsLogger(logger)
	reopenLogFileCh := make(chan bool)
	if cfg.Logging.ResultsFile != "" {
		resultsLogger, err = logging.NewFileResultsLogger(&logging.LogFileSystemImpl{}, logger, cfg.Logging.ResultsFile, reopenLogFileCh)
		if err != nil {
			logger.Fatal().Err(err).Msg("Error while creating file results logger")
		}
	}

	rbp := bodyparsing.NewRequestBodyParser(waf.LengthLimits{
		MaxLengthField:    cfg.AppSec.BodyLimits.MaxLengthField,
		MaxLengthPausable: cfg.AppSec.BodyLimits.MaxLengthPausable,
		MaxLengthTotal:    cfg.AppSec.BodyLimits.MaxLengthTotal,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "hello %s\n", r.URL.Path)
	})

	var handler http.Handler = mux
	if cfg.AppSec.Enabled {
		pool := secctx.NewPool(logger, 128)
		mw := server.NewMiddleware(logger, pool, engine, engine.RequiredAddresses(), nil, rbp, resultsLogger, cfg.AppSec.HeadersCaseSensitive)
		handler = mw.Wrap(mux)
	} else {
		logger.Warn().Msg("Security coordination layer is disabled")
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Server.Addr).Msg("Failed to listen")
	}
	if cfg.Server.MaxConcurrentConns > 0 {
		lis = netutil.LimitListener(lis, cfg.Server.MaxConcurrentConns)
	}

	srv := &http.Server{Handler: handler}

	var group errgroup.Group
	group.Go(func() error {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Listening")
		err := srv.Serve(lis)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	group.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				// Rotate the results log file.
				select {
				case reopenLogFileCh <- true:
				default:
				}
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
}
