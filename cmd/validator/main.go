package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/ai"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/config"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/events"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/extract"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/geo"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/httpapi"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/netutil"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/secrets"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate/comeet"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate/greenhouse"
)

func main() {
	// .env is optional; env vars set by the shell win either way.
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBVALIDATOR_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fatal("could not create data dir", err)
	}

	// Single instance per data dir: two processes sharing one sqlite file
	// and one browser profile ends badly.
	lock := flock.New(filepath.Join(dataDir, "validator.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		fatal("could not acquire instance lock", err)
	}
	if !locked {
		fatal("another validator instance owns this data dir", nil)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		fatal("config bootstrap failed", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		fatal("config load failed", err)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	db, err := store.Open(filepath.Join(dataDir, "postings.db"))
	if err != nil {
		fatal("db open failed", err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		fatal("db migrate failed", err)
	}

	openAIKey, err := secrets.APIKey(cfg.OpenAI.APIKeyEnv, secrets.AccountOpenAI)
	if err != nil {
		log.Warn("openai key unavailable, AI extraction tiers will fail", "err", err)
	}
	openCageKey, err := secrets.APIKey(cfg.OpenCage.APIKeyEnv, secrets.AccountOpenCage)
	if err != nil {
		log.Warn("opencage key unavailable, geocoding tier will fail closed", "err", err)
	}

	limiter := netutil.NewHostLimiter(cfg.RateLimit.ReqPerSec, cfg.RateLimit.Burst)
	aiClient := ai.NewOpenAIClient(cfg.OpenAI.BaseURL, openAIKey, cfg.OpenAI.Model, netutil.NewClient(cfg.OpenAITimeout()), log)
	geocoder := geo.NewOpenCageClient(cfg.OpenCage.Endpoint, openCageKey, cfg.OpenCage.Limit, cfg.OpenCage.Language, netutil.NewClient(cfg.OpenCageTimeout()), limiter)
	classifier := geo.NewClassifier(cfg.Region.Country, cfg.Region.Code, geocoder, aiClient, log)
	chain := extract.NewChain(aiClient, cfg.OpenAI.MaxHTMLBytes, log)

	// Curated aliases from the db first, config on top so a user edit
	// always wins over whatever was learned earlier.
	knownLocations, err := store.KnownLocations(context.Background(), db.Pool)
	if err != nil {
		log.Warn("could not load known locations from db", "err", err)
		knownLocations = map[string]string{}
	}
	for raw, canonical := range cfg.Region.KnownLocations {
		knownLocations[raw] = canonical
	}

	registry := validate.NewRegistry(
		greenhouse.Deps{
			HTTP:       netutil.NewClient(0),
			Limiter:    limiter,
			Classifier: classifier,
			Chain:      chain,
			Log:        log,
		},
		comeet.Deps{
			Classifier:      classifier,
			Chain:           chain,
			KnownLocations:  knownLocations,
			PageLoadTimeout: cfg.PageLoadTimeout(),
			Log:             log,
		},
	)

	hub := events.NewHub()
	orch := &validate.Orchestrator{
		DB:            db.Pool,
		Registry:      registry,
		Hub:           hub,
		Log:           log,
		BatchSize:     cfg.Validation.BatchSize,
		LinkPatterns:  cfg.Validation.LinkPatterns,
		AllowedFields: validate.AllowedFields,
	}

	var runStatus atomic.Value
	runStatus.Store(httpapi.RunStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		DB:        db.Pool,
		Hub:       hub,
		RunStatus: &runStatus,
		RunBatch:  orch.RunBatch,
		RunOne:    orch.RunOne,
		Summarize: func(ctx context.Context, id int64) (string, error) {
			return validate.Summarize(ctx, db.Pool, aiClient, id)
		},
		SetOpenAIKey: func(k string) error {
			return secrets.SetAPIKey(secrets.AccountOpenAI, k)
		},
		SetOpenCageKey: func(k string) error {
			return secrets.SetAPIKey(secrets.AccountOpenCage, k)
		},
	})

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fatal("listen failed", err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover(log),
			httpapi.AccessLog(log),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		fatal("token generation failed", err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	if err := writeTokenFile(dataDir, token); err != nil {
		log.Warn("could not write shutdown token file", "err", err)
	}

	log.Info("validator listening", "addr", addr, "data_dir", dataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		fatal("server failed", err)
	}
	log.Info("validator stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func fatal(msg string, err error) {
	if err != nil {
		slog.Error(msg, "err", err)
	} else {
		slog.Error(msg)
	}
	os.Exit(1)
}
