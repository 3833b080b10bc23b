package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apihttp "hourly-profiles/internal/api/http"
	"hourly-profiles/internal/audit"
	"hourly-profiles/internal/auth"
	"hourly-profiles/internal/notify"
	"hourly-profiles/internal/observability/metrics"
	"hourly-profiles/internal/profiles/application"
	"hourly-profiles/internal/profiles/infrastructure/csvfile"
	"hourly-profiles/internal/profiles/infrastructure/memory"
	profilerepo "hourly-profiles/internal/profiles/infrastructure/postgres"
	"hourly-profiles/internal/profiles/interfaces"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	pipelineCfg, err := application.LoadConfig(cfg.PipelineConfigPath)
	if err != nil {
		logger.Fatalf("pipeline config error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = pipelineCfg.DatabaseURL
	}
	if err := pipelineCfg.Validate(); err != nil {
		logger.Fatalf("pipeline config error: %v", err)
	}

	var (
		db          *sql.DB
		reader      application.ProfileReader
		sinks       []application.ResultSink
		auditLogger audit.Logger
		auditLister apihttp.AuditLister
	)
	store := memory.NewProfileStore()
	reader = store
	sinks = append(sinks, store)
	memoryAudit := audit.NewMemoryLog(0)
	auditLogger, auditLister = memoryAudit, memoryAudit
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		repo := profilerepo.NewProfileRepository(db)
		reader = repo
		sinks = append(sinks, repo)
		auditRepo := audit.NewRepository(db)
		auditLogger, auditLister = auditRepo, auditRepo
	}
	metrics.Init(db, logger)

	fileSinks, err := buildFileSinks(pipelineCfg.Outputs)
	if err != nil {
		logger.Fatalf("output config error: %v", err)
	}
	sinks = append(sinks, fileSinks...)

	sources, err := csvfile.SourcesFromConfig(pipelineCfg)
	if err != nil {
		logger.Fatalf("source config error: %v", err)
	}
	pipeline, err := application.NewPipeline(sources, pipelineCfg.Parameters, logger)
	if err != nil {
		logger.Fatalf("pipeline error: %v", err)
	}
	runService, err := application.NewRunService(pipeline, sinks...)
	if err != nil {
		logger.Fatalf("run service error: %v", err)
	}

	if cfg.DailyAt != "" {
		scheduler, err := application.NewScheduler(runService, cfg.DailyAt, logger)
		if err != nil {
			logger.Fatalf("scheduler error: %v", err)
		}
		go scheduler.Start(context.Background())
		logger.Printf("scheduler: daily run at %s UTC", cfg.DailyAt)
	}

	if cfg.RunOnStart {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
			defer cancel()
			if summary, err := runService.Trigger(ctx); err != nil {
				logger.Printf("startup run failed: %v", err)
			} else {
				logger.Printf("startup run=%s rows=%d", summary.RunID, summary.Rows)
			}
		}()
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/profiles", apihttp.NewProfilesHandler(reader))
	mux.Handle("/api/v1/runs", apihttp.NewRunsHandler(reader, runService, auditLogger, logger))
	mux.Handle("/api/v1/exports/profiles.csv", apihttp.NewExportCSVHandler(reader, auditLogger))
	mux.Handle("/api/v1/exports/profiles.xlsx", apihttp.NewExportXLSXHandler(reader, auditLogger))
	mux.Handle("/api/v1/reports/latest.pdf", apihttp.NewReportPDFHandler(reader, auditLogger))
	mux.Handle("/api/v1/audit", apihttp.NewAuditHandler(auditLister))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func buildFileSinks(outputs application.OutputConfig) ([]application.ResultSink, error) {
	var sinks []application.ResultSink
	if outputs.CSV != "" {
		sink, err := csvfile.NewSink(outputs.CSV)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if outputs.XLSX != "" {
		sink, err := interfaces.NewXLSXSink(outputs.XLSX)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if outputs.PDF != "" {
		sink, err := interfaces.NewPDFSink(outputs.PDF)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if outputs.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(outputs.WebhookURL, notify.WithReportURL(outputs.ReportURL)))
	}
	return sinks, nil
}

type config struct {
	DatabaseURL        string
	HTTPAddr           string
	JWTSecret          string
	PipelineConfigPath string
	RunOnStart         bool
	RunTimeout         time.Duration
	DailyAt            string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:        getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:          getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		PipelineConfigPath: getenvDefault("PROFILES_CONFIG", ""),
		RunOnStart:         getenvBoolDefault("PROFILES_RUN_ON_START", true),
		RunTimeout:         getenvDuration("PROFILES_RUN_TIMEOUT", 5*time.Minute),
		DailyAt:            getenvDefault("PROFILES_DAILY_AT", ""),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
