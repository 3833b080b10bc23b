package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"hourly-profiles/internal/notify"
	"hourly-profiles/internal/observability/metrics"
	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
	"hourly-profiles/internal/profiles/infrastructure/csvfile"
	profilerepo "hourly-profiles/internal/profiles/infrastructure/postgres"
	"hourly-profiles/internal/profiles/interfaces"
)

type flags struct {
	configPath string
	demand     string
	solar      string
	wind       string
	out        string
	xlsx       string
	pdf        string
	textfile   string
	webhook    string
	dbURL      string
	cutover    string
	noCutover  bool
	solarCF    float64
	windCF     float64
}

func main() {
	f := parseFlags()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := buildConfig(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "YAML config path (default PROFILES_CONFIG)")
	flag.StringVar(&f.demand, "demand", "", "demand CSV path")
	flag.StringVar(&f.solar, "solar", "", "solar CSV path")
	flag.StringVar(&f.wind, "wind", "", "wind CSV path")
	flag.StringVar(&f.out, "out", "", "merged CSV output path")
	flag.StringVar(&f.xlsx, "xlsx", "", "XLSX workbook output path (optional)")
	flag.StringVar(&f.pdf, "pdf", "", "PDF run report output path (optional)")
	flag.StringVar(&f.textfile, "metrics-textfile", "", "write prometheus metrics to this textfile (optional)")
	flag.StringVar(&f.webhook, "webhook", "", "webhook URL announcing the run (optional)")
	flag.StringVar(&f.dbURL, "db", "", "Postgres DSN to store the run (optional)")
	flag.StringVar(&f.cutover, "cutover", "", "first datehour key to keep, YYYYMMDDHH")
	flag.BoolVar(&f.noCutover, "no-cutover", false, "keep every merged row")
	flag.Float64Var(&f.solarCF, "solar-cf", 0, "solar target capacity factor")
	flag.Float64Var(&f.windCF, "wind-cf", 0, "wind target capacity factor")
	flag.Parse()
	return f
}

func buildConfig(f flags) (application.Config, error) {
	cfg, err := application.LoadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	overrides := []struct {
		value  string
		target *string
	}{
		{f.demand, &cfg.Demand.Path},
		{f.solar, &cfg.Solar.Path},
		{f.wind, &cfg.Wind.Path},
		{f.out, &cfg.Outputs.CSV},
		{f.xlsx, &cfg.Outputs.XLSX},
		{f.pdf, &cfg.Outputs.PDF},
		{f.textfile, &cfg.Outputs.MetricsTextfile},
		{f.webhook, &cfg.Outputs.WebhookURL},
		{f.dbURL, &cfg.DatabaseURL},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}
	if f.cutover != "" && f.noCutover {
		return cfg, errors.New("-cutover and -no-cutover are exclusive")
	}
	if f.cutover != "" {
		cfg.Parameters.Cutover = profiles.DatehourKey(f.cutover)
	}
	if f.noCutover {
		cfg.Parameters.Cutover = ""
	}
	if f.solarCF != 0 {
		cfg.Parameters.SolarCapacityFactor = f.solarCF
	}
	if f.windCF != 0 {
		cfg.Parameters.WindCapacityFactor = f.windCF
	}
	if cfg.Outputs.CSV == "" {
		return cfg, errors.New("missing -out or PROFILES_OUT_CSV")
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg application.Config, logger *log.Logger) error {
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
	}
	metrics.Init(nil, logger)

	sources, err := csvfile.SourcesFromConfig(cfg)
	if err != nil {
		return err
	}
	pipeline, err := application.NewPipeline(sources, cfg.Parameters, logger)
	if err != nil {
		return err
	}

	csvSink, err := csvfile.NewSink(cfg.Outputs.CSV)
	if err != nil {
		return err
	}
	sinks := []application.ResultSink{csvSink}
	if cfg.Outputs.XLSX != "" {
		sink, err := interfaces.NewXLSXSink(cfg.Outputs.XLSX)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Outputs.PDF != "" {
		sink, err := interfaces.NewPDFSink(cfg.Outputs.PDF)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
	}
	if db != nil {
		sinks = append(sinks, profilerepo.NewProfileRepository(db))
	}
	if cfg.Outputs.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(cfg.Outputs.WebhookURL, notify.WithReportURL(cfg.Outputs.ReportURL)))
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		writeTextfile(cfg.Outputs.MetricsTextfile, logger)
		return err
	}
	publishErr := pipeline.Publish(ctx, result, sinks...)
	writeTextfile(cfg.Outputs.MetricsTextfile, logger)
	if publishErr != nil {
		return publishErr
	}

	fmt.Printf("Merged %d rows (%s to %s) into %s, run %s\n",
		len(result.Rows), result.Summary().FirstKey, result.Summary().LastKey, cfg.Outputs.CSV, result.RunID)
	return nil
}

func writeTextfile(path string, logger *log.Logger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Printf("metrics textfile %s: %v", path, err)
	}
}
