// Command linreg fits one linear model per bucket of a CSV file.
//
// Observations are spread over partition workers, each partition's partial
// aggregation is encoded as a shard (and optionally checkpointed to BoltDB),
// and the shards are merged and evaluated. Settings come from a YAML file,
// a .env file, LINREG_* environment variables and flags, in increasing order
// of precedence.
//
// Usage:
//
//	linreg -input data.csv -key region -response y -partitions 8 -compression zstd
//	linreg -checkpoints run.db -resume
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arloliu/linreg/internal/cfg"
	"github.com/arloliu/linreg/internal/dataset"
	"github.com/arloliu/linreg/internal/pipeline"
	"github.com/arloliu/linreg/metrics"
	"github.com/arloliu/linreg/regression"
	"github.com/arloliu/linreg/shard"
	"github.com/arloliu/linreg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("linreg failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	settings, err := loadSettings(args)
	if err != nil {
		return err
	}

	level, _ := settings.Level()
	logger := log.Logger.Level(level)

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)

	est, err := regression.NewEstimator(
		regression.WithStatistics(settings.Estimator.Statistics),
		regression.WithPositivityThreshold(settings.Estimator.PositivityThreshold),
		regression.WithLogger(logger),
		regression.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	opts, closeCheckpoints, err := pipelineOptions(settings, est, m, logger)
	if err != nil {
		return err
	}
	defer closeCheckpoints()

	var res *pipeline.Result
	if settings.Pipeline.Resume {
		logger.Info().Str("checkpoints", settings.Pipeline.CheckpointPath).Msg("reducing stored checkpoints")

		cps, err := storage.Open(settings.Pipeline.CheckpointPath)
		if err != nil {
			return err
		}
		defer cps.Close()

		res, err = pipeline.ReduceCheckpoints(ctx, cps, opts...)
		if err != nil {
			return err
		}
	} else {
		records, names, err := dataset.ReadFile(settings.Input.Path, dataset.Schema{
			Header:         settings.Input.Header,
			Comma:          settings.Comma(),
			KeyColumn:      settings.Input.KeyColumn,
			ResponseColumn: settings.Input.ResponseColumn,
			FeatureColumns: settings.Input.FeatureColumns,
		})
		if err != nil {
			return err
		}
		logger.Info().
			Str("input", settings.Input.Path).
			Int("records", len(records)).
			Strs("features", names).
			Msg("dataset loaded")

		res, err = pipeline.Run(ctx, records, opts...)
		if err != nil {
			return err
		}
	}

	for _, p := range res.Partitions {
		logger.Debug().
			Str("partition", p.Name).
			Int("records", p.Records).
			Int("buckets", p.Buckets).
			Int("shard_bytes", p.ShardSize).
			Msg("partition summary")
	}

	if err := report(out, res, settings.Prediction); err != nil {
		return err
	}

	if path := settings.System.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.Debug().Str("path", path).Msg("metrics written")
	}

	return nil
}

func loadSettings(args []string) (cfg.Settings, error) {
	fs := flag.NewFlagSet("linreg", flag.ContinueOnError)

	var (
		configPath  = fs.String("config", "", "YAML configuration file")
		envPath     = fs.String("env", ".env", "dotenv file, ignored when missing")
		input       = fs.String("input", "", "observation CSV file")
		key         = fs.String("key", "", "bucket key column")
		response    = fs.String("response", "", "response column")
		features    = fs.String("features", "", "comma-separated feature columns")
		partitions  = fs.Int("partitions", 0, "number of partitions")
		compression = fs.String("compression", "", "shard compression: none, zstd, s2, lz4")
		checkpoints = fs.String("checkpoints", "", "BoltDB checkpoint file")
		resume      = fs.Bool("resume", false, "reduce stored checkpoints instead of reading input")
		logLevel    = fs.String("log-level", "", "log level")
		metricsFile = fs.String("metrics-file", "", "write Prometheus metrics to this file")
	)
	if err := fs.Parse(args); err != nil {
		return cfg.Settings{}, err
	}

	if err := cfg.LoadDotEnv(*envPath); err != nil {
		return cfg.Settings{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	return cfg.LoadWithOverrides(*configPath, func(s *cfg.Settings) {
		if set["input"] {
			s.Input.Path = *input
		}
		if set["key"] {
			s.Input.KeyColumn = *key
		}
		if set["response"] {
			s.Input.ResponseColumn = *response
		}
		if set["features"] {
			s.Input.FeatureColumns = nil
			for _, c := range strings.Split(*features, ",") {
				if c = strings.TrimSpace(c); c != "" {
					s.Input.FeatureColumns = append(s.Input.FeatureColumns, c)
				}
			}
		}
		if set["partitions"] {
			s.Pipeline.Partitions = *partitions
		}
		if set["compression"] {
			s.Pipeline.Compression = *compression
		}
		if set["checkpoints"] {
			s.Pipeline.CheckpointPath = *checkpoints
		}
		if set["resume"] {
			s.Pipeline.Resume = *resume
		}
		if set["log-level"] {
			s.System.LogLevel = *logLevel
		}
		if set["metrics-file"] {
			s.System.MetricsFile = *metricsFile
		}
	})
}

func pipelineOptions(settings cfg.Settings, est *regression.Estimator, m *metrics.Metrics, logger zerolog.Logger) ([]pipeline.Option, func(), error) {
	compression, err := settings.CompressionType()
	if err != nil {
		return nil, nil, err
	}

	encOpts := []shard.EncoderOption{shard.WithCompression(compression)}
	if settings.Pipeline.BigEndian {
		encOpts = append(encOpts, shard.WithBigEndian())
	}

	opts := []pipeline.Option{
		pipeline.WithPartitions(settings.Pipeline.Partitions),
		pipeline.WithEncoderOptions(encOpts...),
		pipeline.WithEstimator(est),
		pipeline.WithMetrics(m),
		pipeline.WithLogger(logger),
	}

	if settings.Pipeline.Resume || settings.Pipeline.CheckpointPath == "" {
		return opts, func() {}, nil
	}

	cps, err := storage.Open(settings.Pipeline.CheckpointPath)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := cps.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close checkpoint store")
		}
	}

	return append(opts, pipeline.WithCheckpoints(cps)), closeFn, nil
}

func report(out io.Writer, res *pipeline.Result, predictions [][]float64) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "BUCKET\tSTATE\tCOUNT\tMODEL\tRSS\tMSE\tR2")
	for _, br := range res.Buckets {
		r := br.Result
		model, rss, mse, r2 := "-", "-", "-", "-"
		if r.Estimated() {
			model = r.Model.Formula()
		} else if r.Reason != nil {
			model = r.Reason.Error()
		}
		if r.Statistics != nil {
			rss = fmt.Sprintf("%.6g", r.Statistics.RSS)
			mse = fmt.Sprintf("%.6g", r.Statistics.MSE)
			r2 = fmt.Sprintf("%.6f", r.Statistics.R2)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", res.Key(br.Ordinal), r.State, r.Count, model, rss, mse, r2)
	}

	if len(predictions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "BUCKET\tINPUTS\tPREDICTION")
		for _, br := range res.Buckets {
			for _, inputs := range predictions {
				fmt.Fprintf(w, "%s\t%v\t%.6g\n", res.Key(br.Ordinal), inputs, br.Result.Value(inputs))
			}
		}
	}

	return w.Flush()
}
