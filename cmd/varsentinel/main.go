package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"RiskSentinel/internal/api"
	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/config"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/pipeline"
	"RiskSentinel/internal/recorder"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "varsentinel",
	Short: "Monte Carlo value-at-risk for market instruments",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenv, _ := cmd.Flags().GetString("dotenv")
		if _, err := os.Stat(dotenv); err == nil {
			if err := godotenv.Load(dotenv); err != nil {
				return fmt.Errorf("load %s: %w", dotenv, err)
			}
		}

		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			path = "configs/config.yaml"
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			loaded.Log.Level = "debug"
		}
		logger.Setup(logger.Options{
			Level:      loaded.Log.Level,
			File:       loaded.Log.File,
			MaxSizeMB:  loaded.Log.MaxSizeMB,
			MaxBackups: loaded.Log.MaxBackups,
		})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default configs/config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().String("dotenv", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")

	rootCmd.AddCommand(runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("cannot execute command")
	}
}

func newFetcher(c *config.Config) collector.Fetcher {
	switch c.DataSource.Provider {
	case "vstrader":
		return collector.NewVsTraderFetcher(c.DataSource.BaseURL, c.DataSource.APIKey, c.Proxy)
	case "mock":
		return &collector.MockFetcher{Days: c.DataSource.LookbackDays, Volatility: 0.01, Seed: 1}
	default:
		return collector.NewYahooFetcher(c.Proxy)
	}
}

// openStore returns the archival store and, when the store can be queried,
// a reader for archived reports.
func openStore(ctx context.Context, c *config.Config) (recorder.Store, api.ReportReader, error) {
	switch c.Store.Kind {
	case "sqlite":
		sr, err := recorder.NewSQLiteRecorder(c.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sr, sr, nil
	case "parquet":
		var sink recorder.BlobSink = &recorder.LocalSink{Dir: c.Store.Parquet.Dir}
		if s3cfg := c.Store.Parquet.S3; s3cfg.Bucket != "" {
			s3sink, err := recorder.NewS3Sink(ctx, recorder.S3Options{
				Bucket:          s3cfg.Bucket,
				Prefix:          s3cfg.Prefix,
				Region:          s3cfg.Region,
				AccessKeyID:     s3cfg.AccessKeyID,
				SecretAccessKey: s3cfg.SecretAccessKey,
			})
			if err != nil {
				return nil, nil, err
			}
			sink = s3sink
		}
		return recorder.NewParquetRecorder(sink, c.Store.Parquet.Compression), nil, nil
	default:
		return recorder.NewNoopRecorder(), nil, nil
	}
}

func newEngine(ctx context.Context, c *config.Config) (*pipeline.Engine, api.ReportReader, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	store, reader, err := openStore(ctx, c)
	if err != nil {
		log.WithError(err).Warn("init store failed, using noop")
		store, reader = recorder.NewNoopRecorder(), nil
	}

	fetcher := newFetcher(c)
	log.Infof("data source: %s, store: %s", fetcher.Name(), c.Store.Kind)

	engine := pipeline.NewEngine(fetcher, store, c.Pipeline())
	engine.ArchiveMode, _ = recorder.ParseWriteMode(c.Store.Mode)
	engine.ArchiveSamples = *c.Store.ArchiveSamples
	return engine, reader, nil
}
