package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/config"
	"github.com/BryceStandley/ManifestToScale/internal/converter"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
	"github.com/BryceStandley/ManifestToScale/internal/metrics"
	"github.com/BryceStandley/ManifestToScale/internal/notify"
	"github.com/BryceStandley/ManifestToScale/internal/store"
	"github.com/BryceStandley/ManifestToScale/internal/store/postgres"
	"github.com/BryceStandley/ManifestToScale/internal/store/sqlite"
	"github.com/BryceStandley/ManifestToScale/pkg/utils"
)

// app holds the components shared by the process and serve commands.
type app struct {
	files     *utils.FileManager
	store     store.Store
	converter *converter.Converter
	closers   []func() error
}

// openStore opens the configured processed manifest store. It returns nil
// for the "none" driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// newApp wires the converter and its backends from the main configuration.
//
// PARAMETERS:
//   - dryRun: Disables every write (store, sinks, notifications).
//   - defaultCompany: When valid, used for every file instead of the
//     configured default and patterns.
func newApp(ctx context.Context, cfg *config.MainConfig, log logging.Logger, dryRun bool, defaultCompany company.Company) (*app, error) {
	a := &app{
		files: utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir),
	}

	if err := a.files.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest store: %w", err)
	}
	if st != nil {
		a.store = st
		a.closers = append(a.closers, st.Close)
		log.Info("Using %s manifest store", cfg.Database.Driver)
	}

	sinks := utils.MultiSink{a.files}
	if cfg.S3.Enabled() {
		s3Sink, err := utils.NewS3Sink(ctx, utils.S3Config{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
			UseSSL:          cfg.S3.UseSSL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to configure S3 sink: %w", err)
		}
		sinks = append(sinks, s3Sink)
		log.Info("Archiving Scale files to s3://%s", cfg.S3.Bucket)
	}

	notifiers := notify.Multi{notify.LogNotifier{Logger: log}}
	if cfg.NATS.Enabled() && !dryRun {
		stanNotifier, err := notify.DialStan(notify.StanConfig{
			ClusterID: cfg.NATS.ClusterID,
			ClientID:  cfg.NATS.ClientID,
			URL:       cfg.NATS.URL,
			Subject:   cfg.NATS.Subject,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect notifier: %w", err)
		}
		notifiers = append(notifiers, stanNotifier)
		a.closers = append(a.closers, stanNotifier.Close)
		log.Info("Publishing results to %s", cfg.NATS.Subject)
	}

	// A forced company applies to every file, so patterns are skipped.
	var patterns []converter.CompanyPattern
	if !defaultCompany.Valid() {
		defaultCompany = cfg.DefaultCompany()
		for _, p := range cfg.CompanyPatterns() {
			patterns = append(patterns, converter.CompanyPattern{Pattern: p.Pattern, Company: p.Company})
		}
	}

	a.converter = converter.New(converter.Options{
		Logger:          log,
		Store:           a.store,
		Notifier:        notifiers,
		Sinks:           sinks,
		Files:           a.files,
		Metrics:         metrics.NewRecorder(),
		NameFormat:      cfg.UUIDFormat,
		DryRun:          dryRun,
		DefaultCompany:  defaultCompany,
		CompanyPatterns: patterns,
	})
	return a, nil
}

// Close releases the store and notifier connections.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
