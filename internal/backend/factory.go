package backend

import (
	"context"
	"fmt"
	"time"

	"ytearnings/internal/amqp"
	"ytearnings/internal/config"
	"ytearnings/internal/log"
	"ytearnings/internal/sheets"
	gsheet "ytearnings/internal/sheets/google"
	"ytearnings/internal/sheets/memory"
	"ytearnings/internal/sheets/xlsx"
	"ytearnings/internal/source"
	"ytearnings/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Build wires source, sink, ledger and events. A dry run always uses the
// in-memory sink and skips the ledger and events.
func (f *DefaultFactory) Build(ctx context.Context, cfg *config.Config, dryRun bool) (*Result, error) {
	res := &Result{}
	ok := false
	defer func() {
		if !ok {
			_ = res.Close()
		}
	}()

	src, err := f.createSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res.Source = src

	if dryRun {
		res.Sink = memory.New()
		f.logger.InfoContext(ctx, "Dry run: using in-memory sink")
		ok = true
		return res, nil
	}

	if res.Sink, err = f.createSink(ctx, cfg, res); err != nil {
		return nil, err
	}

	if cfg.LedgerDBPath != "" {
		repo, err := storage.NewSQLiteRepository(cfg.LedgerDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ledger: %w", err)
		}
		res.Store = repo
		res.onClose(repo.Close)
		f.logger.InfoContext(ctx, "Initialized ledger", "db_path", cfg.LedgerDBPath)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 3)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			res.Events = client
			res.onClose(client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ok = true
	return res, nil
}

func (f *DefaultFactory) createSource(ctx context.Context, cfg *config.Config) (sheets.ReportSource, error) {
	switch cfg.SourceBackend {
	case config.SourceLocal:
		f.logger.InfoContext(ctx, "Using local report source", "dir", cfg.SourceDir)
		return source.NewDir(cfg.SourceDir), nil
	case config.SourceDrive:
		d, err := gsheet.NewDriveSource(ctx, cfg.DriveFolder(), cfg.DriveConcurrency, credentials(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Drive source: %w", err)
		}
		f.logger.InfoContext(ctx, "Using Drive report source", "folder", cfg.DriveFolder(), "test_mode", cfg.TestMode)
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported source backend: %s", cfg.SourceBackend)
	}
}

func (f *DefaultFactory) createSink(ctx context.Context, cfg *config.Config, res *Result) (sheets.TabWriter, error) {
	switch cfg.SinkBackend {
	case config.SinkSheets:
		c, err := gsheet.New(ctx, cfg.SpreadsheetID(), credentials(cfg),
			gsheet.WithRetry(cfg.SheetsRetryAttempts, 500*time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Using Google Sheets sink", "test_mode", cfg.TestMode)
		return c, nil
	case config.SinkXLSX:
		wb, err := xlsx.Open(cfg.WorkbookPath(), cfg.ReferenceTab)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		res.onClose(wb.Close)
		f.logger.InfoContext(ctx, "Using workbook sink", "path", cfg.WorkbookPath())
		return wb, nil
	case config.SinkMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported sink backend: %s", cfg.SinkBackend)
	}
}

func credentials(cfg *config.Config) gsheet.Credentials {
	return gsheet.Credentials{
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	}
}
