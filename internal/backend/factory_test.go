package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytearnings/internal/config"
	"ytearnings/internal/sheets/memory"
	"ytearnings/internal/sheets/xlsx"
	"ytearnings/internal/source"
	"ytearnings/internal/storage"
)

func TestBuild_LocalXLSXWithLedger(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		SourceBackend: config.SourceLocal,
		SourceDir:     dir,
		SinkBackend:   config.SinkXLSX,
		XLSXPath:      filepath.Join(dir, "out.xlsx"),
		ReferenceTab:  "JobCodeImport",
		LedgerDBPath:  filepath.Join(dir, "ledger.db"),
	}
	res, err := NewFactory(nil).Build(context.Background(), cfg, false)
	require.NoError(t, err)

	assert.IsType(t, &source.Dir{}, res.Source)
	assert.IsType(t, &xlsx.Workbook{}, res.Sink)
	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	assert.Nil(t, res.Events)
	assert.Len(t, res.EngineOptions(), 1)

	require.NoError(t, res.Close())
	_, err = os.Stat(cfg.XLSXPath)
	assert.NoError(t, err, "closing saves the workbook")
}

func TestBuild_DryRunUsesMemory(t *testing.T) {
	cfg := &config.Config{
		SourceBackend: config.SourceLocal,
		SourceDir:     t.TempDir(),
		SinkBackend:   config.SinkSheets,
		LedgerDBPath:  filepath.Join(t.TempDir(), "ledger.db"),
	}
	res, err := NewFactory(nil).Build(context.Background(), cfg, true)
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &memory.Store{}, res.Sink)
	assert.Nil(t, res.Store)
	assert.Empty(t, res.EngineOptions())
}

func TestBuild_SheetsWithoutCredentials(t *testing.T) {
	cfg := &config.Config{
		SourceBackend:       config.SourceLocal,
		SourceDir:           t.TempDir(),
		SinkBackend:         config.SinkSheets,
		GoogleSpreadsheetID: "sid",
	}
	_, err := NewFactory(nil).Build(context.Background(), cfg, false)
	assert.ErrorContains(t, err, "Google Sheets client")
}

func TestBuild_UnsupportedSource(t *testing.T) {
	_, err := NewFactory(nil).Build(context.Background(), &config.Config{SourceBackend: "ftp"}, false)
	assert.ErrorContains(t, err, "unsupported source backend")
}
