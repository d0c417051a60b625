package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ytearnings/internal/backend"
	"ytearnings/internal/config"
	"ytearnings/internal/core"
	"ytearnings/internal/ledger"
	"ytearnings/internal/log"
	"ytearnings/internal/services"
	"ytearnings/internal/sheets/memory"
)

// NewRootCmd builds the command tree. A nil factory selects the default.
func NewRootCmd(factory backend.Factory) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "ytearnings",
		Short:         "Consolidate YouTube earnings exports into monthly spreadsheet tabs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			logger := SetupLogger(level, cmd.ErrOrStderr())
			cmd.SetContext(log.NewContext(cmd.Context(), logger))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default LOG_LEVEL or info)")

	root.AddCommand(NewRunCmd(factory), NewClassifyCmd())
	return root
}

// RunCmd holds the flags of the run command.
type RunCmd struct {
	factory backend.Factory
	test    bool
	folder  string
	dir     string
	sink    string
	dryRun  bool
}

func NewRunCmd(factory backend.Factory) *cobra.Command {
	rc := &RunCmd{factory: factory}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify, aggregate and publish every report",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}
	cmd.Flags().BoolVar(&rc.test, "test", false, "Write to the test spreadsheet, folder and workbook")
	cmd.Flags().StringVar(&rc.folder, "folder", "", "Drive folder id or URL to read reports from")
	cmd.Flags().StringVar(&rc.dir, "dir", "", "Local directory to read reports from")
	cmd.Flags().StringVar(&rc.sink, "sink", "", "Sink backend: sheets, xlsx or memory")
	cmd.Flags().BoolVar(&rc.dryRun, "dry-run", false, "Print the rows instead of writing them")
	cmd.MarkFlagsMutuallyExclusive("folder", "dir")
	return cmd
}

func (rc *RunCmd) apply(cfg *config.Config) {
	cfg.TestMode = rc.test
	switch {
	case rc.dir != "":
		cfg.SourceBackend = config.SourceLocal
		cfg.SourceDir = rc.dir
	case rc.folder != "":
		cfg.SourceBackend = config.SourceDrive
		if rc.test {
			cfg.DriveTestFolder = rc.folder
		} else {
			cfg.DriveFolderID = rc.folder
		}
	}
	if rc.sink != "" {
		cfg.SinkBackend = rc.sink
	}
	if rc.dryRun {
		cfg.SinkBackend = config.SinkMemory
	}
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.FromContext(ctx)

	cfg, err := LoadAndValidateConfig(rc.apply)
	if err != nil {
		return err
	}

	factory := rc.factory
	if factory == nil {
		factory = backend.NewFactory(logger)
	}
	res, err := factory.Build(ctx, cfg, rc.dryRun)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to release resources", log.FieldError, err)
		}
	}()

	amounts := cfg.AmountFormat()
	engine := services.NewEngine(res.Source, res.Sink, services.Options{
		Amounts:      &amounts,
		Layout:       ledger.Layout{ReferenceTab: cfg.ReferenceTab, NegativePayouts: cfg.NegativePayouts},
		SkipPrefixes: cfg.SkipPrefixes,
		TestMode:     cfg.TestMode,
	}, append(res.EngineOptions(), services.WithLogger(logger))...)

	summary, err := engine.Run(ctx)
	out := cmd.OutOrStdout()
	if summary != nil {
		if rc.dryRun {
			if store, ok := res.Sink.(*memory.Store); ok {
				PrintTabs(out, store)
			}
		}
		PrintSummary(out, summary)
	}
	if err != nil {
		return err
	}
	if len(summary.SinkErrors) > 0 {
		return fmt.Errorf("%d of %d periods failed to publish", len(summary.SinkErrors), len(summary.Periods))
	}
	return nil
}

func NewClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Print the report type and period recognised from file names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := core.NewClassifier(nil)
			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range args {
				rep, err := c.Classify(name)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s\terror: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", name, rep.Type, rep.Period.Label())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d names not recognised", failed, len(args))
			}
			return nil
		},
	}
}
