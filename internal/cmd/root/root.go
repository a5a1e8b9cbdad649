package root

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/schmitthub/grit/internal/cmd/execcmd"
	"github.com/schmitthub/grit/internal/cmd/treecmd"
	versioncmd "github.com/schmitthub/grit/internal/cmd/version"
	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/config"
	"github.com/schmitthub/grit/internal/logger"
)

// NewCmdRoot creates the root command for the grit CLI.
func NewCmdRoot(f *cmdutil.Factory, version, buildDate string) (*cobra.Command, error) {
	var debug bool

	cmd := &cobra.Command{
		Use:   "grit",
		Short: "Drive the git object store from the command line",
		Long: `Grit is a programmatic client for the git object store, driving the
installed git binary as a subprocess.

Quick start:
  grit tree ls HEAD                  # List the entries of HEAD's tree
  grit tree snapshot HEAD            # Flat path listing
  grit tree merge HEAD feature       # Overlay one tree onto another
  grit exec -- status --porcelain    # Any git subcommand, grit's plumbing`,
		SilenceUsage: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, buildDate),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f.Debug = debug
			initializeLogger(debug)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", debug).
				Msg("grit starting")

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// The batched mktree child must not outlive the process.
			f.CloseClient()
		},
		Version: f.Version,
	}

	// Accept underscore spellings of multi-word flags (--work_tree).
	cmd.SetGlobalNormalizationFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&f.GitDir, "git-dir", "", "Path to the repository's .git directory")
	cmd.PersistentFlags().StringVar(&f.WorkTree, "work-tree", "", "Path to the working tree")
	cmd.PersistentFlags().StringVar(&f.IndexFile, "index-file", "", "Path to an alternate index file")

	// Version template
	cmd.SetVersionTemplate(versioncmd.Format(version, buildDate) + "\n")

	cmd.AddCommand(execcmd.NewCmdExec(f))
	cmd.AddCommand(treecmd.NewCmdTree(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f, version, buildDate))

	return cmd, nil
}

// initializeLogger sets up the logger with file logging if possible.
// Falls back to console-only logging on any errors.
func initializeLogger(debug bool) {
	loader, err := config.NewSettingsLoader()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to create settings loader")
		return
	}

	settings, err := loader.Load()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to load settings")
		return
	}

	logsDir, err := config.LogsDir()
	if err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to get logs directory")
		return
	}

	logCfg := &logger.LoggingConfig{
		FileEnabled: settings.Logging.FileEnabled,
		MaxSizeMB:   settings.Logging.MaxSizeMB,
		MaxAgeDays:  settings.Logging.MaxAgeDays,
		MaxBackups:  settings.Logging.MaxBackups,
	}

	if err := logger.InitWithFile(debug, logsDir, logCfg); err != nil {
		logger.Init(debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
