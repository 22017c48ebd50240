package cli

import (
	"github.com/spf13/cobra"

	"idcardocr/internal/core/version"
)

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "idcardocr",
		Short:         "Chinese ID card OCR using Tencent Cloud",
		Version:       version.Info().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Annotations[annLogFile])
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.teardown() },
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "Path to .env file (default .env when present)")
	pf.StringVar(&a.logLevel, "log-level", "", "Logging level: DEBUG, INFO, WARNING or ERROR (default LOG_LEVEL or INFO)")
	pf.StringVar(&a.archiveDir, "archive-dir", "", "Directory for results, logs and temp files (default ARCHIVE_DIR or .archive)")
	pf.BoolVar(&a.noProgress, "no-progress", false, "Disable the progress bar")

	root.AddCommand(
		a.extractCmd(),
		a.recognizeCmd(),
		a.runCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return root
}
