package cli

import (
	"context"

	"github.com/spf13/cobra"

	"idcardocr/internal/modkit/module"
	recdomain "idcardocr/internal/services/recognize/domain"
	recmod "idcardocr/internal/services/recognize/module"
	"idcardocr/internal/services/report"
)

const rule = "============================================================"

type recognizeFlags struct {
	inputDir      string
	outputCSV     string
	summary       string
	rateLimit     int
	maxConcurrent int
}

func (f *recognizeFlags) bind(cmd *cobra.Command, withInput bool) {
	if withInput {
		cmd.Flags().StringVar(&f.inputDir, "input-dir", "", "Input directory containing ID card images (default INPUT_DIR or outputs)")
	}
	cmd.Flags().StringVar(&f.outputCSV, "output-csv", "", "Output CSV file path (default <archive>/results/id_card_results.csv)")
	cmd.Flags().StringVar(&f.summary, "summary", "", "Summary report file path (default <archive>/results/processing_summary.txt)")
	cmd.Flags().IntVar(&f.rateLimit, "rate-limit", 0, "API requests per second (default RATE_LIMIT or 20)")
	cmd.Flags().IntVar(&f.maxConcurrent, "max-concurrent", 0, "Maximum concurrent workers (default MAX_CONCURRENT_REQUESTS or 10)")
}

func (a *app) recognizeCmd() *cobra.Command {
	var f recognizeFlags
	cmd := &cobra.Command{
		Use:         "recognize",
		Short:       "Recognize ID card images and write the CSV and summary reports",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annLogFile: recognizeLog},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRecognize(cmd.Context(), f)
		},
	}
	f.bind(cmd, true)
	return cmd
}

func (a *app) runRecognize(ctx context.Context, f recognizeFlags) error {
	input := f.inputDir
	if input == "" {
		input = a.cfg.MayString("INPUT_DIR", "outputs")
	}
	files := report.Files{
		CSV:     f.outputCSV,
		Summary: f.summary,
		Log:     a.archivePath(logsDir, recognizeLog),
	}
	if files.CSV == "" {
		files.CSV = a.archivePath(resultsDir, csvName)
	}
	if files.Summary == "" {
		files.Summary = a.archivePath(resultsDir, summaryName)
	}

	mod, err := recmod.New(a.deps(), recmod.Options{
		RateLimit:   f.rateLimit,
		Workers:     f.maxConcurrent,
		AllowedRoot: input,
	}, a.recognizeOpts()...)
	if err != nil {
		return err
	}
	o := mod.Options()

	a.log.Info().Msg(rule)
	a.log.Info().Msg("ID CARD OCR PROCESSING")
	a.log.Info().Msg(rule)
	a.log.Info().Str("input_dir", input).Msgf("Input directory: %s", input)
	a.log.Info().Str("csv", files.CSV).Msgf("Output CSV: %s", files.CSV)
	a.log.Info().Str("summary", files.Summary).Msgf("Summary file: %s", files.Summary)
	a.log.Info().Int("rate_limit", o.RateLimit).Msgf("Rate limit: %d requests/second", o.RateLimit)
	a.log.Info().Int("workers", o.Workers).Msgf("Max concurrent: %d workers", o.Workers)
	a.log.Info().Msg(rule)

	bar := a.progress("识别 / Recognizing")
	mod.OnResult(func(_ recdomain.PersonResult, done, total int) { bar.update(done, total) })

	b, runErr := module.MustPortsOf[recdomain.RunnerPort](mod).Run(ctx, input)
	bar.finish()
	if runErr != nil && !b.Cancelled {
		return runErr
	}
	if b.Stats.TotalPersons == 0 && runErr == nil {
		return nil
	}

	if err := report.WriteCSV(files.CSV, b.Results); err != nil {
		return err
	}
	if err := report.WriteSummary(b, files, a.now()); err != nil {
		return err
	}
	report.ConsoleSummary(a.log, b.Stats, files)
	a.log.Info().Dur("elapsed", b.Elapsed).Msgf("Elapsed time: %.2f seconds", b.Elapsed.Seconds())

	if runErr != nil {
		return runErr
	}
	if b.Stats.BothSidesFailed > 0 {
		return ErrIncomplete
	}
	a.log.Info().Msg("Processing completed!")
	return nil
}
