package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func (a *app) runCmd() *cobra.Command {
	var (
		ef extractFlags
		rf recognizeFlags
	)
	cmd := &cobra.Command{
		Use:         "run",
		Short:       "Extract card images from PDFs, then recognize them",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annLogFile: recognizeLog},
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := a.runExtract(cmd.Context(), ef)
			if err != nil && !errors.Is(err, ErrIncomplete) {
				return err
			}
			extractErr := err
			if sum.Succeeded == 0 && sum.Total > 0 {
				return extractErr
			}

			rf.inputDir = ef.outputDir
			if err := a.runRecognize(cmd.Context(), rf); err != nil {
				return err
			}
			return extractErr
		},
	}
	ef.bind(cmd)
	rf.bind(cmd, false)
	return cmd
}
