package cli

import (
	"context"

	"github.com/spf13/cobra"

	"idcardocr/internal/modkit/module"
	exdomain "idcardocr/internal/services/extract/domain"
	exmod "idcardocr/internal/services/extract/module"
)

type extractFlags struct {
	pdfDir    string
	outputDir string
	dpi       float64
}

func (f *extractFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pdfDir, "pdf-dir", "", "Directory of scanned ID card PDFs (default PDF_DIR or inputs)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for extracted card images (default INPUT_DIR or outputs)")
	cmd.Flags().Float64Var(&f.dpi, "dpi", 0, "Render resolution (default DPI or 300)")
}

func (a *app) extractCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:         "extract",
		Short:       "Split scanned PDFs into <name>_front.png and <name>_back.png",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annLogFile: extractLog},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.runExtract(cmd.Context(), f)
			return err
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) runExtract(ctx context.Context, f extractFlags) (exdomain.Summary, error) {
	mod, err := exmod.New(a.deps(), exmod.Options{PDFDir: f.pdfDir, ImageDir: f.outputDir, DPI: f.dpi}, a.extractOpts()...)
	if err != nil {
		return exdomain.Summary{}, err
	}
	o := mod.Options()
	a.log.Info().
		Str("pdf_dir", o.PDFDir).
		Str("output_dir", o.ImageDir).
		Float64("dpi", o.DPI).
		Bool("ocr_fallback", o.OCR).
		Msg("ID CARD EXTRACTION")

	sum, err := module.MustPortsOf[exdomain.RunnerPort](mod).ProcessDir(ctx, o.PDFDir, o.ImageDir)
	if err != nil {
		return sum, err
	}
	if sum.Failed > 0 {
		return sum, ErrIncomplete
	}
	return sum, nil
}
