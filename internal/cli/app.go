// Package cli is the idcardocr command tree: extract, recognize, run, serve and version
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"idcardocr/internal/modkit"
	"idcardocr/internal/platform/config"
	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"

	exdomain "idcardocr/internal/services/extract/domain"
	recdomain "idcardocr/internal/services/recognize/domain"
)

// Archive layout, relative to the archive dir
const (
	resultsDir   = "results"
	logsDir      = "logs"
	tempDir      = "temp_files"
	csvName      = "id_card_results.csv"
	summaryName  = "processing_summary.txt"
	recognizeLog = "ocr_processing.log"
	extractLog   = "id_extraction.log"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warning": true, "warn": true, "error": true}

// annLogFile names the per command log file in cobra annotations
const annLogFile = "log_file"

// ErrIncomplete marks a run that finished but left failed items behind
var ErrIncomplete = perr.New(perr.ErrorCodeApplication, "processing finished with failures")

const setupHint = `
Please ensure:
  1. .env file exists with TENCENTCLOUD_SECRET_ID and TENCENTCLOUD_SECRET_KEY
  2. Credentials are valid

See README.md for setup instructions.
`

// Main runs the command line with args and returns the process exit code
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newApp(stdout, stderr).execute(ctx, args)
}

type app struct {
	envFile    string
	logLevel   string
	archiveDir string
	noProgress bool

	stdout io.Writer
	stderr io.Writer

	cfg      config.Conf
	log      *logger.Logger
	closeLog io.Closer
	now      func() time.Time

	// injected in tests instead of tencent, MuPDF and tesseract
	recognizePorts *recdomain.Ports
	extractPorts   *exdomain.Ports
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, now: time.Now}
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return a.exitCode(root.ExecuteContext(ctx))
}

func (a *app) exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrIncomplete):
		return 1
	case perr.HasCode(err, perr.ErrorCodeConfig):
		fmt.Fprintf(a.stderr, "\nConfiguration Error: %v\n", err)
		fmt.Fprint(a.stderr, setupHint)
		return 1
	}
	if a.log != nil {
		a.log.Error().Err(err).Msg("unexpected error")
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return 1
}

// setup loads the env file, creates the archive layout and opens the command's log
func (a *app) setup(logFile string) error {
	if err := config.LoadDotenv(a.envFile); err != nil {
		return err
	}
	a.cfg = config.New()
	if a.archiveDir == "" {
		a.archiveDir = a.cfg.MayString("ARCHIVE_DIR", ".archive")
	}
	for _, d := range []string{resultsDir, logsDir, tempDir} {
		if err := os.MkdirAll(filepath.Join(a.archiveDir, d), 0o755); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeResource, "create %s", filepath.Join(a.archiveDir, d))
		}
	}
	level := a.logLevel
	if level == "" {
		level = a.cfg.MayString("LOG_LEVEL", "info")
	}
	if !logLevels[strings.ToLower(level)] {
		return perr.WithField(perr.Configf("unknown log level %q", level), "log_level")
	}
	opt := logger.Options{
		Level:   level,
		Format:  a.cfg.MayString("LOG_FORMAT", "console"),
		Service: "idcardocr",
		Writer:  a.stdout,
	}
	if logFile != "" {
		opt.File = a.archivePath(logsDir, logFile)
	}
	log, c, err := logger.New(opt)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeResource, "open log %s", opt.File)
	}
	a.log, a.closeLog = &log, c
	return nil
}

func (a *app) teardown() {
	if a.closeLog != nil {
		_ = a.closeLog.Close()
	}
}

func (a *app) archivePath(parts ...string) string {
	return filepath.Join(append([]string{a.archiveDir}, parts...)...)
}

func (a *app) deps() modkit.Deps {
	return modkit.Deps{Cfg: a.cfg, Log: *a.log}
}

func (a *app) recognizeOpts() []modkit.Option {
	if a.recognizePorts == nil {
		return nil
	}
	return []modkit.Option{modkit.WithPorts(*a.recognizePorts)}
}

func (a *app) extractOpts() []modkit.Option {
	if a.extractPorts == nil {
		return nil
	}
	return []modkit.Option{modkit.WithPorts(*a.extractPorts)}
}

// progress draws a bar once the total is known
type progress struct {
	desc string
	w    io.Writer
	off  bool
	bar  *progressbar.ProgressBar
}

func (a *app) progress(desc string) *progress {
	return &progress{desc: desc, w: a.stderr, off: a.noProgress}
}

func (p *progress) update(done, total int) {
	if p.off {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(p.desc),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
