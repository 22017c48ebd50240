// Package service implements the batch recognition runner
package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"idcardocr/internal/core/card"
	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"
	"idcardocr/internal/services/recognize/domain"
)

// Config for the recognize service
type Config struct {
	Workers int
	// AllowedRoot, when set, rejects images resolving outside it
	AllowedRoot string
}

// Service implements domain.RunnerPort
type Service struct {
	Rec domain.SideRecognizer
	Cfg Config
	Log *logger.Logger

	// OnResult is called once per finished person, serialized
	OnResult func(r domain.PersonResult, done, total int)

	now func() time.Time
}

// New constructs a new recognize service
func New(rec domain.SideRecognizer, cfg Config, log *logger.Logger) *Service {
	w := cfg.Workers
	if w <= 0 {
		w = 1
	}
	root := cfg.AllowedRoot
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	return &Service{
		Rec: rec,
		Cfg: Config{Workers: w, AllowedRoot: root},
		Log: logger.OrNamed(log, "recognize"),
		now: time.Now,
	}
}

// ListImages returns the card images directly under dir, sorted by name
func ListImages(dir string) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perr.WithField(perr.Validationf("input directory does not exist: %s", dir), "input_dir")
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "stat %s", dir)
	}
	if !fi.IsDir() {
		return nil, perr.WithField(perr.Validationf("not a directory: %s", dir), "input_dir")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "read %s", dir)
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || !card.IsImage(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// Run recognizes every person found in dir
// On cancellation no further people are started; the partial Batch is returned with a Cancelled error
func (s *Service) Run(ctx context.Context, dir string) (domain.Batch, error) {
	b := domain.Batch{RunID: uuid.NewString(), Dir: dir, Started: s.now()}
	log := s.Log.With().Str("run_id", b.RunID).Logger()

	paths, err := ListImages(dir)
	if err != nil {
		return b, err
	}
	people := domain.GroupImages(paths)
	if len(people) == 0 {
		log.Warn().Str("dir", dir).Msg("no images found")
		return b, nil
	}
	log.Info().Int("persons", len(people)).Int("workers", s.Cfg.Workers).Msg("batch started")

	var (
		mu      sync.Mutex
		results = make([]domain.PersonResult, 0, len(people))
		sem     = make(chan struct{}, s.Cfg.Workers)
		wg      sync.WaitGroup
	)

submit:
	for _, p := range people {
		select {
		case <-ctx.Done():
			break submit
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			break
		}
		wg.Add(1)
		go func(p domain.Person) {
			defer func() { <-sem; wg.Done() }()
			r := s.ProcessPerson(ctx, p)

			mu.Lock()
			results = append(results, r)
			done := len(results)
			log.Info().Str("person", r.Person).Str("overall", string(r.Overall)).
				Int("done", done).Int("total", len(people)).Msg("person completed")
			if s.OnResult != nil {
				s.OnResult(r, done, len(people))
			}
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	domain.SortResults(results)
	b.Results = results
	b.Stats = domain.CalculateStats(results)
	b.Elapsed = s.now().Sub(b.Started)

	if err := ctx.Err(); err != nil {
		b.Cancelled = true
		log.Warn().Int("completed", len(results)).Int("total", len(people)).Msg("batch cancelled")
		return b, perr.Cancelled(err)
	}
	log.Info().Dur("elapsed", b.Elapsed).Int("both_failed", b.Stats.BothSidesFailed).Msg("batch finished")
	return b, nil
}

// ProcessPerson reads the front and then the back of one person
func (s *Service) ProcessPerson(ctx context.Context, p domain.Person) domain.PersonResult {
	r := domain.PersonResult{
		Person:     p.Key,
		FrontImage: baseOrNA(p.Front),
		BackImage:  baseOrNA(p.Back),
	}
	r.Front = s.processSide(ctx, p.Key, p.Front, card.Front)
	r.Back = s.processSide(ctx, p.Key, p.Back, card.Back)
	r.Overall = domain.OverallOf(r.Front.Status, r.Back.Status)
	return r
}

// processSide turns the recognizer's error into a side status; it never fails
func (s *Service) processSide(ctx context.Context, person, path string, side card.Side) domain.SideResult {
	if path == "" {
		return domain.Missing()
	}
	log := s.Log.With().Str("person", person).Str("side", side.Lower()).Str("image", filepath.Base(path)).Logger()

	if err := s.guard(path); err != nil {
		log.Error().Err(err).Msg("image rejected")
		return domain.SideResult{Status: domain.StatusException, Error: err.Error()}
	}

	res := domain.ResultOf(s.Rec.RecognizeSide(ctx, card.Image{Path: path, Side: side}))
	switch res.Status {
	case domain.StatusSuccess:
		log.Info().Msg("side recognized")
	case domain.StatusError:
		log.Error().Str("error", res.Error).Msg("ocr service error")
	default:
		log.Error().Str("error", res.Error).Msg("side failed")
	}
	return res
}

// guard keeps path inside AllowedRoot
func (s *Service) guard(path string) error {
	if s.Cfg.AllowedRoot == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeValidation, "resolve %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	root := s.Cfg.AllowedRoot
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return perr.WithField(perr.Validationf("path %s is outside %s", path, s.Cfg.AllowedRoot), "path")
	}
	return nil
}

func baseOrNA(path string) string {
	if path == "" {
		return "N/A"
	}
	return filepath.Base(path)
}
