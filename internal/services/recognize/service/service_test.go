package service

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"idcardocr/internal/core/card"
	perr "idcardocr/internal/platform/errors"
	kit "idcardocr/internal/platform/testkit"
	"idcardocr/internal/services/recognize/domain"
)

type reply struct {
	data map[string]string
	err  error
}

type fakeRec struct {
	mu       sync.Mutex
	replies  map[string]reply // by base name
	calls    []card.Image
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRec) RecognizeSide(ctx context.Context, img card.Image) (map[string]string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, img)
	r, ok := f.replies[filepath.Base(img.Path)]
	f.mu.Unlock()
	if !ok {
		return map[string]string{"ok": "1"}, nil
	}
	return r.data, r.err
}

func seed(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		kit.WriteFile(t, dir, n, []byte("img"))
	}
	return dir
}

func TestRun_EndToEndStatuses(t *testing.T) {
	dir := seed(t, "alice_front.png", "alice_back.png", "bob_front.png", "carol_back.png", "dave_front.jpg", "notes.txt")
	rec := &fakeRec{replies: map[string]reply{
		"alice_front.png": {data: map[string]string{"name": "Alice", "id_num": "110101199001011234"}},
		"alice_back.png":  {data: map[string]string{"authority": "Bureau"}},
		"carol_back.png":  {err: perr.Newf(perr.ErrorCodeApplication, "FailedOperation.ImageBlur: blurry")},
		"dave_front.jpg":  {err: perr.Newf(perr.ErrorCodeTransport, "request failed after 3 attempts")},
	}}

	var progress []int
	s := New(rec, Config{Workers: 2}, nil)
	s.OnResult = func(_ domain.PersonResult, done, total int) {
		progress = append(progress, done)
		if total != 4 {
			t.Errorf("total = %d", total)
		}
	}

	b, err := s.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.RunID == "" || b.Cancelled || len(b.Results) != 4 || len(progress) != 4 {
		t.Fatalf("unexpected batch: %+v", b)
	}

	byKey := map[string]domain.PersonResult{}
	for _, r := range b.Results {
		byKey[r.Person] = r
	}
	alice := byKey["alice"]
	if alice.Overall != domain.OverallBoth || alice.Field("name") != "Alice" || alice.Field("authority") != "Bureau" {
		t.Fatalf("alice = %+v", alice)
	}
	bob := byKey["bob"]
	if bob.Overall != domain.OverallFrontOnly || bob.Back.Status != domain.StatusMissing || bob.BackImage != "N/A" {
		t.Fatalf("bob = %+v", bob)
	}
	carol := byKey["carol"]
	if carol.Overall != domain.OverallFailed || carol.Back.Status != domain.StatusError ||
		carol.Back.Error != "FailedOperation.ImageBlur: blurry" {
		t.Fatalf("carol = %+v", carol)
	}
	dave := byKey["dave"]
	if dave.Front.Status != domain.StatusException || dave.Front.Error == "" {
		t.Fatalf("dave = %+v", dave)
	}

	want := domain.Stats{
		TotalPersons: 4, BothSidesSuccess: 1, FrontOnlySuccess: 1, BothSidesFailed: 2,
		FrontMissing: 1, BackMissing: 2, TotalAPICalls: 5, SuccessfulCalls: 3, FailedCalls: 2,
	}
	if b.Stats != want {
		t.Fatalf("stats = %+v, want %+v", b.Stats, want)
	}

	for i := 1; i < len(b.Results); i++ {
		if b.Results[i-1].Person > b.Results[i].Person {
			t.Fatalf("results not sorted")
		}
	}
	for _, c := range rec.calls {
		if !c.Side.Known() {
			t.Fatalf("side not passed: %+v", c)
		}
	}
}

func TestRun_RespectsWorkerBound(t *testing.T) {
	names := []string{}
	for _, p := range []string{"a", "b", "c", "d", "e", "f"} {
		names = append(names, p+"_front.png")
	}
	rec := &fakeRec{delay: 20 * time.Millisecond}
	s := New(rec, Config{Workers: 2}, nil)
	if _, err := s.Run(context.Background(), seed(t, names...)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p := rec.peak.Load(); p > 2 || p < 1 {
		t.Fatalf("peak in flight = %d", p)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRec{}
	b, err := New(rec, Config{Workers: 1}, nil).Run(ctx, seed(t, "a_front.png", "b_front.png"))
	kit.MustCode(t, err, perr.ErrorCodeCancelled)
	if !b.Cancelled || len(b.Results) != 0 || len(rec.calls) != 0 {
		t.Fatalf("unsent people must not be reported: %+v", b)
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	_, err := New(&fakeRec{}, Config{}, nil).Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	kit.MustCode(t, err, perr.ErrorCodeValidation)
}

func TestRun_EmptyDirectory(t *testing.T) {
	b, err := New(&fakeRec{}, Config{}, nil).Run(context.Background(), t.TempDir())
	if err != nil || len(b.Results) != 0 || b.Stats.TotalPersons != 0 {
		t.Fatalf("empty dir: %+v %v", b, err)
	}
}

func TestRun_AllowedRootRejectsOutsidePaths(t *testing.T) {
	dir := seed(t, "a_front.png")
	rec := &fakeRec{}
	s := New(rec, Config{AllowedRoot: t.TempDir()}, nil)
	b, err := s.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.calls) != 0 || b.Results[0].Front.Status != domain.StatusException {
		t.Fatalf("outside path should not be sent: %+v", b.Results[0])
	}

	inside := New(rec, Config{AllowedRoot: dir}, nil)
	b, _ = inside.Run(context.Background(), dir)
	if b.Results[0].Front.Status != domain.StatusSuccess {
		t.Fatalf("inside path rejected: %+v", b.Results[0])
	}
}

func TestNew_NormalizesWorkers(t *testing.T) {
	if s := New(&fakeRec{}, Config{Workers: -3}, nil); s.Cfg.Workers != 1 {
		t.Fatalf("workers = %d", s.Cfg.Workers)
	}
}
