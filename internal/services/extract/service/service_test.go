package service

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"idcardocr/internal/core/classify"
	perr "idcardocr/internal/platform/errors"
	kit "idcardocr/internal/platform/testkit"
	"idcardocr/internal/services/extract/domain"
)

const (
	frontText = "姓名 张三 性别 男 民族 汉 出生 1990年1月1日 住址 北京市朝阳区 公民身份号码 110101199001011234"
	backText  = "中华人民共和国 居民身份证 签发机关 北京市公安局朝阳分局 有效期限 2020.01.01-2040.01.01"
)

// gradient paints each row with its own y so crops can be told apart after encoding
func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(y)})
		}
	}
	return img
}

type fakeDoc struct {
	pages   []image.Image
	texts   []string
	regions map[float64]string // keyed by region top
	closed  bool
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) PageText(i int) (string, error) {
	if i < len(d.texts) {
		return d.texts[i], nil
	}
	return "", nil
}

func (d *fakeDoc) RegionText(_ int, top, _ float64) (string, error) { return d.regions[top], nil }

func (d *fakeDoc) Render(i int, _ float64) (image.Image, error) { return d.pages[i], nil }

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

// fakeOCR answers by the crop's top edge
type fakeOCR struct {
	top, bottom string
	calls       int
}

func (f *fakeOCR) Recognize(_ context.Context, img image.Image) (string, error) {
	f.calls++
	if img.Bounds().Min.Y == 0 {
		return f.top, nil
	}
	return f.bottom, nil
}

func opener(docs map[string]*fakeDoc) domain.Opener {
	return func(path string) (domain.Document, error) {
		d, ok := docs[filepath.Base(path)]
		if !ok {
			return nil, perr.Validationf("cannot open %s", path)
		}
		return d, nil
	}
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func firstRow(img image.Image) uint8 {
	b := img.Bounds()
	return color.GrayModel.Convert(img.At(b.Min.X, b.Min.Y)).(color.Gray).Y
}

func TestFormatOf(t *testing.T) {
	cases := map[int]domain.Format{
		0: domain.UnsupportedFormat,
		1: domain.SinglePage,
		2: domain.TwoPages,
		3: domain.UnsupportedFormat,
	}
	for n, want := range cases {
		if got := domain.FormatOf(n); got != want {
			t.Fatalf("FormatOf(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestProcessPDF_TwoPagesBackFirst(t *testing.T) {
	doc := &fakeDoc{
		pages: []image.Image{gradient(100, 60), gradient(120, 80)},
		texts: []string{backText, frontText},
	}
	out := t.TempDir()
	s := New(opener(map[string]*fakeDoc{"zhang.pdf": doc}), nil, Config{}, nil)

	res, err := s.ProcessPDF(context.Background(), "zhang.pdf", out)
	if err != nil {
		t.Fatalf("ProcessPDF: %v", err)
	}
	if res.Format != domain.TwoPages || !res.Decided || !res.OK() {
		t.Fatalf("unexpected result %+v", res)
	}
	if !doc.closed {
		t.Fatalf("document not closed")
	}
	if filepath.Base(res.Front) != "zhang_front.png" || filepath.Base(res.Back) != "zhang_back.png" {
		t.Fatalf("file names %s %s", res.Front, res.Back)
	}
	if w := readPNG(t, res.Front).Bounds().Dx(); w != 120 {
		t.Fatalf("front should be page 2 (width 120), got width %d", w)
	}
	if w := readPNG(t, res.Back).Bounds().Dx(); w != 100 {
		t.Fatalf("back should be page 1 (width 100), got width %d", w)
	}
}

func TestProcessPDF_TwoPagesTieKeepsOrder(t *testing.T) {
	doc := &fakeDoc{pages: []image.Image{gradient(100, 60), gradient(120, 80)}}
	s := New(opener(map[string]*fakeDoc{"blank.pdf": doc}), nil, Config{}, nil)

	res, err := s.ProcessPDF(context.Background(), "blank.pdf", t.TempDir())
	if err != nil {
		t.Fatalf("ProcessPDF: %v", err)
	}
	if res.Decided {
		t.Fatalf("blank pages should not be decided")
	}
	if w := readPNG(t, res.Front).Bounds().Dx(); w != 100 {
		t.Fatalf("tie should keep page 1 as front, got width %d", w)
	}
}

func TestProcessPDF_SinglePageCropsWithMargin(t *testing.T) {
	cases := []struct {
		name           string
		top, bottom    string
		wantFrontFirst uint8
		wantBackFirst  uint8
		wantDecided    bool
	}{
		{"front on top", frontText, backText, 0, 90, true},
		{"front on bottom", backText, frontText, 90, 0, true},
		{"tie defaults to top", "", "", 0, 90, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := &fakeDoc{
				pages:   []image.Image{gradient(50, 200)},
				regions: map[float64]string{0: c.top, 0.5: c.bottom},
			}
			s := New(opener(map[string]*fakeDoc{"li.pdf": doc}), nil, Config{}, nil)
			res, err := s.ProcessPDF(context.Background(), "li.pdf", t.TempDir())
			if err != nil {
				t.Fatalf("ProcessPDF: %v", err)
			}
			if res.Format != domain.SinglePage || res.Decided != c.wantDecided {
				t.Fatalf("unexpected result %+v", res)
			}
			front, back := readPNG(t, res.Front), readPNG(t, res.Back)
			if front.Bounds().Dy() != 110 || back.Bounds().Dy() != 110 {
				t.Fatalf("crop heights %d/%d, want 110 each", front.Bounds().Dy(), back.Bounds().Dy())
			}
			if got := firstRow(front); got != c.wantFrontFirst {
				t.Fatalf("front starts at row %d, want %d", got, c.wantFrontFirst)
			}
			if got := firstRow(back); got != c.wantBackFirst {
				t.Fatalf("back starts at row %d, want %d", got, c.wantBackFirst)
			}
		})
	}
}

func TestProcessPDF_SinglePageOCRFallback(t *testing.T) {
	doc := &fakeDoc{pages: []image.Image{gradient(50, 200)}}
	ocr := &fakeOCR{top: backText, bottom: frontText}
	s := New(opener(map[string]*fakeDoc{"scan.pdf": doc}), classify.New(ocr, nil), Config{}, nil)

	res, err := s.ProcessPDF(context.Background(), "scan.pdf", t.TempDir())
	if err != nil {
		t.Fatalf("ProcessPDF: %v", err)
	}
	if !res.UsedOCR || !res.Decided || ocr.calls != 2 {
		t.Fatalf("expected OCR on both halves, got %+v calls=%d", res, ocr.calls)
	}
	if got := firstRow(readPNG(t, res.Front)); got != 90 {
		t.Fatalf("front should be the lower crop, starts at row %d", got)
	}
}

func TestProcessPDF_UnsupportedPageCount(t *testing.T) {
	doc := &fakeDoc{pages: []image.Image{gradient(10, 10), gradient(10, 10), gradient(10, 10)}}
	s := New(opener(map[string]*fakeDoc{"three.pdf": doc}), nil, Config{}, nil)

	res, err := s.ProcessPDF(context.Background(), "three.pdf", t.TempDir())
	kit.MustCode(t, err, perr.ErrorCodeUnsupported)
	if res.Format != domain.UnsupportedFormat || !doc.closed {
		t.Fatalf("unexpected result %+v closed=%v", res, doc.closed)
	}
}

func TestProcessDir_CountsAndContinues(t *testing.T) {
	in := t.TempDir()
	for _, n := range []string{"a.pdf", "b.PDF", "c.pdf", "notes.txt"} {
		kit.WriteFile(t, in, n, []byte("%PDF"))
	}
	docs := map[string]*fakeDoc{
		"a.pdf": {pages: []image.Image{gradient(20, 40)}, regions: map[float64]string{0: frontText, 0.5: backText}},
		"b.PDF": {pages: []image.Image{gradient(10, 10), gradient(10, 10), gradient(10, 10)}},
		// c.pdf cannot be opened
	}
	out := filepath.Join(t.TempDir(), "images")
	s := New(opener(docs), nil, Config{DPI: 150}, nil)

	sum, err := s.ProcessDir(context.Background(), in, out)
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if sum.Total != 3 || sum.Succeeded != 1 || sum.Failed != 2 || len(sum.Files) != 3 {
		t.Fatalf("summary %+v", sum)
	}
	if !sum.Files[0].OK() || sum.Files[1].Error == "" || sum.Files[2].Error == "" {
		t.Fatalf("per file results %+v", sum.Files)
	}
	for _, n := range []string{"a_front.png", "a_back.png"} {
		if _, err := os.Stat(filepath.Join(out, n)); err != nil {
			t.Fatalf("missing %s: %v", n, err)
		}
	}
}

func TestProcessDir_EmptyAndMissing(t *testing.T) {
	s := New(opener(nil), nil, Config{}, nil)

	sum, err := s.ProcessDir(context.Background(), t.TempDir(), t.TempDir())
	if err != nil || sum.Total != 0 {
		t.Fatalf("empty dir: %+v %v", sum, err)
	}

	_, err = s.ProcessDir(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir())
	kit.MustCode(t, err, perr.ErrorCodeValidation)
}

func TestProcessDir_Cancelled(t *testing.T) {
	in := t.TempDir()
	kit.WriteFile(t, in, "a.pdf", []byte("%PDF"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(opener(nil), nil, Config{}, nil)
	sum, err := s.ProcessDir(ctx, in, t.TempDir())
	kit.MustCode(t, err, perr.ErrorCodeCancelled)
	if sum.Total != 0 {
		t.Fatalf("nothing should run after cancel: %+v", sum)
	}
}

func TestCropCopiesWithoutSubImage(t *testing.T) {
	src := gradient(4, 8)
	var plain image.Image = struct{ image.Image }{src}
	got := Crop(plain, image.Rect(0, 4, 4, 8))
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 4 {
		t.Fatalf("bounds %v", got.Bounds())
	}
	if firstRow(got) != 4 {
		t.Fatalf("copied crop starts at row %d", firstRow(got))
	}
}
