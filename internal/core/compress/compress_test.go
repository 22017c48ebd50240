package compress

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	perr "idcardocr/internal/platform/errors"
	kit "idcardocr/internal/platform/testkit"
)

func noise(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(r.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	if c.Ceiling() != 10*1024*1024 {
		t.Fatalf("ceiling = %d", c.Ceiling())
	}
	if c.maxResizes != DefaultMaxResizeIterations || c.qmin != 5 || c.qmax != 95 || c.factor != 0.8 {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestBase64Size(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 3: 4, 4: 8, 300: 400}
	for n, want := range cases {
		if got := Base64Size(n); got != want {
			t.Fatalf("Base64Size(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestCompress_FitsUnderCeiling(t *testing.T) {
	for _, ceiling := range []float64{0.02, 0.05, 0.2} {
		c := New(Options{CeilingMB: ceiling})
		out, err := c.Compress(noise(300, 300, 1))
		if err != nil {
			t.Fatalf("ceiling %.2fMB: %v", ceiling, err)
		}
		if Base64Size(len(out)) > c.Ceiling() {
			t.Fatalf("ceiling %.2fMB: got %d base64 bytes > %d", ceiling, Base64Size(len(out)), c.Ceiling())
		}
		if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
			t.Fatalf("output is not a jpeg: %v", err)
		}
	}
}

func TestCompress_BoundedFailure(t *testing.T) {
	c := New(Options{CeilingMB: 1e-7, MaxResizeIterations: 3})
	_, err := c.Compress(noise(400, 300, 2))
	kit.MustCode(t, err, perr.ErrorCodeResource)
	kit.MustContain(t, err.Error(), "after 3 resizes")
}

func TestCompress_CollapsesTinyImage(t *testing.T) {
	c := New(Options{CeilingMB: 1e-7, MaxResizeIterations: 50})
	_, err := c.Compress(noise(3, 3, 3))
	kit.MustCode(t, err, perr.ErrorCodeResource)
	kit.MustContain(t, err.Error(), "collapsed")
}

func TestCompress_HigherCeilingKeepsMoreQuality(t *testing.T) {
	src := noise(200, 200, 4)
	small, err := New(Options{CeilingMB: 0.03}).Compress(src)
	if err != nil {
		t.Fatal(err)
	}
	large, err := New(Options{CeilingMB: 1}).Compress(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(large) <= len(small) {
		t.Fatalf("expected a larger budget to keep more bytes: %d <= %d", len(large), len(small))
	}
}

func TestFit_PassthroughWhenSmall(t *testing.T) {
	raw := encodePNG(t, noise(10, 10, 5))
	out, changed, err := New(Options{}).Fit(raw)
	if err != nil || changed || !bytes.Equal(out, raw) {
		t.Fatalf("Fit should pass small images through, changed=%v err=%v", changed, err)
	}
}

func TestFit_RecompressesLargePNG(t *testing.T) {
	raw := encodePNG(t, noise(300, 300, 6))
	c := New(Options{CeilingMB: 0.05})
	if c.Fits(raw) {
		t.Fatalf("precondition: fixture should exceed the ceiling")
	}
	out, changed, err := c.Fit(raw)
	if err != nil || !changed {
		t.Fatalf("Fit: changed=%v err=%v", changed, err)
	}
	if !c.Fits(out) {
		t.Fatalf("Fit output still too large: %d", Base64Size(len(out)))
	}
}

func TestFit_UndecodableIsValidation(t *testing.T) {
	c := New(Options{CeilingMB: 1e-5})
	_, _, err := c.Fit(bytes.Repeat([]byte("not an image"), 10))
	kit.MustCode(t, err, perr.ErrorCodeValidation)
}

func TestFlatten_AlphaOntoWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8)) // fully transparent
	flat := Flatten(img)
	r, g, b, a := flat.At(3, 3).RGBA()
	if a != 0xffff || r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("transparent pixel should flatten to white, got %v %v %v %v", r, g, b, a)
	}

	half := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	half.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 128})
	gr, _, _, _ := Flatten(half).At(0, 0).RGBA()
	if gr < 0x7000 || gr > 0x9000 {
		t.Fatalf("half transparent black over white should be mid grey, got %#x", gr)
	}
}

func TestFlatten_PalettedAndOpaque(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	if _, ok := Flatten(pal).(*image.RGBA); !ok {
		t.Fatalf("paletted images should be converted")
	}
	opaque := noise(4, 4, 7)
	if Flatten(opaque) != image.Image(opaque) {
		t.Fatalf("opaque RGBA should pass through")
	}
}

func TestCompress_TransparentBecomesWhiteJPEG(t *testing.T) {
	out, err := New(Options{}).Compress(image.NewNRGBA(image.Rect(0, 0, 16, 16)))
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := img.At(8, 8).RGBA()
	if r < 0xf000 {
		t.Fatalf("expected near white, got %#x", r)
	}
}

func TestResize(t *testing.T) {
	got := Resize(noise(100, 50, 8), 80, 40)
	if b := got.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Fatalf("resize bounds = %v", b)
	}
}
