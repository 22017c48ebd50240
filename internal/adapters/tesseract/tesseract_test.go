package tesseract

import (
	"context"
	"image"
	"testing"

	perr "idcardocr/internal/platform/errors"
	kit "idcardocr/internal/platform/testkit"
)

func TestNew_DefaultLanguages(t *testing.T) {
	if got := New().Languages(); len(got) != 2 || got[0] != "chi_sim" || got[1] != "eng" {
		t.Fatalf("languages = %v", got)
	}
	if got := New("eng").Languages(); len(got) != 1 {
		t.Fatalf("languages = %v", got)
	}
}

func TestRecognize_GuardsBeforeEngine(t *testing.T) {
	r := New()
	r.clientFactory = nil // any engine use would panic

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Recognize(ctx, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	kit.MustCode(t, err, perr.ErrorCodeCancelled)

	_, err = r.Recognize(context.Background(), image.NewRGBA(image.Rectangle{}))
	kit.MustCode(t, err, perr.ErrorCodeValidation)
}
