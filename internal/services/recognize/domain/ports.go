package domain

import (
	"context"

	"idcardocr/internal/core/card"
)

// SideRecognizer reads the fields of one card image
// An error coded Application means the OCR service rejected the image
type SideRecognizer interface {
	RecognizeSide(ctx context.Context, img card.Image) (map[string]string, error)
}

// RunnerPort is the external port for the batch job
type RunnerPort interface {
	Run(ctx context.Context, dir string) (Batch, error)
}

// Ports are dependencies injected into the recognize module
// Both are optional; the module builds the OCR client from config when nil
type Ports struct {
	Sides   SideRecognizer
	Encoded EncodedRecognizer
}

// EncodedRecognizer reads the fields of an already base64 encoded image
type EncodedRecognizer interface {
	RecognizeEncoded(ctx context.Context, b64 string, side card.Side) (map[string]string, error)
}
