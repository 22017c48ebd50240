package module

import (
	"context"

	"idcardocr/internal/adapters/tencent"
	"idcardocr/internal/core/card"
)

// tencentSides adapts the OCR client to the domain ports
type tencentSides struct{ c *tencent.Client }

func (t tencentSides) RecognizeSide(ctx context.Context, img card.Image) (map[string]string, error) {
	resp, err := t.c.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Data(img.Side), nil
}

func (t tencentSides) RecognizeEncoded(ctx context.Context, b64 string, side card.Side) (map[string]string, error) {
	resp, err := t.c.RecognizeBase64(ctx, b64, side)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Data(side), nil
}
