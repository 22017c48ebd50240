package tencent

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"idcardocr/internal/core/card"
	perr "idcardocr/internal/platform/errors"
)

// Recognize reads img from disk, fits it under the size ceiling and calls IDCardOCR
// An Unknown side is guessed from the file name before falling back to auto-detect
// The returned Response may carry an application error; check Response.Err
func (c *Client) Recognize(ctx context.Context, img card.Image) (*Response, error) {
	raw, err := os.ReadFile(img.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "image not found: %s", img.Path), "path")
		}
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "read image %s", img.Path), "path")
	}
	if len(raw) == 0 {
		return nil, perr.WithField(perr.Validationf("image is empty: %s", img.Path), "path")
	}

	fitted, changed, err := c.comp.Fit(raw)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "image %s cannot be sent", filepath.Base(img.Path))
	}
	if changed {
		c.log.Info().Str("image", filepath.Base(img.Path)).Int("from", len(raw)).Int("to", len(fitted)).Msg("image compressed")
	}

	side := img.Side
	if !side.Known() {
		side = card.SideFromFilename(img.Path)
	}
	c.log.Info().Str("image", filepath.Base(img.Path)).Str("side", string(side)).Msg("recognizing")
	return c.RecognizeBase64(ctx, base64.StdEncoding.EncodeToString(fitted), side)
}

// RecognizeBase64 calls IDCardOCR with an already encoded image
func (c *Client) RecognizeBase64(ctx context.Context, b64 string, side card.Side) (*Response, error) {
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return nil, perr.WithField(perr.Validationf("image is empty"), "image_base64")
	}
	if len(b64) > c.comp.Ceiling() {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "invalid base64 image"), "image_base64")
		}
		fitted, _, err := c.comp.Fit(raw)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeValidation, "image cannot be sent")
		}
		b64 = base64.StdEncoding.EncodeToString(fitted)
	}

	payload, err := buildPayload(b64, side, cropConfig{CropIDCard: c.opts.CropIDCard, CropPortrait: c.opts.CropPortrait})
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, payload)
}
