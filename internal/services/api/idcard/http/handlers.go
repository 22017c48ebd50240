// Package http exposes single-image recognition over JSON
package http

import (
	"net/http"

	"idcardocr/internal/core/card"
	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"
	phttp "idcardocr/internal/platform/net/http"
	"idcardocr/internal/platform/net/http/bind"
	"idcardocr/internal/services/recognize/domain"
)

// MaxBodyBytes fits a 10 MB image after base64 plus the JSON envelope
const MaxBodyBytes = 16 << 20

// Deps are the handler dependencies
type Deps struct {
	Rec domain.EncodedRecognizer
	Log *logger.Logger
}

type handlers struct {
	deps Deps
}

// Register mounts the idcard routes
func Register(r phttp.Router, d Deps) {
	d.Log = logger.OrNamed(d.Log, "api.idcard")
	h := &handlers{deps: d}

	phttp.PostJSON(r, "/recognize", h.recognize, bind.JSONOptions{
		MaxBytes:        MaxBodyBytes,
		DisallowUnknown: true,
	})
}

// RecognizeRequest is one card image to recognize
type RecognizeRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required,base64"`
	CardSide    string `json:"card_side" validate:"omitempty,oneof=FRONT BACK front back"`
	FileName    string `json:"file_name" validate:"omitempty,max=255"`
}

// RecognizeResponse is the side record plus the side that was asked for
type RecognizeResponse struct {
	Side card.Side `json:"card_side"`
	domain.SideResult
}

// Side resolves the requested side, falling back to hints in the file name
func (in RecognizeRequest) Side() (card.Side, error) {
	if s := card.ParseSide(in.CardSide); s.Known() {
		return s, nil
	}
	if s := card.SideFromFilename(in.FileName); s.Known() {
		return s, nil
	}
	return card.Unknown, perr.WithField(perr.Validationf("card_side is required when file_name carries no side hint"), "card_side")
}

func (h *handlers) recognize(r *http.Request, in RecognizeRequest) (any, error) {
	side, err := in.Side()
	if err != nil {
		return nil, err
	}
	res := domain.ResultOf(h.deps.Rec.RecognizeEncoded(r.Context(), in.ImageBase64, side))
	logger.From(r.Context(), h.deps.Log).Info().
		Str("side", side.Lower()).
		Str("status", string(res.Status)).
		Str("file", in.FileName).
		Msg("image recognized")
	return RecognizeResponse{Side: side, SideResult: res}, nil
}
