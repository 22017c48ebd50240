package tencent

import (
	"encoding/json"
	"strings"

	"idcardocr/internal/core/card"
	perr "idcardocr/internal/platform/errors"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	ocr "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ocr/v20181119"
)

// cropConfig is JSON encoded a second time inside the request's Config string
type cropConfig struct {
	CropIDCard   bool `json:"CropIdCard"`
	CropPortrait bool `json:"CropPortrait"`
}

// buildPayload serializes an IDCardOCR request body
// CardSide is omitted for Unknown so the service auto-detects
func buildPayload(imageB64 string, side card.Side, crop cropConfig) ([]byte, error) {
	cfg, err := json.Marshal(crop)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode crop config")
	}
	p := ocr.IDCardOCRRequestParams{
		ImageBase64: common.StringPtr(imageB64),
		Config:      common.StringPtr(string(cfg)),
	}
	if side.Known() {
		p.CardSide = common.StringPtr(string(side))
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode IDCardOCR request")
	}
	return b, nil
}

// APIError is the provider's in-band error object
type APIError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// Fields are the recognized card fields, empty when absent
type Fields struct {
	Name         string
	Sex          string
	Nation       string
	Birth        string
	Address      string
	IDNum        string
	Authority    string
	ValidDate    string
	AdvancedInfo string
}

// Response is one decoded IDCardOCR answer
type Response struct {
	HTTPStatus int
	RequestID  string
	Error      *APIError
	Fields     Fields
	Raw        json.RawMessage
}

// Err returns an application error when the provider reported one
// Its wire message reads "Code: Message"
func (r *Response) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	sdkErr := sdkerrors.NewTencentCloudSDKError(r.Error.Code, r.Error.Message, r.RequestID)
	return perr.Wrapf(sdkErr, perr.ErrorCodeApplication, "%s: %s", r.Error.Code, r.Error.Message)
}

// Data maps the fields relevant to side onto the report's column names
func (r *Response) Data(side card.Side) map[string]string {
	f := r.Fields
	switch side {
	case card.Front:
		return map[string]string{
			"name":    f.Name,
			"gender":  f.Sex,
			"nation":  f.Nation,
			"birth":   f.Birth,
			"address": f.Address,
			"id_num":  f.IDNum,
		}
	case card.Back:
		return map[string]string{
			"authority":  f.Authority,
			"valid_date": f.ValidDate,
		}
	}
	m := map[string]string{}
	for k, v := range map[string]string{
		"name": f.Name, "gender": f.Sex, "nation": f.Nation, "birth": f.Birth,
		"address": f.Address, "id_num": f.IDNum, "authority": f.Authority, "valid_date": f.ValidDate,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// decodeResponse parses {"Response": {...}} into a Response
func decodeResponse(body []byte) (*Response, error) {
	var env struct {
		Response json.RawMessage `json:"Response"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "decode ocr response")
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return nil, perr.JSONErrf("ocr response missing Response object")
	}

	var head struct {
		Error     *APIError `json:"Error"`
		RequestID string    `json:"RequestId"`
	}
	if err := json.Unmarshal(env.Response, &head); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "decode ocr response head")
	}
	out := &Response{RequestID: head.RequestID, Error: head.Error, Raw: env.Response}
	if head.Error != nil {
		return out, nil
	}

	var params ocr.IDCardOCRResponseParams
	if err := json.Unmarshal(env.Response, &params); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "decode ocr fields")
	}
	out.Fields = Fields{
		Name:         str(params.Name),
		Sex:          str(params.Sex),
		Nation:       str(params.Nation),
		Birth:        str(params.Birth),
		Address:      str(params.Address),
		IDNum:        str(params.IdNum),
		Authority:    str(params.Authority),
		ValidDate:    str(params.ValidDate),
		AdvancedInfo: str(params.AdvancedInfo),
	}
	return out, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
