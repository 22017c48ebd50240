package bind

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "idcardocr/internal/platform/errors"
	kit "idcardocr/internal/platform/testkit"
)

type imageIn struct {
	Image string `json:"image_base64" validate:"required,base64"`
	Side  string `json:"card_side,omitempty" validate:"omitempty,oneof=FRONT BACK"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		opts      []JSONOptions
		wantCode  perr.ErrorCode
		wantField string
	}{
		{name: "ok", body: `{"image_base64":"aGVsbG8=","card_side":"FRONT"}`},
		{name: "side omitted", body: `{"image_base64":"aGVsbG8="}`},
		{name: "empty body", body: ``, wantCode: perr.ErrorCodeJSON},
		{name: "broken json", body: `{"image_base64":`, wantCode: perr.ErrorCodeJSON},
		{name: "unknown field", body: `{"image_base64":"aGVsbG8=","extra":1}`, wantCode: perr.ErrorCodeJSON},
		{
			name: "unknown field tolerated",
			body: `{"image_base64":"aGVsbG8=","extra":1}`,
			opts: []JSONOptions{{DisallowUnknown: false}},
		},
		{name: "missing image", body: `{"card_side":"BACK"}`, wantCode: perr.ErrorCodeValidation, wantField: "image_base64"},
		{name: "not base64", body: `{"image_base64":"@@@"}`, wantCode: perr.ErrorCodeValidation, wantField: "image_base64"},
		{name: "bad side", body: `{"image_base64":"aGVsbG8=","card_side":"LEFT"}`, wantCode: perr.ErrorCodeValidation, wantField: "card_side"},
		{
			name:     "too large",
			body:     `{"image_base64":"aGVsbG8gd29ybGQgaGVsbG8gd29ybGQ="}`,
			opts:     []JSONOptions{{MaxBytes: 16, DisallowUnknown: true}},
			wantCode: perr.ErrorCodeJSON,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseJSON[imageIn](post(c.body), c.opts...)
			if c.wantCode == 0 && c.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Image != "aGVsbG8=" {
					t.Fatalf("payload = %+v", got)
				}
				return
			}
			fe, ok := perr.As(err)
			if !ok || fe.Code() != c.wantCode {
				t.Fatalf("code = %v (%v), want %v", perr.CodeOf(err), err, c.wantCode)
			}
			if fe.Field() != c.wantField {
				t.Fatalf("field = %q, want %q", fe.Field(), c.wantField)
			}
		})
	}
}

func TestParseJSON_TrailingData(t *testing.T) {
	kit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })

	_, err := ParseJSON[imageIn](post(`{"image_base64":"aGVsbG8="}`))
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error for trailing data, got %v", err)
	}
}

func TestParseJSON_NonStructTarget(t *testing.T) {
	_, err := ParseJSON[int](post(`5`))
	if perr.CodeOf(err) != perr.ErrorCodeUnknown {
		t.Fatalf("expected unknown code for validator misuse, got %v", err)
	}
}

func TestStruct_Messages(t *testing.T) {
	type creds struct {
		SecretID string `json:"secret_id" validate:"required,min=4,credchars"`
		Workers  int    `json:"max_concurrent" validate:"max=5"`
		Hidden   int    `json:"-" validate:"min=1"`
	}
	cases := []struct {
		in        creds
		wantField string
		wantMsg   string
	}{
		{creds{SecretID: "AKID_ok-1", Hidden: 1}, "", ""},
		{creds{SecretID: "AK", Hidden: 1}, "secret_id", "secret_id must be at least 4"},
		{creds{SecretID: "bad secret!", Hidden: 1}, "secret_id", "secret_id may only contain letters, digits, '_' and '-'"},
		{creds{SecretID: "AKID", Workers: 9, Hidden: 1}, "max_concurrent", "max_concurrent must be at most 5"},
		{creds{SecretID: "AKID"}, "Hidden", "Hidden must be at least 1"},
	}
	for i, c := range cases {
		err := Struct(c.in)
		if c.wantField == "" {
			if err != nil {
				t.Fatalf("case %d: unexpected error %v", i, err)
			}
			continue
		}
		fe, ok := perr.As(err)
		if !ok || fe.Code() != perr.ErrorCodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
		if fe.Field() != c.wantField || fe.Error() != c.wantMsg {
			t.Fatalf("case %d: got %q %q, want %q %q", i, fe.Field(), fe.Error(), c.wantField, c.wantMsg)
		}
	}
}

func TestFieldAndMessage_Foreign(t *testing.T) {
	field, msg := FieldAndMessage(errors.New("boom"))
	if field != "" || msg != "boom" {
		t.Fatalf("got field=%q msg=%q", field, msg)
	}
	if f, m := FieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil should give empty strings")
	}
}
