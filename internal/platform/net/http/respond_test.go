package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "idcardocr/internal/platform/errors"
	pnet "idcardocr/internal/platform/net"
	phttp "idcardocr/internal/platform/net/http"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestRespondOK_CarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(pnet.WithRequest(req.Context(), "rid-7", ""))
	rec := httptest.NewRecorder()

	phttp.RespondOK(rec, req, map[string]int{"n": 1})

	env := decode(t, rec)
	if rec.Code != http.StatusOK || env.RequestID != "rid-7" || env.Status != "OK" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRespondError_MapsCodeAndField(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   perr.ErrorCode
	}{
		{perr.WithField(perr.Validationf("image_base64 is required"), "image_base64"), http.StatusBadRequest, perr.ErrorCodeValidation},
		{perr.Newf(perr.ErrorCodeApplication, "FailedOperation.ImageBlur: blurry"), http.StatusBadGateway, perr.ErrorCodeApplication},
		{perr.Newf(perr.ErrorCodeTransport, "request failed after 3 attempts"), http.StatusServiceUnavailable, perr.ErrorCodeTransport},
		{errors.New("boom"), http.StatusInternalServerError, perr.ErrorCodeUnknown},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		phttp.RespondError(rec, httptest.NewRequest(http.MethodPost, "/", nil), c.err)
		env := decode(t, rec)
		if rec.Code != c.status || env.Code != c.code {
			t.Fatalf("%v: status=%d code=%v", c.err, rec.Code, env.Code)
		}
	}

	rec := httptest.NewRecorder()
	phttp.RespondError(rec, httptest.NewRequest(http.MethodPost, "/", nil), cases[0].err)
	if env := decode(t, rec); env.Field != "image_base64" {
		t.Fatalf("field = %q", env.Field)
	}
}

func TestPostJSON_BindsValidatesAndWraps(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"required"`
	}
	m := phttp.NewServer(":0", nil).Router()
	phttp.PostJSON(m, "/hello", func(_ *http.Request, v in) (any, error) {
		if v.Name == "fail" {
			return nil, perr.Newf(perr.ErrorCodeApplication, "nope")
		}
		return map[string]string{"hi": v.Name}, nil
	})
	phttp.GetJSON(m, "/ping", func(*http.Request) (any, error) { return "pong", nil })

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		m.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hello", strings.NewReader(body)))
		return rec
	}

	if rec := post(`{"name":"ada"}`); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"hi":"ada"`) {
		t.Fatalf("happy path: %d %s", rec.Code, rec.Body.String())
	}
	if rec := post(`{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("validation: %d", rec.Code)
	}
	if rec := post(`{"name":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}
	if rec := post(`{"name":"fail"}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("handler error: %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	m.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":"pong"`) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
}
