// Package signer implements the TC3-HMAC-SHA256 request signature used by the
// Tencent Cloud API gateway. Signing is pure: the same payload, credential and
// timestamp always produce the same headers
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	perr "idcardocr/internal/platform/errors"
)

const (
	// Algorithm is the scheme tag carried in the string to sign and the Authorization header
	Algorithm = "TC3-HMAC-SHA256"
	// ContentType is the only body type the gateway signs for POST
	ContentType = "application/json; charset=utf-8"
	// SignedHeaders lists the canonical headers in signing order
	SignedHeaders = "content-type;host;x-tc-action"

	keyPrefix    = "TC3"
	requestScope = "tc3_request"
)

// MinCredentialLength rejects obviously truncated keys
const MinCredentialLength = 20

var credChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Credential is a SecretId / SecretKey pair, immutable once loaded
type Credential struct {
	ID     string
	Secret string
}

// Validate checks length and character set of both halves
func (c Credential) Validate() error {
	for _, f := range []struct{ name, v string }{{"secret_id", c.ID}, {"secret_key", c.Secret}} {
		switch {
		case f.v == "":
			return perr.WithField(perr.Configf("%s is required", f.name), f.name)
		case len(f.v) < MinCredentialLength:
			return perr.WithField(perr.Configf("%s must be at least %d characters", f.name, MinCredentialLength), f.name)
		case !credChars.MatchString(f.v):
			return perr.WithField(perr.Configf("%s may only contain letters, digits, '-' and '_'", f.name), f.name)
		}
	}
	return nil
}

// Scope pins a signature to one product endpoint and action
type Scope struct {
	Service string
	Host    string
	Action  string
	Version string
	Region  string
}

// DefaultScope is the IDCardOCR action of the ocr product
func DefaultScope() Scope {
	return Scope{
		Service: "ocr",
		Host:    "ocr.tencentcloudapi.com",
		Action:  "IDCardOCR",
		Version: "2018-11-19",
	}
}

// Envelope is the signed header set plus body for one HTTP attempt
type Envelope struct {
	Headers   map[string]string
	Payload   []byte
	Timestamp int64
}

// Apply copies the envelope headers onto req; Host goes to req.Host
func (e Envelope) Apply(req *http.Request) {
	for k, v := range e.Headers {
		if k == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
}

// Signer binds a scope so callers only pass payload, credential and time
type Signer struct {
	scope Scope
}

// New returns a Signer for scope; zero fields fall back to DefaultScope
func New(scope Scope) *Signer {
	def := DefaultScope()
	if scope.Service == "" {
		scope.Service = def.Service
	}
	if scope.Host == "" {
		scope.Host = def.Host
	}
	if scope.Action == "" {
		scope.Action = def.Action
	}
	if scope.Version == "" {
		scope.Version = def.Version
	}
	return &Signer{scope: scope}
}

// Scope returns the bound scope
func (s *Signer) Scope() Scope { return s.scope }

// Sign builds the header set for payload at unix time ts
func (s *Signer) Sign(payload []byte, cred Credential, ts int64) Envelope {
	date := time.Unix(ts, 0).UTC().Format("2006-01-02")
	credScope := CredentialScope(date, s.scope.Service)

	canonical := CanonicalRequest(s.scope, payload)
	toSign := StringToSign(ts, credScope, canonical)
	sig := hex.EncodeToString(hmacSHA256(SigningKey(cred.Secret, date, s.scope.Service), toSign))

	auth := Algorithm +
		" Credential=" + cred.ID + "/" + credScope +
		", SignedHeaders=" + SignedHeaders +
		", Signature=" + sig

	h := map[string]string{
		"Authorization":  auth,
		"Content-Type":   ContentType,
		"Host":           s.scope.Host,
		"X-TC-Action":    s.scope.Action,
		"X-TC-Timestamp": strconv.FormatInt(ts, 10),
		"X-TC-Version":   s.scope.Version,
	}
	if s.scope.Region != "" {
		h["X-TC-Region"] = s.scope.Region
	}
	return Envelope{Headers: h, Payload: payload, Timestamp: ts}
}

// CanonicalRequest is step 1 of the scheme
func CanonicalRequest(scope Scope, payload []byte) string {
	headers := "content-type:" + ContentType + "\n" +
		"host:" + scope.Host + "\n" +
		"x-tc-action:" + strings.ToLower(scope.Action) + "\n"
	return strings.Join([]string{
		http.MethodPost,
		"/",
		"",
		headers,
		SignedHeaders,
		sha256Hex(payload),
	}, "\n")
}

// CredentialScope is "<date>/<service>/tc3_request"
func CredentialScope(date, service string) string {
	return date + "/" + service + "/" + requestScope
}

// StringToSign is step 2 of the scheme
func StringToSign(ts int64, credScope, canonical string) string {
	return Algorithm + "\n" +
		strconv.FormatInt(ts, 10) + "\n" +
		credScope + "\n" +
		sha256Hex([]byte(canonical))
}

// SigningKey derives the per-day, per-service key
func SigningKey(secret, date, service string) []byte {
	k := hmacSHA256([]byte(keyPrefix+secret), date)
	k = hmacSHA256(k, service)
	return hmacSHA256(k, requestScope)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, msg string) []byte {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(msg))
	return m.Sum(nil)
}
