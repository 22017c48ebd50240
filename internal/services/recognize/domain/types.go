// Package domain holds the batch recognition types shared by service, module and report
package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"idcardocr/internal/core/card"
	perr "idcardocr/internal/platform/errors"
)

// Status is the outcome of one card side
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusError     Status = "ERROR"     // the OCR service answered with an error
	StatusException Status = "EXCEPTION" // transport, file or compression failure
	StatusMissing   Status = "MISSING"   // no image for this side
)

// Overall is the per person verdict
type Overall string

const (
	OverallBoth      Overall = "✓ 成功 (SUCCESS)"
	OverallFrontOnly Overall = "⚠ 仅正面成功 (Front Only)"
	OverallBackOnly  Overall = "⚠ 仅背面成功 (Back Only)"
	OverallFailed    Overall = "✗ 失败 (FAILED)"
)

// Partial reports whether only one side succeeded
func (o Overall) Partial() bool { return o == OverallFrontOnly || o == OverallBackOnly }

// OverallOf derives the verdict from the two side statuses
func OverallOf(front, back Status) Overall {
	f, b := front == StatusSuccess, back == StatusSuccess
	switch {
	case f && b:
		return OverallBoth
	case f:
		return OverallFrontOnly
	case b:
		return OverallBackOnly
	default:
		return OverallFailed
	}
}

// SideResult is the record of one side
type SideResult struct {
	Status Status            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// Missing is the record for a side without an image
func Missing() SideResult { return SideResult{Status: StatusMissing} }

// ResultOf maps a recognizer outcome onto a side record
// Errors reported by the OCR service are ERROR with its message, anything else is EXCEPTION
func ResultOf(data map[string]string, err error) SideResult {
	if err == nil {
		return SideResult{Status: StatusSuccess, Data: data}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if pe, ok := e.(*perr.Error); ok && pe.Code() == perr.ErrorCodeApplication {
			return SideResult{Status: StatusError, Error: pe.ToWire().Message}
		}
	}
	return SideResult{Status: StatusException, Error: err.Error()}
}

// Person groups the images found for one card holder
type Person struct {
	Key   string
	Front string // path, empty when absent
	Back  string
}

// PersonResult is the full record for one person
type PersonResult struct {
	Person     string
	FrontImage string // base name or N/A
	BackImage  string
	Front      SideResult
	Back       SideResult
	Overall    Overall
}

// Field returns an extracted field from whichever side produced it
func (r PersonResult) Field(name string) string {
	if v, ok := r.Front.Data[name]; ok {
		return v
	}
	return r.Back.Data[name]
}

// Stats aggregates a batch
type Stats struct {
	TotalPersons     int
	BothSidesSuccess int
	FrontOnlySuccess int
	BackOnlySuccess  int
	BothSidesFailed  int
	FrontMissing     int
	BackMissing      int
	TotalAPICalls    int
	SuccessfulCalls  int
	FailedCalls      int
}

// SuccessRate is the share of successful API calls, as a percentage
func (s Stats) SuccessRate() float64 {
	if s.TotalAPICalls == 0 {
		return 0
	}
	return float64(s.SuccessfulCalls) / float64(s.TotalAPICalls) * 100
}

// Share is n as a percentage of all people
func (s Stats) Share(n int) float64 {
	if s.TotalPersons == 0 {
		return 0
	}
	return float64(n) / float64(s.TotalPersons) * 100
}

// Batch is what one Run produced
type Batch struct {
	RunID     string
	Dir       string
	Started   time.Time
	Elapsed   time.Duration
	Results   []PersonResult
	Stats     Stats
	Cancelled bool
}

// CalculateStats counts outcomes; any side that was not MISSING counts as one API call
func CalculateStats(results []PersonResult) Stats {
	st := Stats{TotalPersons: len(results)}
	for _, r := range results {
		switch r.Overall {
		case OverallBoth:
			st.BothSidesSuccess++
		case OverallFrontOnly:
			st.FrontOnlySuccess++
		case OverallBackOnly:
			st.BackOnlySuccess++
		default:
			st.BothSidesFailed++
		}
		if r.Front.Status == StatusMissing {
			st.FrontMissing++
		}
		if r.Back.Status == StatusMissing {
			st.BackMissing++
		}
		for _, s := range []Status{r.Front.Status, r.Back.Status} {
			if s == StatusMissing {
				continue
			}
			st.TotalAPICalls++
			if s == StatusSuccess {
				st.SuccessfulCalls++
			} else {
				st.FailedCalls++
			}
		}
	}
	return st
}

// GroupImages buckets image paths by person key
// A path with neither suffix still registers its person, with no side assigned
func GroupImages(paths []string) []Person {
	idx := map[string]*Person{}
	order := []string{}
	for _, p := range paths {
		key, side := card.PersonKey(p)
		if key == "" {
			continue
		}
		pp, ok := idx[key]
		if !ok {
			pp = &Person{Key: key}
			idx[key] = pp
			order = append(order, key)
		}
		switch side {
		case card.Front:
			pp.Front = p
		case card.Back:
			pp.Back = p
		}
	}
	sort.Strings(order)
	out := make([]Person, 0, len(order))
	for _, k := range order {
		out = append(out, *idx[k])
	}
	return out
}

// SortResults orders results by person key
func SortResults(rs []PersonResult) {
	sort.SliceStable(rs, func(i, j int) bool { return strings.Compare(rs[i].Person, rs[j].Person) < 0 })
}
