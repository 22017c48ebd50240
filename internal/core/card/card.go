// Package card holds the small vocabulary shared by every stage: card sides,
// per-image descriptors and the filename conventions that bind them
package card

import (
	"path/filepath"
	"strings"
)

// Side is the face of an ID card
type Side string

const (
	// Front is the photo and personal-info face
	Front Side = "FRONT"
	// Back is the national-emblem and issuing-authority face
	Back Side = "BACK"
	// Unknown means no decision could be made
	Unknown Side = "UNKNOWN"
)

// ParseSide accepts FRONT/BACK in any case; anything else is Unknown
func ParseSide(s string) Side {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Front):
		return Front
	case string(Back):
		return Back
	}
	return Unknown
}

// Known reports whether s is Front or Back
func (s Side) Known() bool { return s == Front || s == Back }

// Lower is the suffix form used in file names ("front", "back")
func (s Side) Lower() string { return strings.ToLower(string(s)) }

// Image is one card face on disk
type Image struct {
	Path string
	Side Side
}

// Name returns the base file name
func (i Image) Name() string { return filepath.Base(i.Path) }

var (
	frontHints = []string{"正面", "front", "人像"}
	backHints  = []string{"反面", "back", "国徽"}
)

// SideFromFilename guesses the side from hints in the file name
// Back hints are checked after front ones so "front_back" style names stay Front
func SideFromFilename(path string) Side {
	name := strings.ToLower(filepath.Base(path))
	for _, k := range frontHints {
		if strings.Contains(name, k) {
			return Front
		}
	}
	for _, k := range backHints {
		if strings.Contains(name, k) {
			return Back
		}
	}
	return Unknown
}

// FileName returns "<base>_<side>.png" for an extracted face
func FileName(base string, s Side) string {
	return base + "_" + s.Lower() + ".png"
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// IsImage reports whether path has an extension the batch stage picks up
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// PersonKey strips the extension and any _front/_back suffix from a file name
// "alice_front.png" and "alice_back.jpg" both map to "alice"
func PersonKey(path string) (key string, s Side) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	lower := strings.ToLower(stem)
	switch {
	case strings.HasSuffix(lower, "_front"):
		return stem[:len(stem)-len("_front")], Front
	case strings.HasSuffix(lower, "_back"):
		return stem[:len(stem)-len("_back")], Back
	}
	return stem, Unknown
}
