// Package version provides build information for the idcardocr binary.
package version

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. The variables are set at build time:
// -ldflags "-X 'idcardocr/internal/core/version.version=v0.1.0' -X 'idcardocr/internal/core/version.commit=abcd'"
func Info() BuildInfo {
	return BuildInfo{
		Service: "idcardocr",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
