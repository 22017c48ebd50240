package modkit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"idcardocr/internal/platform/config"
)

func TestDeps_LoggerNamesComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	d := Deps{Log: zerolog.New(&buf), Cfg: config.New()}
	d.Logger("recognize").Info().Msg("hi")
	if !strings.Contains(buf.String(), `"component":"recognize"`) {
		t.Fatalf("component missing: %s", buf.String())
	}
}

func TestDeps_ZeroValueLoggerIsUsable(t *testing.T) {
	t.Parallel()
	var d Deps
	d.Logger("x").Info().Msg("discarded")
}
