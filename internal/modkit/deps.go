// Package modkit provides module wiring and core deps
package modkit

import (
	"idcardocr/internal/platform/config"
	"idcardocr/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
}

// Logger returns a named child of Log
func (d Deps) Logger(component string) *logger.Logger {
	l := d.Log.With().Str("component", component).Logger()
	return &l
}
