package dcf77

import (
	"os"

	"github.com/charmbracelet/log"
)

// Package logger.  The binary replaces it to apply its own level and
// formatting; everything here logs through it.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dcf77"})

// SetLogger redirects the package's log output.
func SetLogger(l *log.Logger) {
	logger = l
}
