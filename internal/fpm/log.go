package fpm

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// LogOrDiscard returns l, or a logger that drops everything when l is nil.
// Library stages take an optional log.FieldLogger and call this once.
func LogOrDiscard(l log.FieldLogger) log.FieldLogger {
	if l != nil {
		return l
	}
	d := log.New()
	d.SetOutput(io.Discard)
	return d
}
