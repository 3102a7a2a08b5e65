package main

import (
	"go.uber.org/zap"

	"github.com/kanzure/webcasa/internal/webcash"
)

// backend returns the wallet collaborator implementation. The webcash server
// protocol client lives out of tree; until one is plugged in here, networked
// operations (check, recover, insert, pay) report a structured error while
// all local wallet management keeps working.
func backend(log *zap.SugaredLogger) webcash.Backend {
	log.Warn("running without a webcash server backend; transfers and check/recover will fail until one is configured")
	return webcash.Unavailable{}
}
