package config

import (
	"os"
	"strings"
)

// StrictCollectionReportImmutability locks finalized collection reports:
// counter readings and money collected cannot be edited once a report is
// finalized; a correcting report must be entered instead.
//
// Set via env:
// - STRICT_COLLECTION_REPORT_IMMUTABLE=true
func StrictCollectionReportImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_COLLECTION_REPORT_IMMUTABLE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// MachineEventsEnabled gates writing outbox records for machine events.
// Disable in environments without a Pub/Sub topic (local dev, CI).
//
// Set via env:
// - MACHINE_EVENTS_ENABLED=true
func MachineEventsEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MACHINE_EVENTS_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
