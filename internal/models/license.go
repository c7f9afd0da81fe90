// internal/models/license.go
package models

import "time"

type LicenseStatus string

const (
	LicenseStatusActive   LicenseStatus = "active"
	LicenseStatusDisabled LicenseStatus = "disabled"
)

// DefaultFeatures is the capability set granted to a license that carries
// no explicit feature list. An absent list means this set, not "no
// features".
func DefaultFeatures() []string {
	return []string{"mqtt_external", "ai", "r2_archive", "notifications"}
}

// LicenseRecord is the per-device authorization entity, stored as JSON
// under license:<device_id>. Timestamps are kept as strings so a record
// with a damaged timestamp still round-trips through the store.
type LicenseRecord struct {
	DeviceID     string        `json:"device_id"`
	Status       LicenseStatus `json:"status"`
	Customer     string        `json:"customer"`
	ExpiresAt    string        `json:"expires_at"`
	Features     []string      `json:"features"`
	ExpectedHash string        `json:"expected_hash"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

var expiryFormats = []string{"2006-01-02", time.RFC3339}

// ExpiryTime parses the record's expiry date. ok is false for a missing or
// unparsable value; callers treat that as already expired.
func (r *LicenseRecord) ExpiryTime() (t time.Time, ok bool) {
	for _, layout := range expiryFormats {
		if t, err := time.Parse(layout, r.ExpiresAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TamperReport records one integrity-hash mismatch for a device. Reports
// are written once by the verification engine and never updated; the
// customer name is a snapshot taken at detection time.
type TamperReport struct {
	DeviceID     string `json:"device_id"`
	Customer     string `json:"customer"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
	Timestamp    string `json:"timestamp"`
}

// TamperLogEntry is a TamperReport annotated with its raw storage key,
// which the admin client passes back when deleting the entry.
type TamperLogEntry struct {
	TamperReport
	Key string `json:"key"`
}

// VerificationResult is the verdict returned to a device. A tampered
// device still reports Valid=true: tamper detection is an audit signal,
// not an enforcement gate.
type VerificationResult struct {
	Valid     bool     `json:"valid"`
	Error     string   `json:"error,omitempty"`
	Tampered  bool     `json:"tampered"`
	Customer  string   `json:"customer,omitempty"`
	ExpiresAt string   `json:"expires_at,omitempty"`
	Features  []string `json:"features,omitempty"`
}
