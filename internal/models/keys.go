// internal/models/keys.go
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Storage key namespaces. Everything the server persists lives under one
// of these two prefixes.
const (
	LicensePrefix = "license:"
	TamperPrefix  = "tamper:"
)

// LicenseKey addresses a license record by device id.
type LicenseKey struct {
	DeviceID string
}

func (k LicenseKey) Encode() string {
	return LicensePrefix + k.DeviceID
}

func ParseLicenseKey(raw string) (LicenseKey, error) {
	rest, ok := strings.CutPrefix(raw, LicensePrefix)
	if !ok || rest == "" {
		return LicenseKey{}, fmt.Errorf("not a license key: %q", raw)
	}
	return LicenseKey{DeviceID: rest}, nil
}

// TamperKey addresses a single tamper report. Uniqueness rests on device
// id plus millisecond timestamp; two reports for the same device within
// one millisecond collide and the later write wins. Accepted collision
// risk, kept as-is.
type TamperKey struct {
	DeviceID   string
	UnixMillis int64
}

func NewTamperKey(deviceID string, at time.Time) TamperKey {
	return TamperKey{DeviceID: deviceID, UnixMillis: at.UnixMilli()}
}

func (k TamperKey) Encode() string {
	return fmt.Sprintf("%s%s:%d", TamperPrefix, k.DeviceID, k.UnixMillis)
}

// ParseTamperKey is the inverse of Encode. Device ids are opaque and may
// themselves contain colons, so the timestamp is split off the tail.
func ParseTamperKey(raw string) (TamperKey, error) {
	rest, ok := strings.CutPrefix(raw, TamperPrefix)
	if !ok {
		return TamperKey{}, fmt.Errorf("not a tamper key: %q", raw)
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return TamperKey{}, fmt.Errorf("malformed tamper key: %q", raw)
	}
	ms, err := strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil {
		return TamperKey{}, fmt.Errorf("malformed tamper key %q: %w", raw, err)
	}
	return TamperKey{DeviceID: rest[:i], UnixMillis: ms}, nil
}
