// internal/services/license_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mcsiot/license-server/internal/models"
	"github.com/mcsiot/license-server/internal/store"
)

// Verdict messages surfaced to devices. These are business outcomes, not
// transport errors; the endpoint returns them with HTTP 200.
const (
	ReasonNotFound = "license not found"
	ReasonDisabled = "license disabled"
	ReasonExpired  = "license expired"
)

// LicenseService is the verification engine. It owns the rules deciding
// whether a device's license is valid and writes the tamper audit trail.
type LicenseService struct {
	store store.Store
	now   func() time.Time
}

func NewLicenseService(st store.Store) *LicenseService {
	return &LicenseService{store: st, now: time.Now}
}

type VerifyRequest struct {
	DeviceID      string `json:"device_id" binding:"required"`
	IntegrityHash string `json:"integrity_hash"`
}

// Verify evaluates a device's license. The check order is fixed: missing
// record, then disabled, then expired, then integrity hash. An unparsable
// expiry date counts as expired. A hash mismatch records a tamper report
// before returning; that write is part of the request, and its failure
// fails the whole call rather than reporting partial success.
func (s *LicenseService) Verify(ctx context.Context, req *VerifyRequest) (*models.VerificationResult, error) {
	raw, err := s.store.Get(ctx, models.LicenseKey{DeviceID: req.DeviceID}.Encode())
	if errors.Is(err, store.ErrNotFound) {
		return &models.VerificationResult{Valid: false, Error: ReasonNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("license lookup for %s: %w", req.DeviceID, err)
	}

	var rec models.LicenseRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode license %s: %w", req.DeviceID, err)
	}

	if rec.Status != models.LicenseStatusActive {
		return &models.VerificationResult{Valid: false, Error: ReasonDisabled}, nil
	}

	expiry, ok := rec.ExpiryTime()
	if !ok || expiry.Before(s.now()) {
		return &models.VerificationResult{Valid: false, Error: ReasonExpired}, nil
	}

	tampered := false
	if req.IntegrityHash != "" && rec.ExpectedHash != "" && req.IntegrityHash != rec.ExpectedHash {
		tampered = true
		if err := s.recordTamper(ctx, &rec, req.IntegrityHash); err != nil {
			return nil, fmt.Errorf("record tamper report for %s: %w", req.DeviceID, err)
		}
	}

	features := rec.Features
	if features == nil {
		features = models.DefaultFeatures()
	}

	return &models.VerificationResult{
		Valid:     true,
		Customer:  rec.Customer,
		ExpiresAt: rec.ExpiresAt,
		Features:  features,
		Tampered:  tampered,
	}, nil
}

func (s *LicenseService) recordTamper(ctx context.Context, rec *models.LicenseRecord, actualHash string) error {
	now := s.now()
	report := models.TamperReport{
		DeviceID:     rec.DeviceID,
		Customer:     rec.Customer,
		ExpectedHash: rec.ExpectedHash,
		ActualHash:   actualHash,
		Timestamp:    now.UTC().Format(time.RFC3339),
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, models.NewTamperKey(rec.DeviceID, now).Encode(), raw); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"device_id": rec.DeviceID,
		"customer":  rec.Customer,
	}).Warn("Tampering detected")

	return nil
}
