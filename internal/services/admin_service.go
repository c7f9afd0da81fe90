// internal/services/admin_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcsiot/license-server/internal/models"
	"github.com/mcsiot/license-server/internal/store"
)

// ErrInvalidRequest marks failures the caller can fix. Handlers map it to
// HTTP 400; everything else from this service is a store failure.
var ErrInvalidRequest = errors.New("invalid request")

// listFetchConcurrency bounds the parallel value fetches behind a prefix
// scan.
const listFetchConcurrency = 16

// AdminService implements the management operations over license records
// and the tamper audit log.
type AdminService struct {
	store store.Store
	now   func() time.Time
}

func NewAdminService(st store.Store) *AdminService {
	return &AdminService{store: st, now: time.Now}
}

type UpsertLicenseRequest struct {
	DeviceID     string   `json:"device_id" binding:"required"`
	Customer     string   `json:"customer" binding:"required"`
	ExpiresAt    string   `json:"expires_at" binding:"required"`
	Status       string   `json:"status" binding:"omitempty,oneof=active disabled"`
	Features     []string `json:"features"`
	ExpectedHash string   `json:"expected_hash"`
}

// UpsertLicense creates or replaces the record for a device. created_at is
// sticky: re-adding an existing device keeps the original value, only
// updated_at moves. Concurrent upserts to the same device race with
// last-write-wins; there is no version check or lock.
func (s *AdminService) UpsertLicense(ctx context.Context, req *UpsertLicenseRequest) (*models.LicenseRecord, error) {
	now := s.now().UTC().Format(time.RFC3339)

	status := models.LicenseStatus(req.Status)
	if status == "" {
		status = models.LicenseStatusActive
	}

	features := req.Features
	if features == nil {
		features = models.DefaultFeatures()
	}

	rec := models.LicenseRecord{
		DeviceID:     req.DeviceID,
		Status:       status,
		Customer:     req.Customer,
		ExpiresAt:    req.ExpiresAt,
		Features:     features,
		ExpectedHash: req.ExpectedHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	key := models.LicenseKey{DeviceID: req.DeviceID}.Encode()
	if raw, err := s.store.Get(ctx, key); err == nil {
		var prev models.LicenseRecord
		if json.Unmarshal(raw, &prev) == nil && prev.CreatedAt != "" {
			rec.CreatedAt = prev.CreatedAt
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("license lookup for %s: %w", req.DeviceID, err)
	}

	raw, err := json.Marshal(&rec)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, raw); err != nil {
		return nil, fmt.Errorf("store license %s: %w", req.DeviceID, err)
	}

	return &rec, nil
}

type DeleteRequest struct {
	Type     string `json:"type" binding:"required,oneof=license log"`
	DeviceID string `json:"device_id"`
	Key      string `json:"key"`
}

// Delete removes one license record or one tamper log entry. Deleting a
// license never touches its tamper logs; audit history outlives the
// license.
func (s *AdminService) Delete(ctx context.Context, req *DeleteRequest) error {
	var key string
	switch req.Type {
	case "license":
		if req.DeviceID == "" {
			return fmt.Errorf("%w: device_id is required for type license", ErrInvalidRequest)
		}
		key = models.LicenseKey{DeviceID: req.DeviceID}.Encode()
	case "log":
		if req.Key == "" {
			return fmt.Errorf("%w: key is required for type log", ErrInvalidRequest)
		}
		// Only well-formed tamper keys may be deleted through this path,
		// so the log type cannot be used to remove license records.
		if _, err := models.ParseTamperKey(req.Key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		key = req.Key
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ListLicenses returns every license record, newest first. Keys that
// vanish between the scan and the fetch are skipped; the store makes no
// snapshot promise and neither does this listing.
func (s *AdminService) ListLicenses(ctx context.Context) ([]models.LicenseRecord, error) {
	keys, err := s.store.List(ctx, models.LicensePrefix)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}

	records := make([]*models.LicenseRecord, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listFetchConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			raw, err := s.store.Get(gctx, key)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", key, err)
			}
			var rec models.LicenseRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.LicenseRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortTime(out[i].CreatedAt).After(sortTime(out[j].CreatedAt))
	})
	return out, nil
}

// ListTamperLogs returns every tamper report, newest first, each annotated
// with its raw storage key for later deletion.
func (s *AdminService) ListTamperLogs(ctx context.Context) ([]models.TamperLogEntry, error) {
	keys, err := s.store.List(ctx, models.TamperPrefix)
	if err != nil {
		return nil, fmt.Errorf("list tamper logs: %w", err)
	}

	entries := make([]*models.TamperLogEntry, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listFetchConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			raw, err := s.store.Get(gctx, key)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", key, err)
			}
			var report models.TamperReport
			if err := json.Unmarshal(raw, &report); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			entries[i] = &models.TamperLogEntry{TamperReport: report, Key: key}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.TamperLogEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, *e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortTime(out[i].Timestamp).After(sortTime(out[j].Timestamp))
	})
	return out, nil
}

// sortTime turns a stored timestamp into a sort key. Missing or unparsable
// values map to the zero time, so they sort as the oldest entries.
func sortTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
