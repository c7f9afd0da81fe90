// internal/services/license_service_test.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcsiot/license-server/internal/models"
	"github.com/mcsiot/license-server/internal/store"
)

var errBackend = errors.New("backend unavailable")

// failingStore wraps a Store and fails selected operations, standing in
// for a transient backend outage.
type failingStore struct {
	store.Store
	failGet bool
	failPut bool
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errBackend
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errBackend
	}
	return f.Store.Put(ctx, key, value)
}

type LicenseServiceTestSuite struct {
	suite.Suite
	store *store.Memory
	svc   *LicenseService
	now   time.Time
}

func (suite *LicenseServiceTestSuite) SetupTest() {
	suite.store = store.NewMemory()
	suite.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	suite.svc = NewLicenseService(suite.store)
	suite.svc.now = func() time.Time { return suite.now }
}

func (suite *LicenseServiceTestSuite) putLicense(rec models.LicenseRecord) {
	raw, err := json.Marshal(&rec)
	require.NoError(suite.T(), err)
	key := models.LicenseKey{DeviceID: rec.DeviceID}.Encode()
	require.NoError(suite.T(), suite.store.Put(context.Background(), key, raw))
}

func (suite *LicenseServiceTestSuite) tamperKeys() []string {
	keys, err := suite.store.List(context.Background(), models.TamperPrefix)
	require.NoError(suite.T(), err)
	return keys
}

func (suite *LicenseServiceTestSuite) TestUnknownDeviceIsBusinessOutcome() {
	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "ghost"})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.Valid)
	assert.Equal(suite.T(), ReasonNotFound, result.Error)
	assert.False(suite.T(), result.Tampered)
}

func (suite *LicenseServiceTestSuite) TestDisabledWinsOverFutureExpiry() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusDisabled,
		Customer:  "Acme",
		ExpiresAt: "2099-01-01",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.Valid)
	assert.Equal(suite.T(), ReasonDisabled, result.Error)
}

func (suite *LicenseServiceTestSuite) TestDisabledWinsOverPastExpiry() {
	// Both conditions hold; the disabled verdict must be reported.
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusDisabled,
		ExpiresAt: "2020-01-01",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ReasonDisabled, result.Error)
}

func (suite *LicenseServiceTestSuite) TestExpired() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusActive,
		ExpiresAt: "2020-01-01",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), result.Valid)
	assert.Equal(suite.T(), ReasonExpired, result.Error)
}

func (suite *LicenseServiceTestSuite) TestUnparsableExpiryCountsAsExpired() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusActive,
		ExpiresAt: "whenever",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ReasonExpired, result.Error)
}

func (suite *LicenseServiceTestSuite) TestValidLicenseDefaultsFeatures() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusActive,
		Customer:  "Acme",
		ExpiresAt: "2099-01-01",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), result.Valid)
	assert.False(suite.T(), result.Tampered)
	assert.Equal(suite.T(), "Acme", result.Customer)
	assert.Equal(suite.T(), "2099-01-01", result.ExpiresAt)
	assert.Equal(suite.T(), models.DefaultFeatures(), result.Features)
}

func (suite *LicenseServiceTestSuite) TestValidLicenseKeepsExplicitFeatures() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusActive,
		ExpiresAt: "2099-01-01",
		Features:  []string{"ai"},
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"ai"}, result.Features)
}

func (suite *LicenseServiceTestSuite) TestMatchingHashIsNotTampering() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:     "d1",
		Status:       models.LicenseStatusActive,
		ExpiresAt:    "2099-01-01",
		ExpectedHash: "abc123",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1", IntegrityHash: "abc123"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), result.Valid)
	assert.False(suite.T(), result.Tampered)
	assert.Empty(suite.T(), suite.tamperKeys())
}

func (suite *LicenseServiceTestSuite) TestNoExpectedHashDisablesCheck() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:  "d1",
		Status:    models.LicenseStatusActive,
		ExpiresAt: "2099-01-01",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1", IntegrityHash: "anything"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), result.Valid)
	assert.False(suite.T(), result.Tampered)
	assert.Empty(suite.T(), suite.tamperKeys())
}

func (suite *LicenseServiceTestSuite) TestHashMismatchRecordsTamperReport() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:     "MCS-0001",
		Status:       models.LicenseStatusActive,
		Customer:     "Acme",
		ExpiresAt:    "2099-01-01",
		ExpectedHash: "abc123",
	})

	result, err := suite.svc.Verify(context.Background(), &VerifyRequest{DeviceID: "MCS-0001", IntegrityHash: "xyz999"})
	require.NoError(suite.T(), err)

	// A tampered device still verifies as valid; the report is the signal.
	assert.True(suite.T(), result.Valid)
	assert.True(suite.T(), result.Tampered)

	keys := suite.tamperKeys()
	require.Len(suite.T(), keys, 1)
	assert.Equal(suite.T(), models.NewTamperKey("MCS-0001", suite.now).Encode(), keys[0])

	raw, err := suite.store.Get(context.Background(), keys[0])
	require.NoError(suite.T(), err)
	var report models.TamperReport
	require.NoError(suite.T(), json.Unmarshal(raw, &report))
	assert.Equal(suite.T(), "MCS-0001", report.DeviceID)
	assert.Equal(suite.T(), "Acme", report.Customer)
	assert.Equal(suite.T(), "abc123", report.ExpectedHash)
	assert.Equal(suite.T(), "xyz999", report.ActualHash)
	assert.Equal(suite.T(), suite.now.Format(time.RFC3339), report.Timestamp)
}

func (suite *LicenseServiceTestSuite) TestTamperWriteFailureFailsClosed() {
	suite.putLicense(models.LicenseRecord{
		DeviceID:     "d1",
		Status:       models.LicenseStatusActive,
		ExpiresAt:    "2099-01-01",
		ExpectedHash: "abc123",
	})

	svc := NewLicenseService(&failingStore{Store: suite.store, failPut: true})
	svc.now = func() time.Time { return suite.now }

	result, err := svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1", IntegrityHash: "nope"})
	require.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
}

func (suite *LicenseServiceTestSuite) TestLookupFailureIsNotNotFound() {
	svc := NewLicenseService(&failingStore{Store: suite.store, failGet: true})
	svc.now = func() time.Time { return suite.now }

	result, err := svc.Verify(context.Background(), &VerifyRequest{DeviceID: "d1"})
	require.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, errBackend)
}

func TestLicenseServiceSuite(t *testing.T) {
	suite.Run(t, new(LicenseServiceTestSuite))
}
