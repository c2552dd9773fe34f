package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReconcileDefaults(t *testing.T) {
	t.Setenv("RECONCILE_BATCH_SIZE", "")
	t.Setenv("RECONCILE_BATCH_DELAY", "")
	t.Setenv("REMOTE_CONTENTION_MARKERS", "")

	cfg := Load()

	assert.Equal(t, 2, cfg.Reconcile.BatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.Reconcile.BatchDelay)
	assert.Equal(t, 3, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Reconcile.BaseDelay)
	assert.Equal(t, []string{DefaultContentionMarker}, cfg.Remote.ContentionMarkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RECONCILE_BATCH_SIZE", "5")
	t.Setenv("RECONCILE_BATCH_DELAY", "1s")
	t.Setenv("REMOTE_CONTENTION_MARKERS", "locked, busy ,")
	t.Setenv("REMOTE_API_BASE_URL", "https://api.example.test/api/")
	t.Setenv("SESSION_STORE", "REDIS")

	cfg := Load()

	assert.Equal(t, 5, cfg.Reconcile.BatchSize)
	assert.Equal(t, time.Second, cfg.Reconcile.BatchDelay)
	assert.Equal(t, []string{"locked", "busy"}, cfg.Remote.ContentionMarkers)
	assert.Equal(t, "https://api.example.test/api", cfg.Remote.BaseURL)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("RECONCILE_BATCH_SIZE", "zero")
	t.Setenv("RECONCILE_BATCH_DELAY", "-3s")

	cfg := Load()

	assert.Equal(t, 2, cfg.Reconcile.BatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.Reconcile.BatchDelay)
}

func TestCompanyProfileFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "company.yml")
	content := []byte(`company:
  name: Optic Sud
  address: 12 rue des Palmiers, Oran
  taxId: "000123456789"
  currencyUnit: dinars
  currencySubunit: centimes
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	holder, err := NewCompanyProfileHolder(path)
	require.NoError(t, err)

	profile := holder.Get()
	assert.Equal(t, "Optic Sud", profile.Name)
	assert.Equal(t, "000123456789", profile.TaxID)
	assert.Equal(t, "DA", profile.CurrencyCode)
}

func TestCompanyProfileRejectsEmptyName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "company.yml")
	require.NoError(t, os.WriteFile(path, []byte("company:\n  name: \"  \"\n"), 0o600))

	_, err := NewCompanyProfileHolder(path)
	assert.Error(t, err)
}
