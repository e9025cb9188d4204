package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicy_Default(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)

	assert.Equal(t, 5, policy.Used.MaxActiveListings)
	assert.Equal(t, 6*time.Hour, policy.Used.DeletePenalty())
	assert.Equal(t, 3*time.Minute, policy.Verification.CodeTTL())
	assert.Equal(t, 48, policy.GroupBuy.MaxDurationHours)
}

func TestLoadPolicy_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	content := `
[used]
max_active_listings = 3

[bid_token]
unit_price = 2500

[group_buy]
voting_hours = 6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 3, policy.Used.MaxActiveListings)
	assert.Equal(t, int64(2500), int64(policy.BidToken.UnitPrice))
	assert.Equal(t, 6, policy.GroupBuy.VotingHours)

	// 파일에 없는 값은 기본값 유지
	assert.Equal(t, 5, policy.Used.MaxOffersPerBuyer)
	assert.Equal(t, 48, policy.GroupBuy.MaxDurationHours)
}

func TestLoadPolicy_Errors(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[used\nmax_active_listings = "), 0o600))
	_, err = LoadPolicy(path)
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "dungji", Password: "pw", DBName: "market", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=dungji password=pw dbname=market sslmode=disable", cfg.DSN())
}
