package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DenhamPreen/hot-potato/crypto"
)

func testAddress(t *testing.T) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key.PubKey().Address().String()
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotpotatod.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.NotEmpty(t, cfg.KeeperKey)
	require.NotEmpty(t, cfg.CreatorAddress)
	require.NoError(t, cfg.Validate())

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.KeeperKey, reloaded.KeeperKey)
}

func TestLoadFillsMissingKeeperKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotpotatod.toml")
	body := fmt.Sprintf(`
RPCAddress = ":8080"
MetricsAddress = ":9100"
DataDir = "./data"
LogEnv = "development"
BaseEntryPrice = "1000000000000000000"
PriceMultiplierBps = 11000
KeeperReward = "10000000000000000"
CreatorFee = "50000000000000000"
CreatorAddress = %q
RPCRateLimitPerSecond = 20
RPCRateLimitBurst = 40
`, testAddress(t))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.KeeperKey)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "KeeperKey")
}

func TestEngineConfigParsesAmounts(t *testing.T) {
	cfg := &Config{
		BaseEntryPrice:     "1000000000000000000",
		PriceMultiplierBps: 11000,
		KeeperReward:       "10000000000000000",
		CreatorFee:         "50000000000000000",
		CreatorAddress:     testAddress(t),
	}

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", engineCfg.BaseEntryPrice.String())
	require.Equal(t, uint64(11000), engineCfg.PriceMultiplierBps)
}

func TestEngineConfigRejectsMalformedAmount(t *testing.T) {
	cfg := &Config{BaseEntryPrice: "not-a-number", CreatorAddress: testAddress(t)}
	_, err := cfg.EngineConfig()
	require.Error(t, err)
}

func TestValidateRejectsNonEscalatingMultiplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotpotatod.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.PriceMultiplierBps = 10000
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyRPCAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotpotatod.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.RPCAddress = ""
	require.Error(t, cfg.Validate())
}
