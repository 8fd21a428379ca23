// Package config loads hotpotatod's on-disk configuration: the daemon's
// listen addresses and data directory, the keeper key used to sign
// settlement calls, and the engine's economic parameters.
package config

import (
	"encoding/hex"
	"math/big"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/DenhamPreen/hot-potato/crypto"
	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
)

// Config is hotpotatod's full configuration. Economic amounts are stored as
// base-10 strings rather than floats or machine ints so that 18-decimal
// token amounts round-trip through TOML without precision loss.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	KeeperKey      string `toml:"KeeperKey"`
	LogEnv         string `toml:"LogEnv"`

	BaseEntryPrice         string `toml:"BaseEntryPrice"`
	PriceMultiplierBps     uint64 `toml:"PriceMultiplierBps"`
	KeeperReward           string `toml:"KeeperReward"`
	CreatorFee             string `toml:"CreatorFee"`
	CreatorAddress         string `toml:"CreatorAddress"`
	TwoStepCreatorHandover bool   `toml:"TwoStepCreatorHandover"`

	RPCRateLimitPerSecond float64 `toml:"RPCRateLimitPerSecond"`
	RPCRateLimitBurst     int     `toml:"RPCRateLimitBurst"`

	OTelEndpoint string `toml:"OTelEndpoint"`
	OTelInsecure bool   `toml:"OTelInsecure"`
	OTelTraces   bool   `toml:"OTelTraces"`
	OTelMetrics  bool   `toml:"OTelMetrics"`
}

// Load reads the configuration at path, creating a default one (with a
// freshly generated keeper key) if it does not yet exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.KeeperKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.KeeperKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// createDefault writes and returns a default configuration file at path.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:     ":8080",
		MetricsAddress: ":9100",
		DataDir:        "./hotpotato-data",
		KeeperKey:      hex.EncodeToString(key.Bytes()),
		LogEnv:         "development",

		BaseEntryPrice:     "1000000000000000000",
		PriceMultiplierBps: 11000,
		KeeperReward:       "10000000000000000",
		CreatorFee:         "50000000000000000",
		CreatorAddress:     key.PubKey().Address().String(),

		RPCRateLimitPerSecond: 20,
		RPCRateLimitBurst:     40,

		OTelEndpoint: "",
		OTelInsecure: true,
		OTelTraces:   false,
		OTelMetrics:  false,
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KeeperPrivateKey decodes the configured hex keeper key.
func (c *Config) KeeperPrivateKey() (*crypto.PrivateKey, error) {
	raw, err := hex.DecodeString(c.KeeperKey)
	if err != nil {
		return nil, err
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// EngineConfig converts the string/TOML-friendly economic fields into the
// native engine's Config, parsing amounts and decoding the creator address.
func (c *Config) EngineConfig() (nativehotpotato.Config, error) {
	baseEntryPrice, err := parseAmount(c.BaseEntryPrice)
	if err != nil {
		return nativehotpotato.Config{}, fieldErr("BaseEntryPrice", err)
	}
	keeperReward, err := parseAmount(c.KeeperReward)
	if err != nil {
		return nativehotpotato.Config{}, fieldErr("KeeperReward", err)
	}
	creatorFee, err := parseAmount(c.CreatorFee)
	if err != nil {
		return nativehotpotato.Config{}, fieldErr("CreatorFee", err)
	}
	creator, err := crypto.DecodeAddress(c.CreatorAddress)
	if err != nil {
		return nativehotpotato.Config{}, fieldErr("CreatorAddress", err)
	}

	return nativehotpotato.Config{
		BaseEntryPrice:         baseEntryPrice,
		PriceMultiplierBps:     c.PriceMultiplierBps,
		KeeperReward:           keeperReward,
		CreatorFee:             creatorFee,
		CreatorAddress:         creator.Bytes20(),
		TwoStepCreatorHandover: c.TwoStepCreatorHandover,
	}, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errInvalidAmount(s)
	}
	if v.Sign() < 0 {
		return nil, errInvalidAmount(s)
	}
	return v, nil
}
