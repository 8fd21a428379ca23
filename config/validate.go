package config

import (
	"fmt"

	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
)

func errInvalidAmount(s string) error {
	return fmt.Errorf("config: invalid amount %q", s)
}

func fieldErr(field string, err error) error {
	return fmt.Errorf("config: %s: %w", field, err)
}

// Validate checks the configuration for internal consistency beyond what
// EngineConfig's parsing alone catches: addresses, rate limits, and an
// escalation multiplier that actually escalates.
func (c *Config) Validate() error {
	if c.RPCAddress == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if c.KeeperKey == "" {
		return fmt.Errorf("config: KeeperKey must not be empty")
	}
	if _, err := c.KeeperPrivateKey(); err != nil {
		return fieldErr("KeeperKey", err)
	}
	if c.PriceMultiplierBps <= nativehotpotato.BpsDenominator {
		return fmt.Errorf("config: PriceMultiplierBps must exceed %d (1.0x), got %d: price would never escalate", nativehotpotato.BpsDenominator, c.PriceMultiplierBps)
	}
	if c.RPCRateLimitPerSecond <= 0 {
		return fmt.Errorf("config: RPCRateLimitPerSecond must be positive")
	}
	if c.RPCRateLimitBurst <= 0 {
		return fmt.Errorf("config: RPCRateLimitBurst must be positive")
	}
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	return nil
}
