package config

import "fmt"

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver string `koanf:"driver"`
	File   string `koanf:"file"`
}

func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case StoreDriverFile:
		if c.File == "" {
			return fmt.Errorf("store file path is not configured")
		}
	case StoreDriverPostgres:
	default:
		return fmt.Errorf("unknown store driver: %q", c.Driver)
	}
	return nil
}
