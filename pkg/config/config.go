package config

import "fmt"

// Config is the resolved configuration for a single ovmtrace run.
type Config struct {
	ScenarioPath string
	Fork         string
	OutputPath   string
	Verbosity    int

	// GasLimit is the block gas limit exposed to the GASLIMIT opcode, not
	// the entry message's own gas limit (that comes from the scenario).
	GasLimit uint64

	// AllowUnlimitedContractSize disables the EIP-170 max-code-size check,
	// matching go-ethereum's vm.Config field of the same name.
	AllowUnlimitedContractSize bool
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		ScenarioPath: "",
		Fork:         "london",
		OutputPath:   "",
		Verbosity:    3,
		GasLimit:     30_000_000,
	}
}

// Validate rejects configurations the runner cannot act on.
func (c *Config) Validate() error {
	if c.ScenarioPath == "" {
		return fmt.Errorf("scenario path is required")
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("block gas limit must be nonzero")
	}
	return nil
}
