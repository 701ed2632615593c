package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against the struct validation tags and
// the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}

	for i, m := range cfg.Mimes {
		if m.Ext == "" || m.Type == "" {
			return fmt.Errorf("mimes[%d]: ext and type must both be set", i)
		}
	}

	// The parser stores the decoded target in the header buffer; a target
	// bound above the header bound could never be reached.
	if cfg.Limits.PathMax > cfg.Limits.HeaderMax {
		return fmt.Errorf("limits: path_max (%s) must not exceed header_max (%s)",
			cfg.Limits.PathMax, cfg.Limits.HeaderMax)
	}

	return nil
}
