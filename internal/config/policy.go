package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

type policyFile struct {
	Policy map[string]float64 `toml:"policy"`
}

// LoadPolicyTable returns the built-in policy table, overlaid with the
// [policy] table of the TOML file at path when path is non-empty.
//
//	[policy]
//	Delhi = 1.8
//	"Andhra Pradesh" = 1.2
func LoadPolicyTable(path string) (domain.PolicyTable, error) {
	policies := domain.DefaultPolicyTable()
	if path == "" {
		return policies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var file policyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	for state, score := range file.Policy {
		if score < 0 {
			return nil, fmt.Errorf("policy file %s: negative score %v for %q", path, score, state)
		}
		policies[state] = score
	}
	return policies, nil
}
