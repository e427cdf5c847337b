package domain

// defaultPolicyScore applies to states missing from a PolicyTable.
const defaultPolicyScore = 1.0

// PolicyTable maps a state to its regulatory incentive multiplier.
type PolicyTable map[string]float64

// DefaultPolicyTable returns the built-in incentive multipliers.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		"Maharashtra":   1.5,
		"Delhi":         1.8,
		"Karnataka":     1.6,
		"Tamil Nadu":    1.4,
		"Gujarat":       1.3,
		"Uttar Pradesh": 1.2,
		"Kerala":        1.5,
		"Telangana":     1.4,
	}
}

// Score returns the multiplier for state, or 1.0 when the state is not listed.
func (p PolicyTable) Score(state string) float64 {
	if v, ok := p[state]; ok {
		return v
	}
	return defaultPolicyScore
}
