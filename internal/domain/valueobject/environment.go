package valueobject

import "fmt"

// Environment names a deployment environment. Environments are totally
// ordered by timeout permissiveness: production < staging < development.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
)

// EnvironmentFromString parses an environment name.
func EnvironmentFromString(s string) (Environment, error) {
	switch s {
	case "production", "staging", "development":
		return Environment(s), nil
	default:
		return "", fmt.Errorf("unknown environment: %s", s)
	}
}

// Permissiveness returns the relative ordering position, strictest first.
func (e Environment) Permissiveness() int {
	switch e {
	case EnvironmentProduction:
		return 0
	case EnvironmentStaging:
		return 1
	case EnvironmentDevelopment:
		return 2
	default:
		return -1
	}
}
