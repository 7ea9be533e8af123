package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
)

// envVarPattern matches ${VAR} or ${VAR:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} references with values from
// the environment. Unset variables without a default expand to "".
//
// Example:
//
//	input := "include: ${ICON_DIR:-src/assets/icon}"
//	output := ExpandEnv(input)
//	// ICON_DIR unset: "include: src/assets/icon"
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		if value, ok := os.LookupEnv(parts[1]); ok && value != "" {
			return value
		}
		if len(parts) >= 4 && parts[2] != "" {
			return parts[3]
		}
		return ""
	})
}

// ExpandEnvBytes is ExpandEnv for file contents read before unmarshaling
func ExpandEnvBytes(input []byte) []byte {
	return []byte(ExpandEnv(string(input)))
}

// ExtractEnvVars lists the distinct variable names referenced in input, in
// order of first appearance.
func ExtractEnvVars(input string) []string {
	matches := envVarPattern.FindAllStringSubmatch(input, -1)
	seen := make(map[string]bool)
	result := make([]string, 0)

	for _, match := range matches {
		if len(match) >= 2 && !seen[match[1]] {
			seen[match[1]] = true
			result = append(result, match[1])
		}
	}

	return result
}

// ParseEnv fills target from its `env` struct tags. Fields whose variable is
// unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
