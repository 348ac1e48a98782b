package listing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRankingOverrides reads the optional YAML file mapping record unique
// ids to sort score overrides. An empty path yields an empty mapping.
func LoadRankingOverrides(path string) (map[string]int, error) {
	if path == "" {
		return map[string]int{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking overrides: %w", err)
	}

	overrides := make(map[string]int)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse ranking overrides: %w", err)
	}

	return overrides, nil
}
