package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicySeed is one saved scrub policy as it appears in a seed file.
type PolicySeed struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Phrase      string   `yaml:"phrase"`
	Mode        string   `yaml:"mode,omitempty"`
	Replacement string   `yaml:"replacement,omitempty"`
	Collections []string `yaml:"collections,omitempty"`
	Priority    int      `yaml:"priority,omitempty"`
	Active      *bool    `yaml:"active,omitempty"` // absent means active
}

// PolicyFile is the on-disk shape of a YAML policy seed file.
type PolicyFile struct {
	Policies []PolicySeed `yaml:"policies"`
}

// LoadPolicyFile reads and parses a YAML policy seed file.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the server's own flags
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return &file, nil
}
