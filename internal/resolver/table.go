package resolver

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// supportedTableVersion is the only mapping table schema version we accept.
const supportedTableVersion = 1

// AppMapping pins one application to explicit namespaces per environment.
// Explicit mappings win over pattern-generated namespaces.
type AppMapping struct {
	Application  string              `yaml:"application"`
	BusinessUnit string              `yaml:"business_unit"`
	Environments map[string][]string `yaml:"environments"`
}

// TableDefaults fill in fields the prompt does not mention.
type TableDefaults struct {
	Environment  string `yaml:"environment"`
	BusinessUnit string `yaml:"business_unit"`
}

// MappingTable is the namespace resolution table loaded from YAML.
type MappingTable struct {
	Version  int           `yaml:"version"`
	Defaults TableDefaults `yaml:"defaults"`
	Mappings []AppMapping  `yaml:"mappings"`

	// Patterns generate namespace names when no explicit mapping matches.
	// Placeholders: {business_unit}, {application}, {environment}.
	Patterns []string `yaml:"patterns"`
}

// Validate checks schema version and mapping integrity.
func (t *MappingTable) Validate() error {
	if t.Version != supportedTableVersion {
		return fmt.Errorf("unsupported mapping table version %d (want %d)", t.Version, supportedTableVersion)
	}
	seen := map[string]bool{}
	for i, m := range t.Mappings {
		if m.Application == "" {
			return fmt.Errorf("mapping %d: application must not be empty", i)
		}
		if seen[m.Application] {
			return fmt.Errorf("duplicate mapping for application %q", m.Application)
		}
		seen[m.Application] = true
	}
	return nil
}

// LoadMappingTable loads and validates a namespace mapping table.
func LoadMappingTable(path string) (*MappingTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load mapping table from %q: %w", path, err)
	}

	var table MappingTable
	if err := k.UnmarshalWithConf("", &table, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse mapping table from %q: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("mapping table validation failed for %q: %w", path, err)
	}
	return &table, nil
}

// DefaultTable is the built-in fallback when no table file is configured.
func DefaultTable() *MappingTable {
	return &MappingTable{
		Version: supportedTableVersion,
		Defaults: TableDefaults{
			Environment:  "staging",
			BusinessUnit: "platform",
		},
		Patterns: []string{
			"{business_unit}-{application}-{environment}",
			"{application}-{environment}",
		},
	}
}
