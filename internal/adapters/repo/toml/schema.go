package toml

import "fmt"

const currentSchemaVersion = 1

type stateSchema struct {
	Version        int            `toml:"version"`
	PathExtensions []string       `toml:"path_extensions"`
	Records        []recordSchema `toml:"records"`
}

func (s *stateSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s stateSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type recordSchema struct {
	Name        string `toml:"name"`
	Kind        string `toml:"kind"`
	Mode        string `toml:"mode"`
	Requirement string `toml:"requirement,omitempty"`
	Remote      string `toml:"remote,omitempty"`
	Revision    string `toml:"revision,omitempty"`
	SecretRef   string `toml:"secret_ref,omitempty"`
	Dir         string `toml:"dir,omitempty"`
	ImportPath  string `toml:"import_path,omitempty"`
	Commit      string `toml:"commit,omitempty"`
	InstalledAt string `toml:"installed_at,omitempty"`
	SyncedAt    string `toml:"synced_at,omitempty"`
}
