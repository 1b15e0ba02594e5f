package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	statePathKey    = "state.path"
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	stateConfigDir  = ".nbassist"
	stateConfigFile = "state.toml"
	tempFilePattern = ".state-*.toml.tmp"
)

// Repository snapshots the session state to a TOML file so a restarted
// process can pick up the records and path entries of the previous one.
type Repository struct {
	statePath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.StateRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	statePath := cfg.GetString(statePathKey)
	if statePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		statePath = filepath.Join(homeDir, stateConfigDir, stateConfigFile)
	}

	statePath, err := normalizeStatePath(statePath)
	if err != nil {
		return nil, err
	}

	return &Repository{statePath: statePath, mu: lockForPath(statePath)}, nil
}

func (r *Repository) Path() string {
	return r.statePath
}

// Load returns an empty state when nothing was saved yet.
func (r *Repository) Load(ctx context.Context) (domain.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionState{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.SessionState{}, err
	}

	state := domain.SessionState{
		Records:        make([]domain.InstallRecord, 0, len(file.Records)),
		PathExtensions: append([]string(nil), file.PathExtensions...),
	}
	for _, entry := range file.Records {
		state.Records = append(state.Records, fromSchema(entry))
	}

	return state, nil
}

func (r *Repository) Save(ctx context.Context, state domain.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := stateSchema{
		PathExtensions: append([]string{}, state.PathExtensions...),
		Records:        make([]recordSchema, 0, len(state.Records)),
	}
	for _, record := range state.Records {
		file.Records = append(file.Records, toSchema(record))
	}

	return r.writeSchema(file)
}

func (r *Repository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.statePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session state file: %w", err)
	}

	return nil
}

func (r *Repository) readSchema() (stateSchema, error) {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stateSchema{}, nil
		}
		return stateSchema{}, fmt.Errorf("read session state file: %w", err)
	}

	var file stateSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return stateSchema{}, fmt.Errorf("decode session state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return stateSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file stateSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.statePath), stateDirMode); err != nil {
		return fmt.Errorf("create session state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.statePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session state file: %w", err)
	}
	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session state file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session state file: %w", err)
	}

	if err := os.Rename(tempName, r.statePath); err != nil {
		return fmt.Errorf("replace session state file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizeStatePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve session state path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(record domain.InstallRecord) recordSchema {
	return recordSchema{
		Name:        record.Name,
		Kind:        string(record.Kind),
		Mode:        string(record.Mode),
		Requirement: record.Requirement,
		Remote:      record.Remote,
		Revision:    record.Revision,
		SecretRef:   record.SecretRef,
		Dir:         record.Dir,
		ImportPath:  record.ImportPath,
		Commit:      record.Commit,
		InstalledAt: formatTime(record.InstalledAt),
		SyncedAt:    formatTime(record.SyncedAt),
	}
}

func fromSchema(record recordSchema) domain.InstallRecord {
	mode := domain.InstallMode(record.Mode)
	kind := domain.SourceKind(record.Kind)
	if kind == "" && mode.Valid() {
		kind = mode.SourceKind()
	}

	return domain.InstallRecord{
		Name:        record.Name,
		Kind:        kind,
		Mode:        mode,
		Requirement: record.Requirement,
		Remote:      record.Remote,
		Revision:    record.Revision,
		SecretRef:   record.SecretRef,
		Dir:         record.Dir,
		ImportPath:  record.ImportPath,
		Commit:      record.Commit,
		InstalledAt: parseTime(record.InstalledAt),
		SyncedAt:    parseTime(record.SyncedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
