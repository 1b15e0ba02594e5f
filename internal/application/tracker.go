package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

type TrackerOptions struct {
	// State persists the records and path extensions; nil keeps them in
	// memory only.
	State ports.StateRepository
	Clock ports.Clock
	// BasePath seeds the module search path. Entries added by clones go in
	// front of it.
	BasePath []string
	Logger   zerolog.Logger
}

// Tracker is the session's record of what was fetched and where modules
// are searched. It is created once per process and restored from the last
// saved snapshot on first use.
type Tracker struct {
	locator  *Locator
	executor *Executor
	state    ports.StateRepository
	clock    ports.Clock
	log      zerolog.Logger

	mu       sync.Mutex
	restored bool
	records  map[recordKey]domain.InstallRecord
	paths    *domain.PathSet
	base     map[string]struct{}
}

// recordKey lets an index install and a clone share a name.
type recordKey struct {
	name string
	kind domain.SourceKind
}

func keyOf(record domain.InstallRecord) recordKey {
	return recordKey{name: record.Name, kind: record.Kind}
}

func NewTracker(locator *Locator, executor *Executor, opts TrackerOptions) *Tracker {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	paths := domain.NewPathSet(opts.BasePath...)
	base := make(map[string]struct{}, paths.Len())
	for _, entry := range paths.Entries() {
		base[entry] = struct{}{}
	}

	return &Tracker{
		locator:  locator,
		executor: executor,
		state:    opts.State,
		clock:    clock,
		log:      opts.Logger,
		records:  map[recordKey]domain.InstallRecord{},
		paths:    paths,
		base:     base,
	}
}

// Restore loads the snapshot left by a previous process. Only the first
// call reads it.
func (t *Tracker) Restore(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.restore(ctx)
}

// EnsureFetched fetches raw unless a record already matches the requested
// kind, mode and revision, in which case that record is returned untouched
// and no subprocess runs. Records of the other source kind under the same
// name are left alone.
func (t *Tracker) EnsureFetched(ctx context.Context, raw string, opts FetchOptions) (domain.InstallRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.restore(ctx); err != nil {
		return domain.InstallRecord{}, err
	}

	resolveOpts := opts.resolveOptions()
	ref, err := t.locator.Resolve(raw, resolveOpts)
	if err != nil {
		return domain.InstallRecord{}, err
	}

	name := ref.RecordName()
	var prior *domain.InstallRecord
	if existing, ok := t.records[recordKey{name: name, kind: resolveOpts.Mode.SourceKind()}]; ok {
		if existing.Satisfies(ref, resolveOpts.Mode) {
			t.log.Debug().Str("package", name).Msg("already fetched")
			return existing, nil
		}
		prior = &existing
	}

	d, err := t.locator.Directive(ctx, ref, resolveOpts.Mode, prior, UpdateOptions{InstallerArgs: opts.InstallerArgs})
	if err != nil {
		return domain.InstallRecord{}, err
	}

	return t.apply(ctx, d, prior)
}

// EnsureUpdated re-fetches a known package with the mode, revision and
// secret it was first fetched with. A failure leaves the record as it was.
func (t *Tracker) EnsureUpdated(ctx context.Context, name string, opts UpdateOptions) (domain.InstallRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.restore(ctx); err != nil {
		return domain.InstallRecord{}, err
	}

	prior, err := t.lookup(name, opts.Kind)
	if err != nil {
		return domain.InstallRecord{}, err
	}

	ref, err := prior.Reference()
	if err != nil {
		return domain.InstallRecord{}, err
	}

	d, err := t.locator.Directive(ctx, ref, prior.Mode, &prior, opts)
	if err != nil {
		return domain.InstallRecord{}, err
	}

	return t.apply(ctx, d, &prior)
}

// Forget drops a record and the path entry it added. The working copy, if
// any, stays on disk. kind may be empty unless name is tracked as both an
// index install and a clone.
func (t *Tracker) Forget(ctx context.Context, name string, kind domain.SourceKind) (domain.InstallRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.restore(ctx); err != nil {
		return domain.InstallRecord{}, err
	}

	record, err := t.lookup(name, kind)
	if err != nil {
		return domain.InstallRecord{}, err
	}

	delete(t.records, keyOf(record))
	if record.ImportPath != "" {
		t.paths.Remove(record.ImportPath)
	}
	t.log.Info().Str("package", record.Name).Msg("forgot package")

	return record, t.persist(ctx)
}

// Records returns every record sorted by name, index installs first.
func (t *Tracker) Records() []domain.InstallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([]domain.InstallRecord, 0, len(t.records))
	for _, record := range t.records {
		records = append(records, record)
	}
	sortRecords(records)

	return records
}

// Record finds the record tracked under name. An empty kind matches either
// source kind but reports false when both are tracked.
func (t *Tracker) Record(name string, kind domain.SourceKind) (domain.InstallRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.lookup(name, kind)
	return record, err == nil
}

// Paths returns the module search path, front-most first.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.paths.Entries()
}

// Save writes the current snapshot, whether or not anything changed.
func (t *Tracker) Save(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.persist(ctx)
}

func (t *Tracker) apply(ctx context.Context, d Directive, prior *domain.InstallRecord) (domain.InstallRecord, error) {
	now := t.clock.Now()
	record := domain.InstallRecord{
		Name:        d.Ref.RecordName(),
		Kind:        d.Mode.SourceKind(),
		Mode:        d.Mode,
		Remote:      d.Ref.Remote(),
		Revision:    d.Ref.TargetRevision(),
		SecretRef:   d.Ref.SecretRef,
		InstalledAt: now,
		SyncedAt:    now,
	}
	if prior != nil && !prior.InstalledAt.IsZero() {
		record.InstalledAt = prior.InstalledAt
	}

	switch d.Kind {
	case DirectiveInstall:
		record.Requirement = d.Ref.Requirement()
		if err := t.executor.Install(ctx, d); err != nil {
			return domain.InstallRecord{}, err
		}
	case DirectiveClone, DirectivePull:
		commit, err := t.executor.Sync(ctx, d)
		if err != nil {
			return domain.InstallRecord{}, err
		}
		if d.Mode == domain.ModeEditable {
			if err := t.executor.InstallEditable(ctx, d); err != nil {
				return domain.InstallRecord{}, err
			}
		}
		record.Dir = d.Dir
		record.Commit = commit
		record.ImportPath = importRoot(d.Dir, d.Mode)
	default:
		return domain.InstallRecord{}, fmt.Errorf("unknown directive kind %q", d.Kind)
	}

	if prior != nil && keyOf(*prior) != keyOf(record) {
		delete(t.records, keyOf(*prior))
	}
	t.records[keyOf(record)] = record

	if prior != nil && prior.ImportPath != "" && prior.ImportPath != record.ImportPath {
		t.paths.Remove(prior.ImportPath)
	}
	if record.ImportPath != "" && t.paths.Prepend(record.ImportPath) {
		t.log.Info().Str("path", record.ImportPath).Msg("added to module search path")
	}

	t.log.Info().
		Str("package", record.Name).
		Str("mode", string(record.Mode)).
		Str("revision", record.Revision).
		Str("commit", record.Commit).
		Msg("package fetched")

	return record, t.persist(ctx)
}

// lookup resolves a user-supplied name. Index names match in their
// normalised form.
func (t *Tracker) lookup(name string, kind domain.SourceKind) (domain.InstallRecord, error) {
	kinds := []domain.SourceKind{domain.SourceIndex, domain.SourceGit}
	if kind != "" {
		kinds = []domain.SourceKind{kind}
	}

	var found []domain.InstallRecord
	for _, k := range kinds {
		if record, ok := t.records[recordKey{name: name, kind: k}]; ok {
			found = append(found, record)
			continue
		}
		if record, ok := t.records[recordKey{name: domain.NormalizeName(name), kind: k}]; ok {
			found = append(found, record)
		}
	}

	switch len(found) {
	case 0:
		return domain.InstallRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownPackage, name)
	case 1:
		return found[0], nil
	default:
		return domain.InstallRecord{}, fmt.Errorf("%w: %q is tracked as both an %s install and a %s clone; name the kind",
			domain.ErrResolution, name, found[0].Kind, found[1].Kind)
	}
}

func sortRecords(records []domain.InstallRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].Kind > records[j].Kind
	})
}

func (t *Tracker) restore(ctx context.Context) error {
	if t.restored || t.state == nil {
		t.restored = true
		return nil
	}

	state, err := t.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session state: %w", err)
	}

	for _, record := range state.Records {
		if _, ok := t.records[keyOf(record)]; !ok {
			t.records[keyOf(record)] = record
		}
	}
	for i := len(state.PathExtensions) - 1; i >= 0; i-- {
		t.paths.Prepend(state.PathExtensions[i])
	}

	t.restored = true
	t.log.Debug().Int("records", len(state.Records)).Int("paths", len(state.PathExtensions)).Msg("session state restored")
	return nil
}

func (t *Tracker) persist(ctx context.Context) error {
	if t.state == nil {
		return nil
	}

	if err := t.state.Save(ctx, t.snapshot()); err != nil {
		return fmt.Errorf("persist session state: %w", err)
	}

	return nil
}

func (t *Tracker) snapshot() domain.SessionState {
	state := domain.SessionState{
		Records:        make([]domain.InstallRecord, 0, len(t.records)),
		PathExtensions: []string{},
	}
	for _, record := range t.records {
		state.Records = append(state.Records, record)
	}
	sortRecords(state.Records)

	for _, entry := range t.paths.Entries() {
		if _, ok := t.base[entry]; !ok {
			state.PathExtensions = append(state.PathExtensions, entry)
		}
	}

	return state
}
