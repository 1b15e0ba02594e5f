package domain

import "time"

// InstallRecord is what the session knows about one fetched package.
// It is keyed by Name and never carries a credential.
type InstallRecord struct {
	Name        string
	Kind        SourceKind
	Mode        InstallMode
	Requirement string
	Remote      string
	Revision    string
	SecretRef   string
	Dir         string
	ImportPath  string
	Commit      string
	InstalledAt time.Time
	SyncedAt    time.Time
}

// Satisfies reports whether the record already reflects a fetch of ref in
// mode, in which case fetching again would be redundant.
func (r InstallRecord) Satisfies(ref PackageReference, mode InstallMode) bool {
	if r.Kind != mode.SourceKind() || r.Mode != mode || r.Revision != ref.TargetRevision() {
		return false
	}
	if ref.IsGit() {
		return r.Remote == ref.Remote()
	}

	return r.Requirement == ref.Requirement()
}

// Reference rebuilds the reference a record was fetched from, so an update
// reuses the recorded revision and secret identifier.
func (r InstallRecord) Reference() (PackageReference, error) {
	if r.Remote == "" {
		name, spec := SplitRequirement(r.Requirement)
		return PackageReference{Name: NormalizeName(name), Specifier: spec}, nil
	}

	host, owner, repo, err := ParseRemote(r.Remote)
	if err != nil {
		return PackageReference{}, err
	}

	ref := PackageReference{
		Host:      host,
		Owner:     owner,
		Repo:      repo,
		Revision:  r.Revision,
		SecretRef: r.SecretRef,
	}
	if r.Name != repo {
		ref.Dir = r.Name
	}

	return ref, nil
}

// SessionState is the persisted view of the tracker: every record plus the
// path entries clones added, front-most first.
type SessionState struct {
	Records        []InstallRecord
	PathExtensions []string
}
