package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type SourceKind string

const (
	SourceIndex SourceKind = "index"
	SourceGit   SourceKind = "git"
)

type InstallMode string

const (
	// ModeInstall hands the reference to the package installer.
	ModeInstall InstallMode = "install"
	// ModeEditable clones the repository and installs the clone in develop mode.
	ModeEditable InstallMode = "editable"
	// ModePath clones the repository and puts its import root on the session path.
	ModePath InstallMode = "path"
	// ModeClone only clones the repository.
	ModeClone InstallMode = "clone"
)

func (m InstallMode) Valid() bool {
	switch m {
	case ModeInstall, ModeEditable, ModePath, ModeClone:
		return true
	default:
		return false
	}
}

// Clones reports whether the mode keeps a working copy on disk.
func (m InstallMode) Clones() bool {
	return m == ModeEditable || m == ModePath || m == ModeClone
}

func (m InstallMode) SourceKind() SourceKind {
	if m.Clones() {
		return SourceGit
	}

	return SourceIndex
}

// PromptSecretRef is the secret identifier that asks the user for a token.
const PromptSecretRef = "$"

// PackageReference identifies either an index requirement (Name, Specifier)
// or a version-controlled repository (Host, Owner, Repo). SecretRef names a
// secret, it never holds the token.
type PackageReference struct {
	Name      string
	Specifier string

	Host      string
	Owner     string
	Repo      string
	Revision  string
	SecretRef string
	Dir       string
}

func (r PackageReference) IsGit() bool {
	return r.Repo != ""
}

// RecordName is the key the reference is tracked under.
func (r PackageReference) RecordName() string {
	if !r.IsGit() {
		return r.Name
	}
	if r.Dir != "" {
		return r.Dir
	}

	return r.Repo
}

// Remote is the credential-free clone URL.
func (r PackageReference) Remote() string {
	if !r.IsGit() {
		return ""
	}

	return fmt.Sprintf("https://%s/%s/%s.git", r.Host, r.Owner, r.Repo)
}

// Requirement is the credential-free installer argument.
func (r PackageReference) Requirement() string {
	if !r.IsGit() {
		return r.Name + r.Specifier
	}

	requirement := fmt.Sprintf("git+https://%s/%s/%s", r.Host, r.Owner, r.Repo)
	if r.Revision != "" {
		requirement += "@" + r.Revision
	}

	return requirement
}

// TargetRevision is what a repeated fetch compares against: the version
// specifier for index requirements, the git revision otherwise.
func (r PackageReference) TargetRevision() string {
	if r.IsGit() {
		return r.Revision
	}

	return r.Specifier
}

func (r PackageReference) String() string {
	if !r.IsGit() {
		return r.Requirement()
	}

	s := fmt.Sprintf("%s/%s/%s", r.Host, r.Owner, r.Repo)
	if r.Revision != "" {
		s += "@" + r.Revision
	}

	return s
}

var (
	nameSeparators  = regexp.MustCompile(`[-_.]+`)
	requirementName = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
)

// SplitRequirement separates the project name from its extras and version
// constraints: "polars[pyarrow]>=1.0" gives "polars" and "[pyarrow]>=1.0".
func SplitRequirement(requirement string) (string, string) {
	trimmed := strings.TrimSpace(requirement)
	name := requirementName.FindString(trimmed)

	return name, strings.TrimSpace(trimmed[len(name):])
}

// ParseRemote splits a clean https remote into host, owner and repository.
func ParseRemote(remote string) (string, string, string, error) {
	u, err := url.Parse(remote)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: parse remote %q: %w", ErrResolution, remote, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("%w: remote %q is not an owner/repo URL", ErrResolution, remote)
	}

	return u.Hostname(), parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// NormalizeName folds an index project name the way package indexes compare
// them: case-insensitive, with runs of "-", "_" and "." treated as one "-".
func NormalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ValidateRevision applies git's ref-name rules to a branch, tag or commit.
func ValidateRevision(rev string) error {
	reason := revisionProblem(rev)
	if reason == "" {
		return nil
	}

	return fmt.Errorf("%w: invalid revision %q: %s", ErrResolution, rev, reason)
}

func revisionProblem(rev string) string {
	switch {
	case rev == "":
		return "empty"
	case rev == "@":
		return "reserved name"
	case strings.HasPrefix(rev, "-"):
		return "starts with '-'"
	case strings.HasPrefix(rev, "/") || strings.HasSuffix(rev, "/"):
		return "leading or trailing '/'"
	case strings.HasSuffix(rev, ".") || strings.HasSuffix(rev, ".lock"):
		return "ends with '.' or '.lock'"
	case strings.Contains(rev, ".."):
		return "contains '..'"
	case strings.Contains(rev, "//"):
		return "contains '//'"
	case strings.Contains(rev, "@{"):
		return "contains '@{'"
	}

	for _, part := range strings.Split(rev, "/") {
		if strings.HasPrefix(part, ".") {
			return "component starts with '.'"
		}
	}

	for _, r := range rev {
		if r < 0x20 || r == 0x7f || r == ' ' {
			return "contains whitespace or control characters"
		}
		if strings.ContainsRune(`~^:?*[\`, r) {
			return fmt.Sprintf("contains %q", r)
		}
	}

	return ""
}
