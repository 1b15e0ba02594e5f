package application

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
)

const defaultHost = "github.com"

var hostTags = map[string]string{
	"gh": "github.com",
	"gl": "gitlab.com",
	"bb": "bitbucket.org",
}

var (
	// [auth@][host/]owner/repo[@ref]
	repositoryPattern = regexp.MustCompile(
		`^(?:([^@/\s]*)@)?` +
			`(?:\$(gh|gl|bb)/|([-a-zA-Z0-9]+(?:\.[-a-zA-Z0-9]+)+)/)?` +
			`([-\w]+)/([-.\w]+?)(?:\.git)?` +
			`(?:@([^@\s]+))?$`,
	)
	specifierPattern = regexp.MustCompile(
		`^(?:\[[\w\s,.-]*\])?\s*` +
			`(?:(?:===|==|!=|~=|<=|>=|<|>)\s*[\w.*+!-]+\s*(?:,\s*(?:===|==|!=|~=|<=|>=|<|>)\s*[\w.*+!-]+\s*)*)?` +
			`(?:;.*)?$`,
	)
)

// Locator turns what the user typed into a package reference, and a
// reference into the directive that fetches it.
type Locator struct {
	reposRoot string
	secrets   ports.SecretSource
	prompt    ports.SecretSource
	mounter   ports.Mounter
}

// NewLocator builds a locator cloning under reposRoot. prompt answers the
// "$" secret identifier; mounter may be nil when no volume is configured.
func NewLocator(reposRoot string, secrets ports.SecretSource, prompt ports.SecretSource, mounter ports.Mounter) *Locator {
	return &Locator{
		reposRoot: filepath.Clean(reposRoot),
		secrets:   secrets,
		prompt:    prompt,
		mounter:   mounter,
	}
}

func (l *Locator) ReposRoot() string {
	return l.reposRoot
}

func (l *Locator) Resolve(raw string, opts ResolveOptions) (domain.PackageReference, error) {
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeInstall
	}
	if !mode.Valid() {
		return domain.PackageReference{}, fmt.Errorf("%w: unknown install mode %q", domain.ErrResolution, mode)
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.PackageReference{}, fmt.Errorf("%w: empty reference", domain.ErrResolution)
	}

	var (
		ref domain.PackageReference
		err error
	)
	if strings.Contains(trimmed, "/") {
		ref, err = resolveRepository(trimmed, opts)
	} else {
		ref, err = resolveRequirement(trimmed, opts, mode)
	}
	if err != nil {
		return domain.PackageReference{}, err
	}

	if mode.Clones() {
		if err := l.checkMounted(); err != nil {
			return domain.PackageReference{}, err
		}
	}

	return ref, nil
}

// Directive decides between install, clone and pull for ref, and resolves
// the secret the single subprocess needing it will use.
func (l *Locator) Directive(ctx context.Context, ref domain.PackageReference, mode domain.InstallMode, prior *domain.InstallRecord, opts UpdateOptions) (Directive, error) {
	for _, arg := range opts.InstallerArgs {
		if arg == "--" {
			return Directive{}, fmt.Errorf("%w: installer options cannot contain \"--\"", domain.ErrResolution)
		}
	}
	d := Directive{Ref: ref, Mode: mode, Reinstall: opts.Reinstall, InstallerArgs: append([]string(nil), opts.InstallerArgs...)}

	credentialURL := ref.Remote()
	if mode.Clones() {
		d.Kind = DirectiveClone
		d.Dir = filepath.Join(l.reposRoot, ref.RecordName())
		if prior != nil && prior.Kind == domain.SourceGit && prior.Dir != "" && prior.Remote == ref.Remote() {
			d.Kind = DirectivePull
			d.Dir = prior.Dir
		}
	} else {
		d.Kind = DirectiveInstall
		d.Upgrade = prior != nil
		credentialURL = ref.Requirement()
	}

	if ref.SecretRef == "" {
		return d, nil
	}

	token, err := l.token(ctx, ref)
	if err != nil {
		return Directive{}, err
	}
	if token != "" {
		d.Credential = &ports.Credential{URL: credentialURL, Token: token}
	}

	return d, nil
}

func (l *Locator) token(ctx context.Context, ref domain.PackageReference) (string, error) {
	store, key := l.secrets, ref.SecretRef
	if ref.SecretRef == domain.PromptSecretRef {
		store, key = l.prompt, ref.String()
	}
	if store == nil {
		return "", fmt.Errorf("resolve secret %q: %w", ref.SecretRef, domain.ErrSecretNotFound)
	}

	token, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve secret %q: %w", ref.SecretRef, err)
	}

	return strings.TrimSpace(token), nil
}

func (l *Locator) checkMounted() error {
	if l.mounter == nil {
		return nil
	}

	point := l.mounter.MountPoint()
	if point == "" || !within(l.reposRoot, point) || l.mounter.Mounted() {
		return nil
	}

	return fmt.Errorf("%w: %s lies under %s", domain.ErrNotMounted, l.reposRoot, point)
}

func resolveRepository(raw string, opts ResolveOptions) (domain.PackageReference, error) {
	spec, hasScheme := stripScheme(raw)

	m := repositoryPattern.FindStringSubmatch(spec)
	if m == nil {
		return domain.PackageReference{}, fmt.Errorf("%w: %q is neither an index requirement nor [auth@][host/]owner/repo[@ref]", domain.ErrResolution, raw)
	}
	auth, tag, host, owner, repo, rev := m[1], m[2], m[3], m[4], m[5], m[6]

	if hasScheme && host == "" {
		return domain.PackageReference{}, fmt.Errorf("%w: URL %q has no host", domain.ErrResolution, raw)
	}
	switch {
	case tag != "":
		host = hostTags[tag]
	case host == "":
		host = defaultHost
	}

	secretRef, err := secretFromAuth(auth, opts.SecretRef)
	if err != nil {
		return domain.PackageReference{}, err
	}

	revision, err := merge("revision", rev, opts.Revision)
	if err != nil {
		return domain.PackageReference{}, err
	}
	if revision != "" {
		if err := domain.ValidateRevision(revision); err != nil {
			return domain.PackageReference{}, err
		}
	}

	dir := strings.TrimSpace(opts.Dir)
	if dir != "" && (dir != filepath.Base(dir) || dir == "." || dir == ".." || strings.ContainsRune(dir, '/')) {
		return domain.PackageReference{}, fmt.Errorf("%w: clone directory %q must be a single path element", domain.ErrResolution, opts.Dir)
	}

	return domain.PackageReference{
		Host:      strings.ToLower(host),
		Owner:     owner,
		Repo:      repo,
		Revision:  revision,
		SecretRef: secretRef,
		Dir:       dir,
	}, nil
}

func resolveRequirement(raw string, opts ResolveOptions, mode domain.InstallMode) (domain.PackageReference, error) {
	if mode.Clones() {
		return domain.PackageReference{}, fmt.Errorf("%w: %s mode needs owner/repo, %q is an index requirement", domain.ErrResolution, mode, raw)
	}
	if opts.Revision != "" || opts.SecretRef != "" || opts.Dir != "" {
		return domain.PackageReference{}, fmt.Errorf("%w: revision, secret and directory apply to repositories only", domain.ErrResolution)
	}
	if strings.Contains(raw, "@") {
		return domain.PackageReference{}, fmt.Errorf("%w: %q looks like a repository reference without owner/repo", domain.ErrResolution, raw)
	}

	name, spec := domain.SplitRequirement(raw)
	if name == "" || !specifierPattern.MatchString(spec) {
		return domain.PackageReference{}, fmt.Errorf("%w: invalid requirement %q", domain.ErrResolution, raw)
	}

	return domain.PackageReference{Name: domain.NormalizeName(name), Specifier: spec}, nil
}

// secretFromAuth accepts "$name" and "$" only: a literal token in the
// reference would end up in shell history and records.
func secretFromAuth(auth string, explicit string) (string, error) {
	if auth != "" && !strings.HasPrefix(auth, "$") {
		return "", fmt.Errorf("%w: inline credentials are not accepted, store the token and use $<secret-name>@", domain.ErrResolution)
	}

	fromRef := auth
	if len(fromRef) > 1 {
		fromRef = fromRef[1:]
	}

	return merge("secret", fromRef, strings.TrimSpace(explicit))
}

func merge(what string, fromRef string, explicit string) (string, error) {
	switch {
	case fromRef == "":
		return explicit, nil
	case explicit == "" || explicit == fromRef:
		return fromRef, nil
	default:
		return "", fmt.Errorf("%w: %s given twice (%q and %q)", domain.ErrResolution, what, fromRef, explicit)
	}
}

func stripScheme(raw string) (string, bool) {
	rest := strings.TrimPrefix(raw, "git+")
	for _, scheme := range []string{"https://", "http://"} {
		if trimmed, ok := strings.CutPrefix(rest, scheme); ok {
			return strings.TrimSuffix(trimmed, "/"), true
		}
	}

	return raw, false
}

func within(path string, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
