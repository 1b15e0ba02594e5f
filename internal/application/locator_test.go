package application

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/bnema/nbassist/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorResolve(t *testing.T) {
	t.Parallel()

	locator := NewLocator("/repos", nil, nil, nil)
	tests := []struct {
		name string
		raw  string
		opts ResolveOptions
		want domain.PackageReference
	}{
		{
			name: "index name",
			raw:  "Polars",
			want: domain.PackageReference{Name: "polars"},
		},
		{
			name: "index with extras and specifier",
			raw:  "polars[pyarrow]>=1.0,<2",
			want: domain.PackageReference{Name: "polars", Specifier: "[pyarrow]>=1.0,<2"},
		},
		{
			name: "owner repo defaults to github",
			raw:  "me/tools",
			want: domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools"},
		},
		{
			name: "host tag secret and ref",
			raw:  "$gl-token@$gl/me/tools@feat/foo",
			want: domain.PackageReference{Host: "gitlab.com", Owner: "me", Repo: "tools", Revision: "feat/foo", SecretRef: "gl-token"},
		},
		{
			name: "prompt secret",
			raw:  "$@me/tools",
			want: domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools", SecretRef: domain.PromptSecretRef},
		},
		{
			name: "explicit host and git suffix",
			raw:  "git.example.org/team/my.lib.git",
			want: domain.PackageReference{Host: "git.example.org", Owner: "team", Repo: "my.lib"},
		},
		{
			name: "https URL",
			raw:  "https://bitbucket.org/me/tools.git",
			want: domain.PackageReference{Host: "bitbucket.org", Owner: "me", Repo: "tools"},
		},
		{
			name: "options fill revision secret and directory",
			raw:  "me/tools",
			opts: ResolveOptions{Mode: domain.ModePath, Revision: "v1.2", SecretRef: "gh-token", Dir: "tools-dev"},
			want: domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools", Revision: "v1.2", SecretRef: "gh-token", Dir: "tools-dev"},
		},
		{
			name: "same revision twice agrees",
			raw:  "me/tools@dev",
			opts: ResolveOptions{Revision: "dev"},
			want: domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools", Revision: "dev"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := locator.Resolve(tc.raw, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLocatorResolveRejects(t *testing.T) {
	t.Parallel()

	locator := NewLocator("/repos", nil, nil, nil)
	tests := []struct {
		name    string
		raw     string
		opts    ResolveOptions
		wantErr string
	}{
		{name: "empty", raw: "  ", wantErr: "empty reference"},
		{name: "too many segments", raw: "a/b/c", wantErr: "neither an index requirement"},
		{name: "bare at", raw: "tools@main", wantErr: "looks like a repository reference"},
		{name: "bad specifier", raw: "polars is great", wantErr: "invalid requirement"},
		{name: "inline token", raw: "ghp_abc@me/tools", wantErr: "inline credentials"},
		{name: "conflicting revisions", raw: "me/tools@main", opts: ResolveOptions{Revision: "dev"}, wantErr: "revision given twice"},
		{name: "conflicting secrets", raw: "$a@me/tools", opts: ResolveOptions{SecretRef: "b"}, wantErr: "secret given twice"},
		{name: "invalid revision", raw: "me/tools", opts: ResolveOptions{Revision: "a..b"}, wantErr: "invalid revision"},
		{name: "editable index name", raw: "polars", opts: ResolveOptions{Mode: domain.ModeEditable}, wantErr: "editable mode needs owner/repo"},
		{name: "revision on index name", raw: "polars", opts: ResolveOptions{Revision: "v1"}, wantErr: "repositories only"},
		{name: "nested clone dir", raw: "me/tools", opts: ResolveOptions{Dir: "../x"}, wantErr: "single path element"},
		{name: "unknown mode", raw: "me/tools", opts: ResolveOptions{Mode: "vendored"}, wantErr: "unknown install mode"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := locator.Resolve(tc.raw, tc.opts)
			require.ErrorIs(t, err, domain.ErrResolution)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLocatorResolveRequiresMountedVolumeForClones(t *testing.T) {
	t.Parallel()

	mounter := mocks.NewMockMounter(t)
	mounter.EXPECT().MountPoint().Return("/content/drive")
	mounter.EXPECT().Mounted().Return(false)

	locator := NewLocator("/content/drive/MyDrive/repos", nil, nil, mounter)

	_, err := locator.Resolve("me/tools", ResolveOptions{Mode: domain.ModeClone})
	require.ErrorIs(t, err, domain.ErrNotMounted)

	_, err = locator.Resolve("me/tools", ResolveOptions{Mode: domain.ModeInstall})
	require.NoError(t, err)
}

func TestLocatorResolveIgnoresVolumeOutsideReposRoot(t *testing.T) {
	t.Parallel()

	mounter := mocks.NewMockMounter(t)
	mounter.EXPECT().MountPoint().Return("/content/drive")

	locator := NewLocator("/content/repos", nil, nil, mounter)

	_, err := locator.Resolve("me/tools", ResolveOptions{Mode: domain.ModePath})
	require.NoError(t, err)
}

func TestLocatorDirective(t *testing.T) {
	t.Parallel()

	locator := NewLocator("/repos", nil, nil, nil)
	ctx := context.Background()
	index := domain.PackageReference{Name: "polars"}
	repo := domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools"}

	d, err := locator.Directive(ctx, index, domain.ModeInstall, nil, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, DirectiveInstall, d.Kind)
	assert.False(t, d.Upgrade)

	prior := &domain.InstallRecord{Name: "polars", Kind: domain.SourceIndex, Mode: domain.ModeInstall}
	d, err = locator.Directive(ctx, index, domain.ModeInstall, prior, UpdateOptions{Reinstall: true})
	require.NoError(t, err)
	assert.True(t, d.Upgrade)
	assert.True(t, d.Reinstall)

	d, err = locator.Directive(ctx, repo, domain.ModeClone, nil, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, DirectiveClone, d.Kind)
	assert.Equal(t, filepath.Join("/repos", "tools"), d.Dir)

	prior = &domain.InstallRecord{Name: "tools", Kind: domain.SourceGit, Mode: domain.ModeClone, Remote: repo.Remote(), Dir: "/elsewhere/tools"}
	d, err = locator.Directive(ctx, repo, domain.ModeClone, prior, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, DirectivePull, d.Kind)
	assert.Equal(t, "/elsewhere/tools", d.Dir)

	other := domain.PackageReference{Host: "github.com", Owner: "you", Repo: "tools"}
	d, err = locator.Directive(ctx, other, domain.ModeClone, prior, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, DirectiveClone, d.Kind, "a different remote never pulls into the old clone")
}

func TestLocatorDirectiveResolvesSecretIntoCredential(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mockAnyContext(), "gh-token").Return("ghp_secret\n", nil).Twice()
	locator := NewLocator("/repos", secrets, nil, nil)

	ref := domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools", Revision: "v1", SecretRef: "gh-token"}

	d, err := locator.Directive(context.Background(), ref, domain.ModeClone, nil, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, &ports.Credential{URL: "https://github.com/me/tools.git", Token: "ghp_secret"}, d.Credential)

	d, err = locator.Directive(context.Background(), ref, domain.ModeInstall, nil, UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, &ports.Credential{URL: "git+https://github.com/me/tools@v1", Token: "ghp_secret"}, d.Credential)
}

func TestLocatorDirectivePromptsForDollarSecret(t *testing.T) {
	t.Parallel()

	prompt := mocks.NewMockSecretSource(t)
	prompt.EXPECT().Get(mockAnyContext(), "github.com/me/tools").Return("", nil).Once()
	locator := NewLocator("/repos", nil, prompt, nil)

	ref := domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools", SecretRef: domain.PromptSecretRef}
	d, err := locator.Directive(context.Background(), ref, domain.ModeClone, nil, UpdateOptions{})
	require.NoError(t, err)
	assert.Nil(t, d.Credential, "an empty answer skips authentication")
}

func TestLocatorDirectiveSurfacesMissingSecret(t *testing.T) {
	t.Parallel()

	secrets := mocks.NewMockSecretStore(t)
	secrets.EXPECT().Get(mockAnyContext(), "nope").Return("", domain.ErrSecretNotFound).Once()
	locator := NewLocator("/repos", secrets, nil, nil)

	ref := domain.PackageReference{Host: "github.com", Owner: "me", Repo: "tools", SecretRef: "nope"}
	_, err := locator.Directive(context.Background(), ref, domain.ModeClone, nil, UpdateOptions{})
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, `resolve secret "nope"`)
}

func TestWithin(t *testing.T) {
	t.Parallel()

	assert.True(t, within("/content/drive/x", "/content/drive"))
	assert.True(t, within("/content/drive", "/content/drive"))
	assert.False(t, within("/content/drive2", "/content/drive"))
	assert.False(t, within("/content", "/content/drive"))
}
