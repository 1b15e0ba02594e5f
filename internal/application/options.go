package application

import (
	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
)

// ResolveOptions complements what the raw reference says. A revision or
// secret given both here and in the reference must agree.
type ResolveOptions struct {
	Mode      domain.InstallMode
	Revision  string
	SecretRef string
	Dir       string
}

type FetchOptions struct {
	Mode      domain.InstallMode
	Revision  string
	SecretRef string
	Dir       string
	// InstallerArgs go to the installer ahead of the requirement. They are
	// not recorded, so an identical repeat does not rerun the installer.
	InstallerArgs []string
}

func (o FetchOptions) resolveOptions() ResolveOptions {
	mode := o.Mode
	if mode == "" {
		mode = domain.ModeInstall
	}

	return ResolveOptions{Mode: mode, Revision: o.Revision, SecretRef: o.SecretRef, Dir: o.Dir}
}

type UpdateOptions struct {
	// Reinstall forces the installer to rebuild the package and its
	// dependencies instead of only upgrading them.
	Reinstall bool
	// Kind picks the record when a name is tracked as both an index install
	// and a clone.
	Kind          domain.SourceKind
	InstallerArgs []string
}

type DirectiveKind string

const (
	DirectiveInstall DirectiveKind = "install"
	DirectiveClone   DirectiveKind = "clone"
	DirectivePull    DirectiveKind = "pull"
)

// Directive is one concrete fetch operation. Credential lives only as long
// as the directive and is never copied into a record.
type Directive struct {
	Kind      DirectiveKind
	Ref       domain.PackageReference
	Mode      domain.InstallMode
	Dir       string
	Upgrade   bool
	Reinstall bool
	// InstallerArgs are extra installer options, already checked to be
	// flags.
	InstallerArgs []string
	Credential    *ports.Credential
}
