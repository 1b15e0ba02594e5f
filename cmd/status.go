package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	statusadapter "github.com/bnema/nbassist/internal/adapters/render/status"
	"github.com/bnema/nbassist/internal/application"
	"github.com/bnema/nbassist/internal/domain"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

const staleAfter = 24 * time.Hour

type statusView struct {
	Records    []recordView `json:"records" yaml:"records"`
	Paths      []string     `json:"paths" yaml:"paths"`
	ReposRoot  string       `json:"repos_root" yaml:"repos_root"`
	MountPoint string       `json:"mount_point,omitempty" yaml:"mount_point,omitempty"`
	Mounted    bool         `json:"mounted" yaml:"mounted"`
}

type recordView struct {
	Name        string     `json:"name" yaml:"name"`
	Kind        string     `json:"kind" yaml:"kind"`
	Mode        string     `json:"mode" yaml:"mode"`
	Requirement string     `json:"requirement,omitempty" yaml:"requirement,omitempty"`
	Remote      string     `json:"remote,omitempty" yaml:"remote,omitempty"`
	Revision    string     `json:"revision,omitempty" yaml:"revision,omitempty"`
	SecretRef   string     `json:"secret_ref,omitempty" yaml:"secret_ref,omitempty"`
	Dir         string     `json:"dir,omitempty" yaml:"dir,omitempty"`
	ImportPath  string     `json:"import_path,omitempty" yaml:"import_path,omitempty"`
	Commit      string     `json:"commit,omitempty" yaml:"commit,omitempty"`
	InstalledAt *time.Time `json:"installed_at,omitempty" yaml:"installed_at,omitempty"`
	SyncedAt    *time.Time `json:"synced_at,omitempty" yaml:"synced_at,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show fetched packages, the module path and the storage volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			status, err := app.session.Status(ctx)
			if err != nil {
				return err
			}

			return writeStatusOutput(cmd, app, status, asJSON, asYAML)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Render YAML output")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, status application.Status, asJSON bool, asYAML bool) error {
	switch {
	case asJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(newStatusView(status))
	case asYAML:
		out, err := yaml.Marshal(newStatusView(status))
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{
		Now:        app.now(),
		StaleAfter: staleAfter,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func newStatusView(status application.Status) statusView {
	view := statusView{
		Records:    make([]recordView, 0, len(status.Records)),
		Paths:      status.Paths,
		ReposRoot:  status.ReposRoot,
		MountPoint: status.MountPoint,
		Mounted:    status.Mounted,
	}
	if view.Paths == nil {
		view.Paths = []string{}
	}

	for _, record := range status.Records {
		view.Records = append(view.Records, newRecordView(record))
	}

	return view
}

func newRecordView(record domain.InstallRecord) recordView {
	return recordView{
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
		InstalledAt: optionalTime(record.InstalledAt),
		SyncedAt:    optionalTime(record.SyncedAt),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	utc := t.UTC()
	return &utc
}

func newPathCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the module search path, front-most first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := app.tracker.Restore(ctx); err != nil {
				return err
			}
			for _, path := range app.tracker.Paths() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
