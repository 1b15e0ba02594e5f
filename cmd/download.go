package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const progressStep = 0.01

type downloadProgressMsg struct {
	written int64
	total   int64
}

type downloadDoneMsg struct {
	path string
	err  error
}

type downloadModel struct {
	bar      progress.Model
	label    string
	fetch    tea.Cmd
	written  int64
	total    int64
	path     string
	err      error
	finished bool
}

func newDownloadModel(label string, fetch tea.Cmd) downloadModel {
	return downloadModel{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label: label,
		fetch: fetch,
	}
}

func (m downloadModel) Init() tea.Cmd {
	return m.fetch
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case downloadProgressMsg:
		m.written, m.total = msg.written, msg.total
		return m, nil
	case downloadDoneMsg:
		m.finished = true
		m.path, m.err = msg.path, msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m downloadModel) View() string {
	if m.finished {
		return ""
	}
	if m.total <= 0 {
		return fmt.Sprintf("%s %s", m.label, formatBytes(m.written))
	}

	return fmt.Sprintf("%s %s", m.label, m.bar.ViewAs(float64(m.written)/float64(m.total)))
}

func newDownloadCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download <url> [path]",
		Short: "Download a file, naming it after the server's suggestion or the URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			dest := ""
			if len(args) == 2 {
				dest = args[1]
			}

			path, err := runDownload(ctx, app, cmd.ErrOrStderr(), args[0], dest)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func runDownload(ctx context.Context, app *app, output io.Writer, url string, dest string) (string, error) {
	if !isTerminal(output) {
		return app.downloader.Download(ctx, url, dest, nil)
	}

	var p *tea.Program
	last := -1.0
	report := func(written int64, total int64) {
		if total > 0 {
			fraction := float64(written) / float64(total)
			if fraction-last < progressStep && written < total {
				return
			}
			last = fraction
		}
		p.Send(downloadProgressMsg{written: written, total: total})
	}
	fetch := func() tea.Msg {
		path, err := app.downloader.Download(ctx, url, dest, report)
		return downloadDoneMsg{path: path, err: err}
	}

	p = tea.NewProgram(
		newDownloadModel("Downloading", fetch),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(downloadModel)
	if !ok {
		return "", fmt.Errorf("unexpected final download model type %T", finalModel)
	}

	return result.path, result.err
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
