package status

import (
	"fmt"
	"math"
	"time"

	"github.com/bnema/nbassist/internal/application"
	"github.com/bnema/nbassist/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const shortCommit = 10

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags records not synced for longer. Zero disables it.
	StaleAfter time.Duration
}

func renderView(status application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Session Packages"),
		s.header.Render(fmt.Sprintf("packages: %d  repos: %s", len(status.Records), status.ReposRoot)),
	}
	if status.MountPoint != "" {
		lines = append(lines, mountLine(status, s))
	}

	if len(status.Records) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No packages fetched in this session.")))
	}
	for _, record := range status.Records {
		lines = append(lines, s.section.Render(renderRecord(record, opts, s)))
	}

	lines = append(lines, s.section.Render(renderPaths(status, s)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func mountLine(status application.Status, s styles) string {
	state := s.ok.Render("mounted")
	if !status.Mounted {
		state = s.warning.Render("not mounted")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render("storage: "), s.detail.Render(status.MountPoint), " ", state)
}

func renderRecord(record domain.InstallRecord, opts RenderOptions, s styles) string {
	parts := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, s.record.Render(record.Name), " ", s.mode.Render("["+string(record.Mode)+"]")),
		detailLine("source", sourceLabel(record), s),
	}

	if record.SecretRef != "" {
		parts = append(parts, detailLine("secret", record.SecretRef, s))
	}
	if record.Dir != "" {
		parts = append(parts, detailLine("dir", record.Dir, s))
	}
	if record.Commit != "" {
		parts = append(parts, detailLine("commit", abbreviate(record.Commit), s))
	}

	parts = append(parts, syncLine(record, opts, s))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func detailLine(key string, value string, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key+": "), s.detail.Render(value))
}

func sourceLabel(record domain.InstallRecord) string {
	if record.Remote == "" {
		return record.Requirement
	}

	label := record.Remote
	if record.Revision != "" {
		label += "@" + record.Revision
	}

	return label
}

func abbreviate(commit string) string {
	if len(commit) <= shortCommit {
		return commit
	}

	return commit[:shortCommit]
}

func syncLine(record domain.InstallRecord, opts RenderOptions, s styles) string {
	at := record.SyncedAt
	if at.IsZero() {
		at = record.InstalledAt
	}

	color := ageColor(at, opts.Now, opts.StaleAfter)
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("synced: "),
		lipgloss.NewStyle().Foreground(color).Render(formatAge(at, opts.Now)),
	)

	if isStale(at, opts) {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func isStale(at time.Time, opts RenderOptions) bool {
	if opts.Now.IsZero() || opts.StaleAfter <= 0 || at.IsZero() {
		return false
	}

	return opts.Now.Sub(at) > opts.StaleAfter
}

func renderPaths(status application.Status, s styles) string {
	owners := make(map[string]string, len(status.Records))
	for _, record := range status.Records {
		if record.ImportPath != "" {
			owners[record.ImportPath] = record.Name
		}
	}

	parts := []string{s.title.Render("Module Path")}
	if len(status.Paths) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("(empty)"))...)
	}

	for i, path := range status.Paths {
		line := fmt.Sprintf("%2d. %s", i+1, path)
		if owner, ok := owners[path]; ok {
			line = lipgloss.JoinHorizontal(lipgloss.Top, s.detail.Render(line), " ", s.pathMark.Render("<- "+owner))
		} else {
			line = s.detail.Render(line)
		}
		parts = append(parts, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func formatAge(at time.Time, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(math.Floor(elapsed.Hours()/24)), "day") + fmt.Sprintf(" ago (%s)", at.Format("15:04 on 02 Jan"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}

	return fmt.Sprintf("%d %ss", n, unit)
}

// ageColor fades from bright white for a fresh sync to grey once the sync
// is StaleAfter old.
func ageColor(at time.Time, now time.Time, staleAfter time.Duration) lipgloss.Color {
	if now.IsZero() || at.IsZero() || staleAfter <= 0 {
		return lipgloss.Color("255")
	}

	remaining := staleAfter - now.Sub(at)
	return interpolateColor(remaining.Seconds(), 0, staleAfter.Seconds())
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 (faded) to 255 (bright).
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}
