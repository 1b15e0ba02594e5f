package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrCanceled = errors.New("secret prompt canceled")

type model struct {
	input     textinput.Model
	submitted bool
	canceled  bool
}

func newModel(label string) model {
	input := textinput.New()
	input.Prompt = label
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.Focus()

	return model{input: input}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.submitted || m.canceled {
		return ""
	}

	return m.input.View() + "\n"
}

func (m model) value() (string, error) {
	if m.canceled || !m.submitted {
		return "", ErrCanceled
	}

	return strings.TrimSpace(m.input.Value()), nil
}

// Store asks the user for a token every time one is needed. Nothing is kept
// once Get returns. Submitting an empty line skips authentication and yields
// an empty token.
type Store struct {
	input  io.Reader
	output io.Writer
}

var _ ports.SecretSource = (*Store)(nil)

func NewStore(input io.Reader, output io.Writer) *Store {
	return &Store{input: input, output: output}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := tea.NewProgram(
		newModel(label(key)),
		tea.WithInput(s.input),
		tea.WithOutput(s.output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("run secret prompt: %w", err)
	}

	result, ok := finalModel.(model)
	if !ok {
		return "", fmt.Errorf("unexpected final prompt model type %T", finalModel)
	}

	value, err := result.value()
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSecretNotFound, err)
	}

	return value, nil
}

func label(key string) string {
	if key == "" || key == domain.PromptSecretRef {
		return "Access token (leave empty to skip): "
	}

	return fmt.Sprintf("Access token for %s (leave empty to skip): ", key)
}
