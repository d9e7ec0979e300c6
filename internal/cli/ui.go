package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/playbook"
	"github.com/dyike/CortexReview/models"
)

var (
	spinnerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	hintStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))
)

type evaluationDoneMsg struct {
	result *models.AnalysisResult
	err    error
}

// evaluationModel shows a spinner while the desk is analyzing. Ctrl-C or Esc
// cancels the request; the model still waits for the controller to return.
type evaluationModel struct {
	spinner   spinner.Model
	run       tea.Cmd
	cancel    context.CancelFunc
	started   time.Time
	now       func() time.Time
	cancelled bool
	done      bool
	result    *models.AnalysisResult
	err       error
}

func newEvaluationModel(run tea.Cmd, cancel context.CancelFunc) evaluationModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return evaluationModel{
		spinner: sp,
		run:     run,
		cancel:  cancel,
		started: time.Now(),
		now:     time.Now,
	}
}

func (m evaluationModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m evaluationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case evaluationDoneMsg:
		m.done = true
		m.result, m.err = msg.result, msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if !m.cancelled {
				m.cancelled = true
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m evaluationModel) View() string {
	if m.done {
		return ""
	}
	elapsed := m.now().Sub(m.started).Truncate(time.Second)
	line := fmt.Sprintf("%s %s... %s", m.spinner.View(),
		spinnerStyle.Render(consts.State_Analyzing.Label()), hintStyle.Render(elapsed.String()))
	if m.cancelled {
		return line + "\n" + hintStyle.Render("cancelling...") + "\n"
	}
	return line + "\n" + hintStyle.Render("esc / ctrl+c to cancel") + "\n"
}

// evaluateWithSpinner runs Evaluate on the controller behind a terminal
// spinner.
func evaluateWithSpinner(ctx context.Context, ctrl *desk.Controller) (*models.AnalysisResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := func() tea.Msg {
		result, err := ctrl.Evaluate(ctx)
		return evaluationDoneMsg{result: result, err: err}
	}

	final, err := tea.NewProgram(newEvaluationModel(run, cancel)).Run()
	if err != nil {
		return nil, fmt.Errorf("spinner: %w", err)
	}
	m, ok := final.(evaluationModel)
	if !ok || !m.done {
		return nil, errors.New("evaluation interrupted")
	}
	return m.result, m.err
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func showWelcome(w io.Writer, pb *playbook.Playbook) {
	fmt.Fprintln(w, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(w, "║                   📈 CortexReview v%-28s║\n", version)
	fmt.Fprintln(w, "║              AI Trade Execution Review Desk                    ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "📖 Grading against: %s v%s\n", pb.Name, pb.Version)
	fmt.Fprintln(w, "   Upload a screenshot of an executed trade, then run the evaluation")
	fmt.Fprintln(w, "   for a verdict, confluence score, pillar review and checklist.")
	fmt.Fprintln(w)
}
