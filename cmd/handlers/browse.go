package handlers

import (
	"context"
	"currents/internal/core"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newTrendsBrowseCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse trends interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendsBrowse(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of trends to load")
	return cmd
}

func runTrendsBrowse(ctx context.Context, limit int) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.detector.List(ctx, a.owner, limit, 0)
	if err != nil {
		return fmt.Errorf("failed to list trends: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No trends to browse")
		return nil
	}

	m := browseModel{trends: records}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run trend browser: %w", err)
	}
	return nil
}

type browseModel struct {
	trends      []core.TrendRecord
	selectedIdx int
	width       int
	height      int
	quitting    bool
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(m.trends)-1 {
				m.selectedIdx++
			}
		case "g":
			m.selectedIdx = 0
		case "G":
			m.selectedIdx = len(m.trends) - 1
		}
	}
	return m, nil
}

var (
	browseTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12")).
				MarginBottom(1)

	browseSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("4"))

	browseDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				MarginTop(1)

	browseHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)
)

func (m browseModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(browseTitleStyle.Render(fmt.Sprintf("Trends (%d)", len(m.trends))))
	b.WriteString("\n")

	for i, t := range m.trends {
		line := fmt.Sprintf("%-24s %6.2f  %d mentions", t.Keyword, t.Score, t.ContentMentions)
		if i == m.selectedIdx {
			b.WriteString(browseSelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	t := m.trends[m.selectedIdx]
	detail := fmt.Sprintf("detected %s", t.DetectedAt.Format("2006-01-02 15:04"))
	if t.ExternalSignal != nil {
		detail += fmt.Sprintf("  signal %.1f", *t.ExternalSignal)
	}
	if t.Velocity != nil {
		detail += fmt.Sprintf("  velocity %+.2f", *t.Velocity)
	}
	if len(t.RelatedContentIDs) > 0 {
		detail += fmt.Sprintf("  %d related items", len(t.RelatedContentIDs))
	}
	b.WriteString(browseDetailStyle.Render(detail))
	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render("j/k: navigate • g/G: first/last • q: quit"))
	return b.String()
}
