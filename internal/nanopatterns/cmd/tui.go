package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/bytecode"
	"nanopatterns/internal/config"
	"nanopatterns/internal/nanopatterns/styles"
	"nanopatterns/internal/report"
	"nanopatterns/internal/scan"
	"nanopatterns/internal/ui/colorize"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewMethods
	viewDetails
)

type methodItem struct {
	report     scan.MethodReport
	filterTerm string
}

func (i methodItem) Title() string       { return describeMethod(i.report) }
func (i methodItem) Description() string { return "" }
func (i methodItem) FilterValue() string { return i.filterTerm }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(methodItem)
	if !ok {
		return
	}

	indicator := " "
	name := i.report.Method
	if index == m.Index() {
		indicator = ">"
		name = styles.Selected.Render(name)
	}

	fmt.Fprintf(w, " %s  %s.%s%s  %s",
		indicator,
		styles.Owner.Render(bytecode.JavaName(i.report.Class)),
		name,
		styles.Muted.Render(i.report.Descriptor),
		styles.Muted.Render(fmt.Sprintf("%d patterns", i.report.Result.Count())),
	)
}

// scanProgress is shared between the runner's workers and the view.
type scanProgress struct {
	done, total atomic.Int64
}

type scanDoneMsg struct {
	report *scan.Report
	err    error
}

type model struct {
	summary  viewport.Model
	methods  list.Model
	details  viewport.Model
	spinner  spinner.Model
	mode     viewMode
	scan     func() (*scan.Report, error)
	progress *scanProgress
	report   *scan.Report
	err      error
	scanning bool
	selected bool
	width    int
	height   int
}

// newModel creates the browser. scanFn runs once, from Init.
func newModel(scanFn func() (*scan.Report, error), progress *scanProgress) model {
	summary := viewport.New()
	summary.SetWidth(80)
	summary.SetHeight(24)

	details := viewport.New()
	details.SetWidth(80)
	details.SetHeight(24)

	methods := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	methods.SetShowStatusBar(false)
	methods.SetFilteringEnabled(true)
	methods.Title = "Methods"
	methods.Styles.Title = styles.Title
	methods.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	if progress == nil {
		progress = &scanProgress{}
	}
	m := model{
		summary:  summary,
		methods:  methods,
		details:  details,
		spinner:  s,
		mode:     viewSummary,
		scan:     scanFn,
		progress: progress,
		scanning: true,
		width:    80,
		height:   24,
	}
	m.updateSummary()
	return m
}

func (m model) scanCmd() tea.Cmd {
	return func() tea.Msg {
		rep, err := m.scan()
		return scanDoneMsg{report: rep, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case scanDoneMsg:
		m.scanning = false
		m.report = msg.report
		m.err = msg.err
		m.updateMethods()
		m.updateSummary()
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateSummary()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.summary.SetWidth(msg.Width)
			m.summary.SetHeight(msg.Height - 2)
			m.methods.SetWidth(msg.Width)
			m.methods.SetHeight(msg.Height - 2)
			m.details.SetWidth(msg.Width)
			m.details.SetHeight(msg.Height - 2)
			m.updateSummary()
		}

	case tea.KeyMsg:
		// While filtering, keys belong to the list.
		if m.mode == viewMethods && m.methods.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.mode = viewSummary
			return m, nil
		case "m":
			if m.hasMethods() {
				m.mode = viewMethods
			}
			return m, nil
		case "enter":
			if m.mode == viewMethods {
				m.showSelected()
			}
			return m, nil
		case "esc":
			if m.mode == viewDetails {
				m.mode = viewMethods
				return m, nil
			}
		case "tab":
			m.cycle(1)
			return m, nil
		case "shift+tab":
			m.cycle(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewMethods:
		m.methods, cmd = m.methods.Update(msg)
	case viewDetails:
		m.details, cmd = m.details.Update(msg)
	default:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

func (m model) hasMethods() bool {
	return m.report != nil && len(m.report.Methods) > 0
}

// cycle moves through the views, skipping those without content.
func (m *model) cycle(step int) {
	if !m.hasMethods() {
		m.mode = viewSummary
		return
	}
	m.mode = viewMode((int(m.mode) + step + 3) % 3)
	if m.mode == viewDetails && !m.selected {
		m.showSelected()
	}
}

func (m *model) showSelected() {
	item, ok := m.methods.SelectedItem().(methodItem)
	if !ok {
		return
	}
	m.details.SetContent(methodDetails(item.report, m.width))
	m.details.GotoTop()
	m.selected = true
	m.mode = viewDetails
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewMethods:
		content = m.methods.View()
	case viewDetails:
		content = m.details.View()
	default:
		content = m.summary.View()
	}

	var menu string
	switch {
	case !m.hasMethods():
		menu = " Q: quit "
	case m.mode == viewMethods:
		menu = " Enter: details • /: filter • S: summary • Tab: cycle • Q: quit "
	case m.mode == viewDetails:
		menu = " Esc: methods • S: summary • Tab: cycle • Q: quit "
	default:
		menu = " M: methods • Tab: cycle • Q: quit "
	}
	return content + "\n" + styles.Menu.Width(m.width).Render(menu)
}

func (m *model) updateSummary() {
	width := m.width
	if width == 0 {
		width = 80
	}

	var content string
	switch {
	case m.scanning:
		content = fmt.Sprintf("\n  %s Analyzing classes… %d/%d",
			m.spinner.View(), m.progress.done.Load(), m.progress.total.Load())
	case m.err != nil:
		content = "\n  " + styles.FlagOn.Render("scan failed: ") + m.err.Error()
	default:
		rendered, err := report.RenderSummary(m.report, width-2)
		if err != nil {
			rendered = report.Markdown(m.report)
		}
		content = strings.TrimSuffix(rendered, "\n")
	}
	m.summary.SetContent(content)
}

func (m *model) updateMethods() {
	if m.report == nil {
		return
	}
	items := make([]list.Item, 0, len(m.report.Methods))
	for _, r := range m.report.Methods {
		items = append(items, methodItem{
			report:     r,
			filterTerm: bytecode.JavaName(r.Class) + "." + r.Method + r.Descriptor,
		})
	}
	m.methods.SetItems(items)
	m.methods.Title = fmt.Sprintf("Methods (%d total)", len(items))
}

// methodDetails renders the pattern grid and listing of one method.
func methodDetails(r scan.MethodReport, width int) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(describeMethod(r)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  %s\n\n", styles.Muted.Render(fmt.Sprintf(
		"%d instructions • %d of %d patterns", r.Instructions, r.Result.Count(), len(analysis.Patterns))))
	sb.WriteString(flagGrid(r.Result, width))
	sb.WriteString("\n\n")

	if len(r.Code) > 0 {
		listing, err := colorize.Listing(formatListing(r.Code))
		if err != nil {
			slog.Debug("colorize failed", "error", err)
		}
		sb.WriteString(listing)
		sb.WriteString("\n")
	}
	return sb.String()
}

// flagGrid lays the patterns out in as many columns as fit width.
func flagGrid(r analysis.Result, width int) string {
	cellWidth := 0
	for _, p := range analysis.Patterns {
		cellWidth = max(cellWidth, len(p.Column)+4)
	}
	cols := max(1, min(4, (width-2)/cellWidth))
	rows := (len(analysis.Patterns) + cols - 1) / cols

	columns := make([]string, 0, cols)
	for c := 0; c < cols; c++ {
		var cells []string
		for i := c * rows; i < min((c+1)*rows, len(analysis.Patterns)); i++ {
			p := analysis.Patterns[i]
			cell := "○ " + p.Column
			style := styles.FlagOff
			if p.Of(r) {
				cell = "● " + p.Column
				style = styles.FlagOn
			}
			cells = append(cells, style.Width(cellWidth).Render(cell))
		}
		columns = append(columns, lipgloss.JoinVertical(lipgloss.Left, cells...))
	}
	return lipgloss.NewStyle().MarginLeft(2).Render(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}

// runTUI scans in the background and opens the browser on the result.
func runTUI(ctx context.Context, cfg *config.Config, target scan.Target) error {
	progress := &scanProgress{}
	s, err := newSession(cfg, scan.WithCode(), scan.WithProgress(func(done, total int) {
		progress.done.Store(int64(done))
		progress.total.Store(int64(total))
	}))
	if err != nil {
		return err
	}
	defer s.Close()

	scanFn := func() (*scan.Report, error) {
		return s.run(ctx, target)
	}

	program := tea.NewProgram(
		newModel(scanFn, progress),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		slog.Error("TUI run error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
