package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/csirtlab/hostrisk/pkg/config"
	"github.com/csirtlab/hostrisk/pkg/ingest"
	"github.com/csirtlab/hostrisk/pkg/logging"
	"github.com/csirtlab/hostrisk/pkg/recommend"
	"github.com/csirtlab/hostrisk/pkg/similarity"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1).
			MarginLeft(2)

	promptStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			MarginLeft(2)

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11")).
			Padding(0, 1).
			MarginLeft(2).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Enter key.Binding
	Back  key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "new query"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.Back},
		{k.Up, k.Down, k.Quit},
	}
}

type view int

const (
	queryView view = iota
	resultsView
)

type model struct {
	graph       *topology.Graph
	recommender *recommend.Recommender
	opts        recommend.Options

	currentView view
	ipInput     textinput.Model
	resultTable table.Model
	help        help.Model
	keys        keyMap

	result *recommend.Result
	errMsg string
}

func initialModel(graph *topology.Graph, recommender *recommend.Recommender, opts recommend.Options) model {
	ti := textinput.New()
	ti.Placeholder = "10.0.0.1"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()

	columns := []table.Column{
		{Title: "IP ADDRESS", Width: 16},
		{Title: "DOMAIN(S)", Width: 28},
		{Title: "CONTACT(S)", Width: 28},
		{Title: "RISK", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("12")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("11")).
		Bold(false)
	t.SetStyles(s)

	return model{
		graph:       graph,
		recommender: recommender,
		opts:        opts,
		currentView: queryView,
		ipInput:     ti,
		resultTable: t,
		help:        help.New(),
		keys:        keys,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Enter):
			if m.currentView == queryView {
				m.runQuery()
				return m, nil
			}

		case key.Matches(msg, m.keys.Back):
			m.currentView = queryView
			m.errMsg = ""
			m.ipInput.Focus()
			return m, textinput.Blink
		}
	}

	switch m.currentView {
	case queryView:
		m.ipInput, cmd = m.ipInput.Update(msg)
	case resultsView:
		m.resultTable, cmd = m.resultTable.Update(msg)
	}
	return m, cmd
}

// runQuery executes a recommendation for the entered IP and fills the table.
func (m *model) runQuery() {
	ip := strings.TrimSpace(m.ipInput.Value())
	if ip == "" {
		m.errMsg = "enter an IP address"
		return
	}

	res, err := m.recommender.Recommend(m.graph, ip, m.opts)
	if err != nil {
		m.errMsg = err.Error()
		return
	}

	rows := make([]table.Row, len(res.Hosts))
	for i, h := range res.Hosts {
		rows[i] = table.Row{
			h.IP,
			strings.Join(h.Domains, ", "),
			strings.Join(h.Contacts, ", "),
			fmt.Sprintf("%.4f", h.Risk),
		}
	}
	m.resultTable.SetRows(rows)
	m.resultTable.SetCursor(0)

	m.result = res
	m.errMsg = ""
	m.currentView = resultsView
	m.ipInput.Blur()
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hostrisk"))
	b.WriteString("\n")

	switch m.currentView {
	case queryView:
		b.WriteString(promptStyle.Render("Attacked host IP:"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(m.ipInput.View()))
		b.WriteString("\n")
		b.WriteString(summaryStyle.Render(
			fmt.Sprintf("Topology: %d hosts, %d links", m.graph.HostCount(), m.graph.LinkCount())))

	case resultsView:
		b.WriteString(summaryStyle.Render(fmt.Sprintf(
			"Found %d hosts to maximum distance of %d:",
			m.result.TotalCandidates, m.result.MaxDistance)))
		b.WriteString("\n\n")
		b.WriteString(m.resultTable.View())
		b.WriteString("\n")
		b.WriteString(m.selectedDetail())
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

// selectedDetail shows the similarity warnings of the highlighted host.
func (m model) selectedDetail() string {
	cursor := m.resultTable.Cursor()
	if m.result == nil || cursor < 0 || cursor >= len(m.result.Hosts) {
		return ""
	}

	h := m.result.Hosts[cursor]
	if len(h.Warnings) == 0 {
		return detailStyle.Render(fmt.Sprintf("%s: no critical differences", h.IP))
	}

	lines := make([]string, 0, len(h.Warnings)+1)
	lines = append(lines, fmt.Sprintf("%s warnings:", h.IP))
	for _, w := range h.Warnings {
		lines = append(lines, "  "+w.String())
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

func main() {
	var (
		topologyPath = flag.String("topology", "", "Topology file (.yaml or .snap)")
		configPath   = flag.String("config", "", "Optional configuration file (YAML)")
		maxDistance  = flag.Int("max-distance", -1, "Maximum link distance from the attacked host")
		workers      = flag.Int("workers", 0, "Scoring workers (0 = sequential)")
	)
	flag.Parse()

	if *topologyPath == "" {
		log.Fatal("usage: hostrisk-tui -topology <file> [flags]")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = loaded
	}
	if *maxDistance >= 0 {
		cfg.MaxDistance = *maxDistance
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	graph, err := loadTopology(*topologyPath)
	if err != nil {
		log.Fatalf("topology load failed: %v", err)
	}

	engine := similarity.NewEngine(cfg.EngineConfig(), logging.NewNopLogger())
	recommender := recommend.New(engine, logging.NewNopLogger())

	m := initialModel(graph, recommender, recommend.Options{
		MaxDistance: cfg.MaxDistance,
		Workers:     cfg.Workers,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

func loadTopology(path string) (*topology.Graph, error) {
	if strings.HasSuffix(path, ".snap") {
		return ingest.LoadSnapshot(path)
	}
	return ingest.LoadYAML(path)
}
