package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vesselflow/pkg/editor"
	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/history"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
	"github.com/matzehuels/vesselflow/pkg/port"
	"github.com/matzehuels/vesselflow/pkg/workspace"
)

// moveStep is how far one key press moves a node, in canvas pixels.
const moveStep = 20

// exploreCommand creates the explore command: a terminal editor over one
// graph with the same undo history as the HTTP API.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [workspace-id | graph.json]",
		Short: "Browse and edit a workflow graph in the terminal",
		Long: `Browse and edit a workflow graph in the terminal.

Keys:
  ↑/k ↓/j    select node
  H J K L    move the node left, down, up, right
  x          delete the node and its edges
  R          lay out again
  u / r      undo / redo
  s          save (workspaces and files)
  q          quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeWorkspaceIDs(true),
		RunE:              func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runExplore(ctx context.Context, target string) error {
	snap, save, cleanup, err := c.openTarget(ctx, target)
	if err != nil {
		return err
	}
	defer cleanup()

	// the TUI owns the terminal; keep log lines out of it
	c.SetLogLevel(LogError)
	sess, err := c.newSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.Open(ctx, snap); err != nil {
		return err
	}

	m := newExploreModel(ctx, sess, save)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(exploreModel); ok && fm.dirty {
		printWarning("Quit with unsaved changes")
	}
	return nil
}

// openTarget loads a workspace by id or a graph file by path and returns a
// function that saves the edited graph back.
func (c *CLI) openTarget(ctx context.Context, target string) (graph.Snapshot, func(graph.Snapshot) error, func(), error) {
	if workspace.ValidateID(target) == nil {
		store, err := c.newStore(ctx)
		if err != nil {
			return graph.Snapshot{}, nil, nil, err
		}
		ws, err := store.Get(ctx, target)
		if err != nil {
			store.Close()
			return graph.Snapshot{}, nil, nil, err
		}
		save := func(s graph.Snapshot) error {
			ws.Graph = s
			return store.Save(ctx, ws)
		}
		return ws.Graph, save, func() { store.Close() }, nil
	}

	if _, err := os.Stat(target); err != nil {
		return graph.Snapshot{}, nil, nil, errors.New(errors.ErrCodeNotFound, "%s is neither a workspace id nor a graph file", target)
	}
	snap, err := graph.ReadFile(target)
	if err != nil {
		return graph.Snapshot{}, nil, nil, err
	}
	save := func(s graph.Snapshot) error { return graph.WriteFile(s, target) }
	return snap, save, func() {}, nil
}

// newSession returns an editor session over a memory canvas sized from the
// [layout] config.
func (c *CLI) newSession() (*editor.Session, error) {
	opts := pipeline.OptionsFromConfig(c.Config)
	opts.Logger = c.Logger
	return editor.New(editor.Options{
		Canvas: editor.NewMemoryCanvas(graph.Dimensions{
			Width:  c.Config.Layout.DefaultWidth,
			Height: c.Config.Layout.DefaultHeight,
		}),
		Layout: opts.LayoutEngine(),
		History: history.New(
			history.WithDebounce(c.Config.History.Debounce.Duration),
			history.WithLimit(c.Config.History.Limit),
			history.WithLogger(c.Logger),
		),
		Logger: c.Logger,
	})
}

// =============================================================================
// exploreModel - node browser with editing
// =============================================================================

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).Padding(0, 1)
)

type exploreModel struct {
	ctx  context.Context
	sess *editor.Session
	save func(graph.Snapshot) error

	snap   graph.Snapshot
	cursor int
	offset int
	height int

	status string
	err    error
	dirty  bool
}

func newExploreModel(ctx context.Context, sess *editor.Session, save func(graph.Snapshot) error) exploreModel {
	return exploreModel{
		ctx:    ctx,
		sess:   sess,
		save:   save,
		snap:   sess.Snapshot(),
		height: 15,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.cursor--
		case "down", "j":
			m.cursor++
		case "H":
			m.apply("moved", m.moveBy(-moveStep, 0))
		case "L":
			m.apply("moved", m.moveBy(moveStep, 0))
		case "K":
			m.apply("moved", m.moveBy(0, -moveStep))
		case "J":
			m.apply("moved", m.moveBy(0, moveStep))
		case "x":
			if n := m.selected(); n != nil {
				id := n.ID
				m.apply("deleted "+id, func() error { return m.sess.RemoveNode(m.ctx, id) })
			}
		case "R":
			m.apply("laid out", func() error { return m.sess.Relayout(m.ctx) })
		case "u":
			m.apply("undone", func() error { return m.sess.Undo(m.ctx) })
		case "r":
			m.apply("redone", func() error { return m.sess.Redo(m.ctx) })
		case "s":
			m.saveNow()
		}
	}
	m.clamp()
	return m, nil
}

// apply runs an edit and refreshes the snapshot. A nil fn is a no-op.
func (m *exploreModel) apply(status string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		m.err = err
		m.status = ""
	} else {
		m.err = nil
		m.status = status
		m.dirty = true
	}
	m.snap = m.sess.Snapshot()
}

func (m *exploreModel) moveBy(dx, dy float64) func() error {
	n := m.selected()
	if n == nil {
		return nil
	}
	id, to := n.ID, graph.Position{X: n.Position.X + dx, Y: n.Position.Y + dy}
	return func() error { return m.sess.MoveNode(m.ctx, id, to) }
}

func (m *exploreModel) saveNow() {
	if m.save == nil {
		return
	}
	if err := m.save(m.sess.Snapshot()); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = "saved"
	m.dirty = false
}

func (m *exploreModel) clamp() {
	m.cursor = min(max(m.cursor, 0), max(len(m.snap.Nodes)-1, 0))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m exploreModel) selected() *graph.Node {
	if m.cursor < 0 || m.cursor >= len(m.snap.Nodes) {
		return nil
	}
	return &m.snap.Nodes[m.cursor]
}

func (m exploreModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Vesselflow"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d edges", len(m.snap.Nodes), len(m.snap.Edges))))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ select  HJKL move  x delete  R layout  u/r undo/redo  s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.nodeList()),
		"  ",
		panelStyle.Render(m.portList()),
	))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m exploreModel) nodeList() string {
	if len(m.snap.Nodes) == 0 {
		return StyleDim.Render("empty graph")
	}
	var lines []string
	end := min(m.offset+m.height, len(m.snap.Nodes))
	for i := m.offset; i < end; i++ {
		n := m.snap.Nodes[i]
		line := fmt.Sprintf("%-16s %-24s %7.0f,%-7.0f", n.ID, n.Data.Label, n.Position.X, n.Position.Y)
		if i == m.cursor {
			lines = append(lines, listSelectedStyle.Render("▸ "+line))
		} else {
			lines = append(lines, listNormalStyle.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

// portList shows the selected node's ports by side, marking bound ones.
func (m exploreModel) portList() string {
	n := m.selected()
	if n == nil {
		return StyleDim.Render("no node selected")
	}
	bound := make(map[string]string)
	for _, e := range m.snap.Edges {
		if e.Source == n.ID {
			bound[e.SourceHandle] = iconArrow + " " + e.Target
		}
		if e.Target == n.ID {
			bound[e.TargetHandle] = "← " + e.Source
		}
	}

	lines := []string{StyleHighlight.Render(n.ID) + StyleDim.Render(" "+n.Data.ModuleFile+"::"+n.Data.ModuleType)}
	for _, side := range port.Sides {
		for _, p := range n.Data.Ports {
			if p.Type != side {
				continue
			}
			peer, ok := bound[p.HandleID()]
			if !ok {
				peer = StyleDim.Render("free")
			}
			lines = append(lines, fmt.Sprintf("%s %-10s %s",
				sideStyles[side].Render(fmt.Sprintf("%-6s", side)), p.Name, peer))
		}
	}
	return strings.Join(lines, "\n")
}

func (m exploreModel) statusLine() string {
	var parts []string
	if m.sess.History().CanUndo() {
		parts = append(parts, "undo")
	}
	if m.sess.History().CanRedo() {
		parts = append(parts, "redo")
	}
	line := StyleDim.Render(strings.Join(parts, " · "))
	switch {
	case m.err != nil:
		line += "  " + StyleError.Render(iconError+" "+errors.UserMessage(m.err))
	case m.status != "":
		line += "  " + StyleSuccess.Render(iconSuccess+" "+m.status)
	}
	if m.dirty {
		line += "  " + StyleWarning.Render("unsaved")
	}
	return line
}
