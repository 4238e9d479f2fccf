package main

import (
	"flag"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/midbel/jpath/node"
	"github.com/midbel/jpath/xpath"
)

// InspectCmd opens an interactive node-tree browser over a JSON
// document: a list of every node in document order, a scrolling
// detail pane showing the selected node's raw JSON, and a yank
// binding that copies it to the clipboard.
type InspectCmd struct{}

var inspectCmd InspectCmd

func (InspectCmd) Run(args []string) error {
	set := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 1 {
		return fmt.Errorf("inspect: a JSON document path is required")
	}
	tree, err := loadTree(set.Arg(0))
	if err != nil {
		return err
	}
	m := newInspectModel(tree)
	_, err = tea.NewProgram(m).Run()
	return err
}

var (
	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleFooter   = lipgloss.NewStyle().Faint(true)
)

type inspectModel struct {
	tree    *node.Tree
	nodes   []node.Node
	cursor  int
	detail  viewport.Model
	status  string
	width   int
	height  int
}

func newInspectModel(tree *node.Tree) inspectModel {
	m := inspectModel{
		tree:   tree,
		nodes:  tree.Root().Subtree(),
		detail: viewport.New(),
	}
	return m
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.SetWidth(msg.Width)
		m.detail.SetHeight(msg.Height - 4)
		m.refreshDetail()
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.refreshDetail()
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
				m.refreshDetail()
			}
		case "y":
			cur := m.nodes[m.cursor]
			text := xpath.NodeSet([]node.Node{cur}).Format()
			if err := clipboard.WriteAll(text); err != nil {
				m.status = fmt.Sprintf("copy failed: %v", err)
			} else {
				m.status = "copied to clipboard"
			}
		}
	}
	return m, nil
}

func (m *inspectModel) refreshDetail() {
	if len(m.nodes) == 0 {
		return
	}
	cur := m.nodes[m.cursor]
	m.detail.SetContent(nodeDetail(cur))
	m.status = ""
}

func (m inspectModel) View() tea.View {
	return tea.NewView(m.renderView())
}

func (m inspectModel) renderView() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("jpath inspect -- %d nodes", len(m.nodes))))
	b.WriteString("\n\n")
	for i, n := range m.nodes {
		line := nodeLabel(n)
		if i == m.cursor {
			line = styleSelected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")
	footer := "j/k: move  y: yank JSON  q: quit"
	if m.status != "" {
		footer = m.status + "  --  " + footer
	}
	b.WriteString(styleFooter.Render(footer))
	return b.String()
}

func nodeLabel(n node.Node) string {
	name := n.LocalName()
	if name == "" {
		name = "/"
	}
	if idx, ok := n.ArrayIndex(); ok {
		name = fmt.Sprintf("%s[%d]", name, idx)
	}
	return name
}

func nodeDetail(n node.Node) string {
	return xpath.NodeSet([]node.Node{n}).Format()
}
