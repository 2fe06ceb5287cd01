package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"

	"github.com/memwalk/schemafree"
	"github.com/memwalk/schemafree/schema"
	"github.com/memwalk/schemafree/witschema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	ptrStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateInputType modelState = iota
	stateShowSchema
)

type explorerModel struct {
	err       error
	input     textinput.Model
	typeExpr  string
	node      schema.Node
	info      witschema.LayoutInfo
	imageFile string
	root      uint32
	freed     []uint32
	walked    bool
	state     modelState
}

func newExplorerModel(typeExpr, imageFile string, root uint32) *explorerModel {
	ti := textinput.New()
	ti.Placeholder = "list<string>"
	ti.Prompt = "type: "
	ti.Width = 60
	ti.SetValue(typeExpr)
	ti.Focus()

	return &explorerModel{
		input:     ti,
		imageFile: imageFile,
		root:      root,
		state:     stateInputType,
	}
}

type compiledMsg struct {
	err    error
	node   schema.Node
	info   witschema.LayoutInfo
	freed  []uint32
	walked bool
}

func (m *explorerModel) Init() tea.Cmd {
	if m.input.Value() != "" {
		return m.compileType
	}
	return textinput.Blink
}

func (m *explorerModel) compileType() tea.Msg {
	typ, err := wit.ParseType(m.input.Value())
	if err != nil {
		return compiledMsg{err: fmt.Errorf("parse type: %w", err)}
	}

	node, err := witschema.Compile(typ)
	if err != nil {
		return compiledMsg{err: err}
	}
	msg := compiledMsg{node: node, info: witschema.Layout(typ)}

	if m.imageFile != "" {
		data, err := os.ReadFile(m.imageFile)
		if err != nil {
			return compiledMsg{err: err}
		}
		rel := &traceReleaser{}
		cfg := &schemafree.Config{Memory: &image{data: data}, Releaser: rel}
		if err := schemafree.Free(cfg, node, m.root); err != nil {
			return compiledMsg{err: err}
		}
		msg.freed = rel.freed
		msg.walked = true
	}

	return msg
}

func (m *explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateShowSchema {
				return m, tea.Quit
			}

		case "enter":
			if m.state == stateInputType && m.input.Value() != "" {
				m.typeExpr = m.input.Value()
				return m, m.compileType
			}

		case "esc":
			if m.state == stateShowSchema {
				m.state = stateInputType
				m.err = nil
				m.input.Focus()
				return m, textinput.Blink
			}
		}

	case compiledMsg:
		m.err = msg.err
		m.node = msg.node
		m.info = msg.info
		m.freed = msg.freed
		m.walked = msg.walked
		m.state = stateShowSchema
		m.input.Blur()
		return m, nil
	}

	if m.state == stateInputType {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *explorerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("freewalk"))
	if m.imageFile != "" {
		b.WriteString(" ")
		b.WriteString(m.imageFile)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateInputType:
		b.WriteString("Enter a WIT type to compile its free schema:\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter compile • ctrl+c quit"))

	case stateShowSchema:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("esc edit type • q quit"))
			break
		}

		b.WriteString(fieldStyle.Render(m.typeExpr))
		b.WriteString(fmt.Sprintf("  (size %d, align %d)\n\n", m.info.Size, m.info.Align))
		m.renderNode(&b, m.node, "", 0)

		if m.walked {
			b.WriteString("\n")
			b.WriteString(resultStyle.Render(fmt.Sprintf("Released %d blocks from root 0x%x", len(m.freed), m.root)))
			b.WriteString("\n")
			for _, ptr := range m.freed {
				b.WriteString(resultStyle.Render(fmt.Sprintf("  0x%08x", ptr)))
				b.WriteString("\n")
			}
		}

		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc edit type • q quit"))
	}

	return b.String()
}

func (m *explorerModel) renderNode(b *strings.Builder, n schema.Node, name string, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if name != "" {
		b.WriteString(fieldStyle.Render(name))
		b.WriteString(": ")
	}
	if n.Pointer() {
		b.WriteString(ptrStyle.Render("*"))
	}

	switch nd := n.(type) {
	case *schema.Scalar:
		b.WriteString(kindStyle.Render("scalar"))
		fmt.Fprintf(b, " (%d bytes)\n", nd.Size)

	case *schema.Mapping:
		b.WriteString(kindStyle.Render("mapping"))
		fmt.Fprintf(b, " (%d bytes)\n", nd.Size)
		for _, f := range nd.Fields {
			m.renderNode(b, f.Node, fmt.Sprintf("%s @%d", f.Name, f.Offset), depth+1)
		}

	case *schema.Sequence:
		b.WriteString(kindStyle.Render("sequence"))
		fmt.Fprintf(b, " (count at +%d, width %d)\n", nd.CountOffset, nd.CountWidth)
		m.renderNode(b, nd.Elem, "elem", depth+1)

	case *schema.SequenceFixed:
		b.WriteString(kindStyle.Render("sequence"))
		fmt.Fprintf(b, "[%d]\n", nd.Count)
		m.renderNode(b, nd.Elem, "elem", depth+1)
	}
}

func runInteractive(typeExpr, imageFile string, root uint32) error {
	p := tea.NewProgram(newExplorerModel(typeExpr, imageFile, root), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
