package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/runtime"
	"github.com/wippyai/wasm-bridge/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	opts     options
	rt       *runtime.Runtime
	compiled *runtime.CompiledModule
	app      *runtime.InstantiatedApp
	stdout   *bytes.Buffer
	status   map[string]string
	result   string
	funcs    []funcInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
	showImp  bool
}

type funcInfo struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	// main takes free-form arguments instead of typed parameters.
	main bool
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(o options) *interactiveModel {
	return &interactiveModel{
		opts:   o,
		stdout: &bytes.Buffer{},
		state:  stateSelectFunc,
	}
}

type loadedMsg struct {
	err      error
	rt       *runtime.Runtime
	compiled *runtime.CompiledModule
	status   map[string]string
	funcs    []funcInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	ctx := context.Background()
	rt, compiled, err := setup(ctx, m.opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	status, err := importStatus(compiled)
	if err != nil {
		_ = rt.Close(ctx)
		return loadedMsg{err: err}
	}

	var funcs []funcInfo
	for _, name := range compiled.Exports() {
		params, results, ok := compiled.Signature(name)
		if !ok {
			continue
		}
		funcs = append(funcs, funcInfo{
			name:    name,
			params:  params,
			results: results,
			main:    name == runtime.InvokeMainExport,
		})
	}
	sort.SliceStable(funcs, func(i, j int) bool {
		if funcs[i].main != funcs[j].main {
			return funcs[i].main
		}
		return funcs[i].name < funcs[j].name
	})
	return loadedMsg{rt: rt, compiled: compiled, status: status, funcs: funcs}
}

func (m *interactiveModel) close() {
	ctx := context.Background()
	if m.app != nil {
		_ = m.app.Close(ctx)
	}
	if m.rt != nil {
		_ = m.rt.Close(ctx)
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "i":
			if m.state == stateSelectFunc {
				m.showImp = !m.showImp
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.compiled = msg.compiled
		m.status = msg.status
		m.funcs = msg.funcs

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	if f.main {
		ti := textinput.New()
		ti.Placeholder = "space separated arguments"
		ti.Prompt = "args: "
		ti.Width = 50
		ti.Focus()
		m.inputs = []textinput.Model{ti}
		m.focusIdx = 0
		return
	}
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = paramHint(p)
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// paramHint describes how an input is converted for a parameter type.
func paramHint(t api.ValueType) string {
	if t == api.ValueTypeI32 {
		return "value (number, true/false or string)"
	}
	return api.ValueTypeName(t)
}

func (m *interactiveModel) callFunction() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.timeout)
	defer cancel()

	if m.app == nil {
		if m.compiled == nil {
			return callResultMsg{err: fmt.Errorf("module not loaded")}
		}
		app, err := m.compiled.Instantiate(ctx, nil, runtime.InstantiateOptions{
			DeferredModuleLoader: deferredLoader(m.opts.deferredDir),
			Stdout:               m.stdout,
			Stderr:               m.stdout,
		})
		if err != nil {
			return callResultMsg{err: err}
		}
		m.app = app
	}
	m.stdout.Reset()

	f := m.funcs[m.selected]
	if f.main {
		var args []value.Value
		if len(m.inputs) > 0 {
			args = convertArgs(strings.Fields(m.inputs[0].Value()))
		}
		if err := m.app.InvokeMain(ctx, args...); err != nil {
			return callResultMsg{err: err, result: m.stdout.String()}
		}
		err := m.app.Run(ctx)
		return callResultMsg{err: err, result: m.stdout.String()}
	}

	args := make([]value.Value, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = convertArg(input.Value())
	}
	out, err := m.app.CallValue(ctx, f.name, args...)
	if err != nil {
		return callResultMsg{err: err, result: m.stdout.String()}
	}
	if err := m.app.Run(ctx); err != nil {
		return callResultMsg{err: err, result: m.stdout.String()}
	}
	return callResultMsg{result: m.stdout.String() + value.ToString(out)}
}

func convertArgs(ss []string) []value.Value {
	out := make([]value.Value, len(ss))
	for i, s := range ss {
		out[i] = convertArg(s)
	}
	return out
}

// convertArg reads true, false and numbers as such; anything else is a string.
func convertArg(s string) value.Value {
	switch s {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	case "":
		return value.Undefined
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Number(f)
	}
	return value.String(s)
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.compiled == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Bridge"))
	b.WriteString(" ")
	b.WriteString(m.opts.wasmFile)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if m.showImp {
			b.WriteString(m.importsView())
			b.WriteString("\n")
		}
		b.WriteString("Select an export to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatFunc(f)))
			} else {
				b.WriteString(cursor + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • i imports • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.name)))
		if m.result != "" {
			b.WriteString(resultStyle.Render(m.result))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		}
		if m.app != nil {
			b.WriteString(helpStyle.Render(fmt.Sprintf("\nlive handles: %d", m.app.Values().Len())))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) importsView() string {
	var b strings.Builder
	b.WriteString("Imports:\n")
	for _, r := range m.compiled.Imports() {
		st := m.status[r.Namespace+"#"+r.Name]
		style := resultStyle
		if st != "ok" {
			style = errorStyle
		}
		b.WriteString(fmt.Sprintf("  %s#%s %s %s\n",
			typeStyle.Render(r.Namespace), r.Name, helpStyle.Render(r.Signature()), style.Render(st)))
	}
	return b.String()
}

func (m *interactiveModel) formatFunc(f funcInfo) string {
	if f.main {
		return funcStyle.Render(f.name) + "(" + typeStyle.Render("args...") + ")"
	}
	return funcStyle.Render(f.name) + typeStyle.Render(imports.FormatSignature(f.params, f.results))
}

func runInteractive(o options) error {
	p := tea.NewProgram(newInteractiveModel(o), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
