// Package tui is the interactive view: a login/registration form while
// anonymous and a todo list once authenticated. Every network operation runs
// as a Bubble Tea command so the screen keeps drawing the spinner.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/notify"
	"github.com/Makepad-fr/tada-remote/internal/session"
	"github.com/Makepad-fr/tada-remote/internal/todos"
)

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Content }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Content }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s\n", prefix, pendingStyle.Render("•"), it.todo.Content)
}

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputEdit
)

// opDoneMsg reports that a command-run operation settled.
type opDoneMsg struct {
	op  string
	err error
}

type restoredMsg struct{ ok bool }

var (
	addBind     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	logoutBind  = key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout"))
)

type Model struct {
	ctx      context.Context
	session  *session.Manager
	todos    *todos.Synchronizer
	notifier *Notifier

	width, height int

	list    list.Model
	spinner spinner.Model
	status  notify.Notification

	// anonymous forms
	username textinput.Model
	password textinput.Model
	focus    int // 0 username, 1 password

	// inline add / edit
	mode     inputMode
	input    textinput.Model
	editID   int64
	inputErr string
}

func New(ctx context.Context, mgr *session.Manager, sync *todos.Synchronizer, n *Notifier) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Todos"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	bindings := func() []key.Binding {
		return []key.Binding{addBind, editBind, deleteBind, refreshBind, logoutBind}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	user := textinput.New()
	user.Prompt = "Username: "
	user.Placeholder = "Username"
	user.CharLimit = 80
	user.Focus()

	pass := textinput.New()
	pass.Prompt = "Password: "
	pass.Placeholder = "Password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle))

	return Model{
		ctx:      ctx,
		session:  mgr,
		todos:    sync,
		notifier: n,
		width:    80,
		height:   24,
		list:     l,
		spinner:  sp,
		username: user,
		password: pass,
		input:    in,
	}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, mgr *session.Manager, sync *todos.Synchronizer, n *Notifier) error {
	p := tea.NewProgram(New(ctx, mgr, sync, n), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	restore := func() tea.Msg {
		return restoredMsg{ok: m.session.RestoreSession(m.ctx)}
	}
	return tea.Batch(restore, m.notifier.wait(), m.spinner.Tick, textinput.Blink)
}

func (m Model) authenticated() bool {
	return m.session.State() == session.Authenticated
}

func (m Model) busy() bool {
	return m.session.Busy() || m.todos.Busy()
}

// do runs op off the UI goroutine.
func (m Model) do(name string, op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return opDoneMsg{op: name, err: op(ctx)} }
}

func (m *Model) syncItems() tea.Cmd {
	items := m.todos.Items()
	li := make([]list.Item, 0, len(items))
	for _, t := range items {
		li = append(li, listItem{todo: t})
	}
	m.list.Title = "Todos"
	if u := m.session.Session().Username; u != "" {
		m.list.Title = fmt.Sprintf("Todos · %s", u)
	}
	return m.list.SetItems(li)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noteMsg:
		m.status = notify.Notification(msg)
		return m, m.notifier.wait()

	case restoredMsg:
		return m, m.syncItems()

	case opDoneMsg:
		m.password.SetValue("")
		return m, m.syncItems()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case !m.authenticated():
			return m.updateAuth(msg)
		case m.mode != inputNone:
			return m.updateInput(msg)
		default:
			return m.updateList(msg)
		}
	}

	// everything else (cursor blink, list internals) goes to the focused widget
	var cmd tea.Cmd
	switch {
	case !m.authenticated():
		if m.focus == 0 {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	case m.mode != inputNone:
		m.input, cmd = m.input.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+r":
		m.session.ToggleForm()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.setFocus(1 - m.focus)
	case "enter":
		if m.focus == 0 && m.password.Value() == "" {
			return m, m.setFocus(1)
		}
		return m, m.submitAuth()
	}
	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	if i == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

func (m *Model) submitAuth() tea.Cmd {
	user, pass := m.username.Value(), m.password.Value()
	if m.session.Form() == session.FormRegister {
		return m.do("register", func(ctx context.Context) error {
			return m.session.Register(ctx, user, pass)
		})
	}
	return m.do("login", func(ctx context.Context) error {
		return m.session.Login(ctx, user, pass)
	})
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		if m.list.FilterState() == list.FilterApplied {
			break
		}
		return m, tea.Quit
	case "a":
		return m, m.openInput(inputAdd, model.Todo{})
	case "e":
		if it, ok := m.list.SelectedItem().(listItem); ok {
			return m, m.openInput(inputEdit, it.todo)
		}
		return m, nil
	case "d":
		if it, ok := m.list.SelectedItem().(listItem); ok {
			id := it.todo.ID
			return m, m.do("remove", func(ctx context.Context) error {
				return m.todos.Remove(ctx, id)
			})
		}
		return m, nil
	case "r":
		return m, m.do("refresh", m.todos.Refresh)
	case "L":
		m.session.Logout()
		m.username.SetValue("")
		m.password.SetValue("")
		cmd := m.setFocus(0)
		return m, tea.Batch(cmd, m.syncItems())
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) openInput(mode inputMode, current model.Todo) tea.Cmd {
	m.mode = mode
	m.inputErr = ""
	m.editID = current.ID
	m.input.SetValue(current.Content)
	m.input.CursorEnd()
	m.input.Placeholder = "New todo..."
	if mode == inputEdit {
		m.input.Placeholder = "Edit todo..."
	}
	m.resize()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.SetValue("")
	m.input.Blur()
	m.resize()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		content := m.input.Value()
		mode, id := m.mode, m.editID
		if mode == inputAdd && model.Blank(content) {
			m.inputErr = "Todo cannot be empty"
			return m, nil
		}
		m.closeInput()
		if mode == inputEdit {
			return m, m.do("update", func(ctx context.Context) error {
				err := m.todos.Update(ctx, id, todos.Content(content))
				if errors.Is(err, todos.ErrAborted) {
					return nil
				}
				return err
			})
		}
		return m, m.do("add", func(ctx context.Context) error {
			_, err := m.todos.Add(ctx, content)
			return err
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	h := m.height - 6
	if m.mode != inputNone {
		h -= 3
	}
	if h < 3 {
		h = 3
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.list.SetSize(w, h)
}

func (m Model) View() string {
	var content string
	if m.authenticated() {
		content = m.listView()
	} else {
		content = m.authView()
	}

	footer := statusLine(m.status)
	if m.busy() {
		footer = m.spinner.View() + " " + mutedStyle.Render("working…")
	}
	if footer != "" {
		content += "\n" + footer
	}
	return panelStyle.Render(content)
}

func (m Model) authView() string {
	var b strings.Builder
	heading, hint := "Login", "ctrl+r: Need to register?"
	if m.session.Form() == session.FormRegister {
		heading, hint = "Register", "ctrl+r: Already have an account?"
	}
	b.WriteString(titleStyle.Render(heading) + "\n\n")
	b.WriteString(m.username.View() + "\n")
	b.WriteString(m.password.View() + "\n\n")
	b.WriteString(helpStyle.Render("enter: submit · tab: switch field · " + hint + " · esc: quit"))
	return b.String()
}

func (m Model) listView() string {
	content := m.list.View()
	if m.mode == inputNone {
		return content
	}
	title := "Add todo"
	if m.mode == inputEdit {
		title = "Edit todo"
	}
	if m.inputErr != "" {
		title += ": " + errorStyle.Render(m.inputErr)
	}
	return content + "\n" + panelStyle.Render(title+"\n"+m.input.View())
}
