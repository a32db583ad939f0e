// Package tui implements the terminal client for Taskdeck.
// It uses bubbletea, which follows The Elm Architecture:
// state lives in the App model, messages drive Update, and View
// renders the current state to a string.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/handler/dto"
)

// appState represents which screen is active.
type appState int

const (
	stateLogin appState = iota
	stateSignup
	stateTodos
)

const requestTimeout = 15 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BC34A"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Strikethrough(true)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
)

// Messages produced by async API commands.
type (
	loginResultMsg struct {
		err error
	}
	signupResultMsg struct {
		user *dto.UserResponse
		err  error
	}
	todosLoadedMsg struct {
		todos []dto.TodoResponse
		err   error
	}
	todoMutatedMsg struct {
		action string
		err    error
	}
	logoutResultMsg struct {
		err error
	}
)

// App is the terminal client model. It holds all UI state.
type App struct {
	api   *client.Client
	state appState

	emailInput    textinput.Model
	passwordInput textinput.Model
	todoInput     textinput.Model
	focusIndex    int

	todos     []dto.TodoResponse
	selection int
	adding    bool

	errMsg    string
	statusMsg string
	loading   bool

	width  int
	height int
}

// NewApp creates the application model for the given API client.
func NewApp(api *client.Client) *App {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 40

	todo := textinput.New()
	todo.Placeholder = "New todo"
	todo.CharLimit = 200
	todo.Width = 40

	return &App{
		api:           api,
		state:         stateLogin,
		emailInput:    email,
		passwordInput: password,
		todoInput:     todo,
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case loginResultMsg:
		a.loading = false
		if msg.err != nil {
			a.errMsg = apiErrorText(msg.err, "Login failed")
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = "Login successful!"
		a.emailInput.SetValue("")
		a.passwordInput.SetValue("")
		a.state = stateTodos
		return a, a.loadTodos()

	case signupResultMsg:
		a.loading = false
		if msg.err != nil {
			a.errMsg = apiErrorText(msg.err, "Signup failed. Email might already exist.")
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = "Signup successful! Please log in."
		a.passwordInput.SetValue("")
		a.switchAuthScreen(stateLogin)
		return a, nil

	case todosLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.errMsg = apiErrorText(msg.err, "Could not load todos")
			if isUnauthorized(msg.err) {
				a.backToLogin("Session expired. Please log in.")
			}
			return a, nil
		}
		a.errMsg = ""
		a.todos = msg.todos
		if a.selection >= len(a.todos) {
			a.selection = maxInt(0, len(a.todos)-1)
		}
		return a, nil

	case todoMutatedMsg:
		a.loading = false
		if msg.err != nil {
			a.errMsg = apiErrorText(msg.err, "Request failed")
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = msg.action
		return a, a.loadTodos()

	case logoutResultMsg:
		a.loading = false
		a.backToLogin("Logged out.")
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.state {
		case stateLogin, stateSignup:
			return a.updateAuthScreen(msg)
		case stateTodos:
			return a.updateTodosScreen(msg)
		}
	}

	return a, a.updateInputs(msg)
}

// updateAuthScreen handles keys on the login and signup screens.
func (a *App) updateAuthScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		a.focusIndex = (a.focusIndex + 1) % 2
		if a.focusIndex == 0 {
			a.passwordInput.Blur()
			return a, a.emailInput.Focus()
		}
		a.emailInput.Blur()
		return a, a.passwordInput.Focus()

	case "enter":
		email := strings.TrimSpace(a.emailInput.Value())
		password := a.passwordInput.Value()
		if email == "" || password == "" {
			a.errMsg = "Email and password are required."
			return a, nil
		}
		a.loading = true
		a.statusMsg = ""
		if a.state == stateLogin {
			return a, a.doLogin(email, password)
		}
		return a, a.doSignup(email, password)

	case "ctrl+s":
		if a.state == stateLogin {
			a.switchAuthScreen(stateSignup)
		} else {
			a.switchAuthScreen(stateLogin)
		}
		return a, nil

	case "esc", "q":
		if a.emailInput.Value() == "" && a.passwordInput.Value() == "" {
			return a, tea.Quit
		}
	}

	return a, a.updateInputs(msg)
}

// updateTodosScreen handles keys on the todo list screen.
func (a *App) updateTodosScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.adding {
		switch msg.String() {
		case "enter":
			title := strings.TrimSpace(a.todoInput.Value())
			if title == "" {
				a.errMsg = "Todo title cannot be empty."
				return a, nil
			}
			a.adding = false
			a.todoInput.Blur()
			a.todoInput.SetValue("")
			a.loading = true
			return a, a.doCreateTodo(title)
		case "esc":
			a.adding = false
			a.todoInput.Blur()
			a.todoInput.SetValue("")
			return a, nil
		}
		var cmd tea.Cmd
		a.todoInput, cmd = a.todoInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "n":
		a.adding = true
		a.errMsg = ""
		return a, a.todoInput.Focus()
	case "r":
		a.loading = true
		return a, a.loadTodos()
	case "up", "k":
		if a.selection > 0 {
			a.selection--
		}
	case "down", "j":
		if a.selection < len(a.todos)-1 {
			a.selection++
		}
	case " ", "enter":
		if todo := a.selectedTodo(); todo != nil {
			a.loading = true
			return a, a.doToggleTodo(todo.ID, !todo.IsDone)
		}
	case "d":
		if todo := a.selectedTodo(); todo != nil {
			a.loading = true
			return a, a.doDeleteTodo(todo.ID)
		}
	case "ctrl+l":
		a.loading = true
		return a, a.doLogout()
	}

	return a, nil
}

func (a *App) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.emailInput, cmd = a.emailInput.Update(msg)
	cmds = append(cmds, cmd)
	a.passwordInput, cmd = a.passwordInput.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (a *App) switchAuthScreen(state appState) {
	a.state = state
	a.errMsg = ""
	a.focusIndex = 0
	a.passwordInput.Blur()
	_ = a.emailInput.Focus()
}

func (a *App) backToLogin(status string) {
	a.state = stateLogin
	a.todos = nil
	a.selection = 0
	a.adding = false
	a.errMsg = ""
	a.statusMsg = status
	a.focusIndex = 0
	_ = a.emailInput.Focus()
}

func (a *App) selectedTodo() *dto.TodoResponse {
	if a.selection < 0 || a.selection >= len(a.todos) {
		return nil
	}
	return &a.todos[a.selection]
}

// API commands. Each returns a tea.Cmd that runs the request off the
// UI goroutine and delivers the result as a message. Reads and
// idempotent mutations retry transient failures; creates and logins
// surface errors immediately.

func (a *App) doLogin(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := a.api.Login(ctx, email, password)
		return loginResultMsg{err: err}
	}
}

func (a *App) doSignup(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := a.api.Register(ctx, email, password)
		return signupResultMsg{user: user, err: err}
	}
}

func (a *App) loadTodos() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var todos []dto.TodoResponse
		err := client.WithRetry(ctx, client.DefaultMaxAttempts, func() error {
			var err error
			todos, err = a.api.MyTodos(ctx, 0, 0)
			return err
		})
		return todosLoadedMsg{todos: todos, err: err}
	}
}

func (a *App) doCreateTodo(title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := a.api.CreateTodo(ctx, title, "")
		return todoMutatedMsg{action: "Todo added!", err: err}
	}
}

func (a *App) doToggleTodo(id string, done bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.WithRetry(ctx, client.DefaultMaxAttempts, func() error {
			_, err := a.api.UpdateTodo(ctx, id, dto.UpdateTodoRequest{IsDone: &done})
			return err
		})
		return todoMutatedMsg{action: "Todo status updated.", err: err}
	}
}

func (a *App) doDeleteTodo(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.WithRetry(ctx, client.DefaultMaxAttempts, func() error {
			return a.api.DeleteTodo(ctx, id)
		})
		return todoMutatedMsg{action: "Todo deleted.", err: err}
	}
}

func (a *App) doLogout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := a.api.Logout(ctx)
		return logoutResultMsg{err: err}
	}
}

// View renders the current screen.
func (a *App) View() string {
	switch a.state {
	case stateLogin:
		return a.renderAuthScreen("Login",
			"Enter → log in    Ctrl+S → sign up    Ctrl+C → quit")
	case stateSignup:
		return a.renderAuthScreen("Sign Up",
			"Enter → create account    Ctrl+S → back to login    Ctrl+C → quit")
	case stateTodos:
		return a.renderTodosScreen()
	}
	return ""
}

func (a *App) renderAuthScreen(title, hint string) string {
	sections := []string{
		titleStyle.Render("☑ TASKDECK · " + title),
		a.emailInput.View(),
		a.passwordInput.View(),
	}
	if a.errMsg != "" {
		sections = append(sections, errorStyle.Render(a.errMsg))
	}
	if a.statusMsg != "" {
		sections = append(sections, statusStyle.Render(a.statusMsg))
	}
	if a.loading {
		sections = append(sections, "Working...")
	}
	sections = append(sections, hintStyle.Render(hint))
	return strings.Join(sections, "\n")
}

func (a *App) renderTodosScreen() string {
	sections := []string{
		titleStyle.Render(fmt.Sprintf("☑ TASKDECK · Todos (%d)", len(a.todos))),
	}

	if len(a.todos) == 0 {
		sections = append(sections, "No todos yet!")
	} else {
		var rows []string
		for i, todo := range a.todos {
			rows = append(rows, a.renderTodoRow(todo, i == a.selection))
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}

	if a.adding {
		sections = append(sections, "", a.todoInput.View())
	}
	if a.errMsg != "" {
		sections = append(sections, errorStyle.Render(a.errMsg))
	}
	if a.statusMsg != "" {
		sections = append(sections, statusStyle.Render(a.statusMsg))
	}
	if a.loading {
		sections = append(sections, "Working...")
	}

	hint := "n → new    space → toggle    d → delete    r → refresh    Ctrl+L → logout    q → quit"
	if a.adding {
		hint = "Enter → save    Esc → cancel"
	}
	sections = append(sections, hintStyle.Render(hint))

	return strings.Join(sections, "\n")
}

func (a *App) renderTodoRow(todo dto.TodoResponse, selected bool) string {
	check := "[ ]"
	title := todo.Title
	if todo.IsDone {
		check = "[x]"
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s", check, title)
	if selected {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

// apiErrorText prefers the server's error message over the fallback.
func apiErrorText(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return fmt.Sprintf("%s (%v)", fallback, err)
	}
	return fallback
}

func isUnauthorized(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
