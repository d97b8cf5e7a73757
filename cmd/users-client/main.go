package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"users-service/client"
	"users-service/entities"
)

const requestTimeout = 10 * time.Second

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepPinging step = iota
	stepEnteringUsername
	stepEnteringEmail
	stepSubmitting
	stepLoadingUsers
	stepBrowsingUsers
)

// usersAPI is the subset of client.Client the TUI drives.
type usersAPI interface {
	Ping(ctx context.Context) (string, error)
	AddUser(ctx context.Context, username, email string) (string, error)
	ListUsers(ctx context.Context) ([]entities.UserJSON, error)
}

type model struct {
	api          usersAPI
	step         step
	users        []entities.UserJSON
	cursor       int
	username     string
	email        string
	currentInput string
	message      string
	quitting     bool
}

type pingMsg string
type userAddedMsg string
type usersLoadedMsg []entities.UserJSON
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(api usersAPI) model {
	return model{
		api:  api,
		step: stepPinging,
	}
}

func (m model) Init() tea.Cmd {
	return ping(m.api)
}

func ping(api usersAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := api.Ping(ctx)
		if err != nil {
			return errMsg{err}
		}
		return pingMsg(msg)
	}
}

func addUser(api usersAPI, username, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := api.AddUser(ctx, username, email)
		if err != nil {
			return errMsg{err}
		}
		return userAddedMsg(msg)
	}
}

func listUsers(api usersAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		users, err := api.ListUsers(ctx)
		if err != nil {
			return errMsg{err}
		}
		return usersLoadedMsg(users)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "q":
			if m.step == stepBrowsingUsers {
				m.quitting = true
				return m, tea.Quit
			}
			if m.typing() {
				m.currentInput += "q"
			}

		case "up":
			if m.step == stepBrowsingUsers && m.cursor > 0 {
				m.cursor--
			}

		case "down":
			if m.step == stepBrowsingUsers && m.cursor < len(m.users)-1 {
				m.cursor++
			}

		case "backspace":
			if len(m.currentInput) > 0 {
				m.currentInput = m.currentInput[:len(m.currentInput)-1]
			}

		case "a":
			if m.step == stepBrowsingUsers {
				m.step = stepEnteringUsername
				m.message = ""
			} else if m.typing() {
				m.currentInput += "a"
			}

		case "enter":
			switch m.step {
			case stepEnteringUsername:
				if m.currentInput != "" {
					m.username = m.currentInput
					m.currentInput = ""
					m.step = stepEnteringEmail
				}

			case stepEnteringEmail:
				if m.currentInput != "" {
					m.email = m.currentInput
					m.currentInput = ""
					m.step = stepSubmitting
					m.message = "Adding user..."
					return m, addUser(m.api, m.username, m.email)
				}
			}

		default:
			if m.typing() && msg.Type == tea.KeyRunes {
				m.currentInput += string(msg.Runes)
			}
		}

	case pingMsg:
		m.message = successStyle.Render("✓ Service says " + string(msg))
		m.step = stepLoadingUsers
		return m, listUsers(m.api)

	case userAddedMsg:
		m.message = successStyle.Render("✓ " + string(msg))
		m.step = stepLoadingUsers
		return m, listUsers(m.api)

	case usersLoadedMsg:
		m.users = []entities.UserJSON(msg)
		if m.cursor >= len(m.users) {
			m.cursor = 0
		}
		m.step = stepBrowsingUsers

	case errMsg:
		m.message = errorStyle.Render("✗ " + describe(msg.err))
		if m.step == stepPinging {
			m.quitting = true
			return m, tea.Quit
		}
		m.step = stepBrowsingUsers
	}

	return m, nil
}

func (m model) typing() bool {
	return m.step == stepEnteringUsername || m.step == stepEnteringEmail
}

func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (m model) View() string {
	if m.quitting {
		return m.message + "\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Users Service Client\n\n"))

	switch m.step {
	case stepPinging, stepLoadingUsers, stepSubmitting:
		if m.message != "" {
			s.WriteString(m.message + "\n")
		}
		s.WriteString("Please wait...\n")

	case stepEnteringUsername:
		s.WriteString(promptStyle.Render("Enter username:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringEmail:
		s.WriteString(promptStyle.Render(fmt.Sprintf("Enter email for %s:\n", m.username)))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepBrowsingUsers:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		if len(m.users) == 0 {
			s.WriteString(normalStyle.Render("No users yet") + "\n")
		}
		for i, u := range m.users {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			line := fmt.Sprintf("#%d %s <%s>", u.ID, u.Username, u.Email)
			if !u.Active {
				line += " (inactive)"
			}
			s.WriteString(fmt.Sprintf("%s %s\n", cursor, style.Render(line)))
		}
		s.WriteString("\nUse ↑/↓ to browse, a to add a user, q to quit\n")
	}

	return s.String()
}

func main() {
	baseURL := flag.String("url", envOr("USERS_SERVICE_URL", "http://localhost:5000"), "users service base URL")
	flag.Parse()

	p := tea.NewProgram(initialModel(client.New(*baseURL)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
