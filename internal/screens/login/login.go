package login

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/screen"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/store"
	"github.com/abhisek/learnpath/internal/ui/components"
	"github.com/abhisek/learnpath/internal/ui/layout"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldName
)

// authResultMsg carries the outcome of a sign-in attempt.
type authResultMsg struct {
	Email string
	Token string
	Err   error
}

// LoginScreen signs a learner in, or registers and then signs in.
type LoginScreen struct {
	deps     screens.Deps
	fields   []components.TextInput
	focus    int
	register bool
	busy     bool
	errMsg   string
	now      func() time.Time
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a login screen with email prefilled (may be empty).
func New(deps screens.Deps, email string) *LoginScreen {
	fields := []components.TextInput{
		components.NewTextInput("Email", "you@example.com", false, 40),
		components.NewTextInput("Password", "", true, 40),
		components.NewTextInput("Full name", "optional", false, 40),
	}
	fields[fieldEmail].SetValue(email)

	s := &LoginScreen{
		deps:   deps,
		fields: fields,
		now:    time.Now,
	}
	if email != "" {
		s.focus = fieldPassword
	}
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *LoginScreen) Title() string {
	if s.register {
		return "Create account"
	}
	return "Sign in"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	toggle := "Create account"
	if s.register {
		toggle = "Have an account"
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Field"},
		{Key: "Tab", Description: toggle},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Register reports whether the screen is in register mode.
func (s *LoginScreen) Register() bool {
	return s.register
}

func (s *LoginScreen) visibleFields() int {
	if s.register {
		return 3
	}
	return 2
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		return s.handleAuthResult(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *LoginScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}

	switch msg.String() {
	case "tab":
		s.register = !s.register
		s.errMsg = ""
		if s.focus >= s.visibleFields() {
			return s, s.setFocus(fieldPassword)
		}
		return s, nil
	case "up", "shift+tab":
		if s.focus > 0 {
			return s, s.setFocus(s.focus - 1)
		}
		return s, nil
	case "down":
		if s.focus < s.visibleFields()-1 {
			return s, s.setFocus(s.focus + 1)
		}
		return s, nil
	case "enter":
		if s.focus < s.visibleFields()-1 {
			return s, s.setFocus(s.focus + 1)
		}
		return s, s.submit()
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *LoginScreen) setFocus(i int) tea.Cmd {
	s.fields[s.focus].Blur()
	s.focus = i
	return s.fields[s.focus].Focus()
}

// submit validates the form and starts the sign-in request.
func (s *LoginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.fields[fieldEmail].Value())
	password := s.fields[fieldPassword].Value()
	fullName := strings.TrimSpace(s.fields[fieldName].Value())

	if email == "" || password == "" {
		s.errMsg = "Email and password are required."
		return nil
	}

	s.busy = true
	s.errMsg = ""

	deps := s.deps
	register := s.register
	now := s.now
	return func() tea.Msg {
		ctx := context.Background()
		if register {
			if err := deps.Client.Register(ctx, email, password, fullName); err != nil {
				return authResultMsg{Err: fmt.Errorf("register: %w", err)}
			}
		}

		token, err := deps.Client.Login(ctx, email, password)
		if err != nil {
			return authResultMsg{Err: fmt.Errorf("login: %w", err)}
		}

		if deps.Sessions != nil {
			sess := store.Session{Token: token, Email: email, SavedAt: now()}
			if err := deps.Sessions.Save(ctx, sess); err != nil && deps.Log != nil {
				deps.Log.Warn("failed to save session", "error", err)
			}
		}
		return authResultMsg{Email: email, Token: token}
	}
}

func (s *LoginScreen) handleAuthResult(msg authResultMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = screens.Describe(msg.Err)
		s.fields[fieldPassword].SetValue("")
		return s, s.setFocus(fieldPassword)
	}

	if s.deps.Progress != nil {
		s.deps.Progress.SetIdentity(contentapi.IdentityPrefix(msg.Token))
	}
	email := msg.Email
	return s, func() tea.Msg { return screens.SignedInMsg{Email: email} }
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString(theme.Title.Render(s.Title()) + "\n")
	if s.register {
		b.WriteString(theme.Subtitle.Render("Create an account, then we sign you in.") + "\n\n")
	} else {
		b.WriteString(theme.Subtitle.Render("Sign in to track your progress.") + "\n\n")
	}

	for i := 0; i < s.visibleFields(); i++ {
		b.WriteString(s.fields[i].View() + "\n\n")
	}

	label := "Sign in"
	if s.register {
		label = "Create account"
	}
	if s.busy {
		label = "Working..."
	}
	b.WriteString(components.NewButton(label, s.focus == s.visibleFields()-1 && !s.busy).View())

	if s.errMsg != "" {
		b.WriteString("\n\n" + theme.ErrorText.Render(s.errMsg))
	}

	card := theme.Card.Width(min(width-4, 64)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
