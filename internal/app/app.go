package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/router"
	"github.com/abhisek/learnpath/internal/screen"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/screens/catalog"
	"github.com/abhisek/learnpath/internal/screens/courseview"
	"github.com/abhisek/learnpath/internal/screens/login"
	"github.com/abhisek/learnpath/internal/screens/quizview"
	"github.com/abhisek/learnpath/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	deps   screens.Deps
	email  string
	width  int
	height int
}

// New creates the root model. A signed-in learner starts at the catalog,
// anyone else at the login screen with email prefilled.
func New(deps screens.Deps, email string, signedIn bool) AppModel {
	var initial screen.Screen
	if signedIn {
		initial = catalog.New(deps)
	} else {
		initial = login.New(deps, email)
		email = ""
	}
	return AppModel{
		router: router.New(initial),
		deps:   deps,
		email:  email,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case screens.SignedInMsg:
		m.email = msg.Email
		return m, m.router.Reset(catalog.New(m.deps))

	case screens.SignedOutMsg:
		email := m.email
		m.email = ""
		m.signOut()
		return m, m.router.Reset(login.New(m.deps, email))

	case screens.OpenCourseMsg:
		return m, m.router.Push(courseview.New(m.deps, msg.CourseID))

	case screens.OpenQuizMsg:
		return m, m.router.Push(quizview.New(m.deps, msg.CourseID, msg.Lesson))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// signOut forgets the saved session and the token. Cached progress stays
// on disk under the old identity.
func (m AppModel) signOut() {
	if m.deps.Sessions != nil {
		if err := m.deps.Sessions.Clear(context.Background()); err != nil && m.deps.Log != nil {
			m.deps.Log.Warn("failed to clear session", "error", err)
		}
	}
	m.deps.Client.SetToken("")
	if m.deps.Progress != nil {
		m.deps.Progress.SetIdentity(contentapi.IdentityPrefix(""))
	}
}

// Email returns the signed-in learner's email, or "".
func (m AppModel) Email() string {
	return m.email
}

// Active returns the screen on top of the stack.
func (m AppModel) Active() screen.Screen {
	return m.router.Active()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current terminal size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(active), m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) status(active screen.Screen) string {
	status := m.email
	if sp, ok := active.(screen.StatusProvider); ok {
		if s := sp.Status(); s != "" {
			if status != "" {
				status += " · "
			}
			status += s
		}
	}
	return status
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, m AppModel) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
