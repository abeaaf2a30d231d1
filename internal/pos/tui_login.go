package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoginStep represents the current step of the sign-in wizard
type LoginStep int

const (
	LoginForm LoginStep = iota
	RegisterForm
	LoginValidating
	LoginSuccess
	LoginError
)

// LoginModel asks for credentials before the main TUI starts
type LoginModel struct {
	ctx        context.Context
	client     *Client
	step       LoginStep
	prevStep   LoginStep // form to return to after an error
	login      []textinput.Model
	register   []textinput.Model
	focusIndex int
	width      int
	height     int
	err        error
	notice     string // registration result shown above the login form
	spinner    spinner.Model
	identity   string
	done       bool
}

// Login wizard styles share the main palette
var (
	loginTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorOnDark).Background(colorBrand).Padding(0, 1).MarginBottom(1)
	loginBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBrand).Padding(1, 2).Width(60)
	loginLabelStyle   = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	loginHintStyle    = lipgloss.NewStyle().Foreground(colorFaint).Italic(true)
	loginSuccessStyle = lipgloss.NewStyle().Foreground(colorGood).Bold(true)
	loginErrorStyle   = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	loginHelpStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Messages for the login wizard
type loginResultMsg struct {
	identity string
	err      error
}

type registerResultMsg struct {
	message string
	err     error
}

func newCredentialInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.Width = 50
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

// NewLoginTUI creates the sign-in wizard
func NewLoginTUI(ctx context.Context, client *Client) LoginModel {
	login := []textinput.Model{
		newCredentialInput("you@example.com", false),
		newCredentialInput("Password", true),
	}
	login[0].Focus()

	register := []textinput.Model{
		newCredentialInput("Full name", false),
		newCredentialInput("you@example.com", false),
		newCredentialInput("Password", true),
		newCredentialInput("Repeat password", true),
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#00695C"))

	return LoginModel{
		ctx:      ctx,
		client:   client,
		step:     LoginForm,
		login:    login,
		register: register,
		spinner:  s,
	}
}

// LoggedIn reports whether the wizard ended with a stored token
func (m LoginModel) LoggedIn() bool {
	return m.done
}

func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m LoginModel) inputs() []textinput.Model {
	if m.step == RegisterForm {
		return m.register
	}
	return m.login
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			switch m.step {
			case LoginValidating:
				return m, nil
			case RegisterForm:
				m.step = LoginForm
				m.focusIndex = 0
				return m, m.updateInputFocus()
			}
			return m, tea.Quit

		case "ctrl+r":
			if m.step == LoginForm {
				m.step = RegisterForm
				m.focusIndex = 0
				m.notice = ""
				return m, m.updateInputFocus()
			}

		case "enter":
			return m.handleEnter()

		case "tab", "down":
			if m.step == LoginForm || m.step == RegisterForm {
				m.focusIndex = (m.focusIndex + 1) % len(m.inputs())
				return m, m.updateInputFocus()
			}

		case "shift+tab", "up":
			if m.step == LoginForm || m.step == RegisterForm {
				m.focusIndex--
				if m.focusIndex < 0 {
					m.focusIndex = len(m.inputs()) - 1
				}
				return m, m.updateInputFocus()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		if msg.err != nil {
			m.step = LoginError
			m.err = msg.err
			return m, nil
		}
		m.step = LoginSuccess
		m.identity = msg.identity
		m.done = true
		return m, nil

	case registerResultMsg:
		if msg.err != nil {
			m.step = LoginError
			m.err = msg.err
			return m, nil
		}
		// Carry the email over so only the password is left to type
		m.login[0].SetValue(m.register[1].Value())
		m.login[1].SetValue("")
		m.notice = msg.message
		m.step = LoginForm
		m.focusIndex = 1
		return m, m.updateInputFocus()
	}

	if m.step == LoginForm || m.step == RegisterForm {
		return m, m.updateInputs(msg)
	}
	return m, nil
}

func (m LoginModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case LoginForm:
		for i, in := range m.login {
			if strings.TrimSpace(in.Value()) == "" {
				m.focusIndex = i
				return m, m.updateInputFocus()
			}
		}
		m.prevStep = LoginForm
		m.step = LoginValidating
		return m, tea.Batch(m.spinner.Tick, m.submitLogin())

	case RegisterForm:
		for i, in := range m.register {
			if strings.TrimSpace(in.Value()) == "" {
				m.focusIndex = i
				return m, m.updateInputFocus()
			}
		}
		m.prevStep = RegisterForm
		m.step = LoginValidating
		return m, tea.Batch(m.spinner.Tick, m.submitRegister())

	case LoginSuccess:
		return m, tea.Quit

	case LoginError:
		m.step = m.prevStep
		m.err = nil
		return m, m.updateInputFocus()
	}
	return m, nil
}

func (m *LoginModel) updateInputFocus() tea.Cmd {
	inputs := m.login
	if m.step == RegisterForm {
		inputs = m.register
	}

	var cmds []tea.Cmd
	for i := range inputs {
		if i == m.focusIndex {
			cmds = append(cmds, inputs[i].Focus())
		} else {
			inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *LoginModel) updateInputs(msg tea.Msg) tea.Cmd {
	inputs := m.login
	if m.step == RegisterForm {
		inputs = m.register
	}

	cmds := make([]tea.Cmd, len(inputs))
	for i := range inputs {
		inputs[i], cmds[i] = inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m LoginModel) submitLogin() tea.Cmd {
	email := m.login[0].Value()
	password := m.login[1].Value()
	return func() tea.Msg {
		if _, err := m.client.Login(m.ctx, email, password); err != nil {
			return loginResultMsg{err: err}
		}
		identity := email
		if info := ParseTokenInfo(m.client.Token()); info.IsJWT {
			identity = info.Identity()
		}
		return loginResultMsg{identity: identity}
	}
}

func (m LoginModel) submitRegister() tea.Cmd {
	req := RegisterRequest{
		Name:                 m.register[0].Value(),
		Email:                strings.TrimSpace(m.register[1].Value()),
		Password:             m.register[2].Value(),
		PasswordConfirmation: m.register[3].Value(),
	}
	return func() tea.Msg {
		msg, err := m.client.Register(m.ctx, req)
		if err != nil {
			return registerResultMsg{err: err}
		}
		if msg == "" {
			msg = "Account created, sign in to continue"
		}
		return registerResultMsg{message: msg}
	}
}

func (m LoginModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.step {
	case RegisterForm:
		return m.renderRegister()
	case LoginValidating:
		return m.renderValidating()
	case LoginSuccess:
		return m.renderSuccess()
	case LoginError:
		return m.renderError()
	}
	return m.renderLogin()
}

func (m LoginModel) renderLogin() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(loginTitleStyle.Render("  " + m.client.Config.Brand + "  "))
	sb.WriteString("\n\n")

	if m.notice != "" {
		sb.WriteString(loginSuccessStyle.Render("✓ " + m.notice))
		sb.WriteString("\n\n")
	}

	sb.WriteString(loginLabelStyle.Render("Email *"))
	sb.WriteString("\n")
	sb.WriteString(m.login[0].View())
	sb.WriteString("\n\n")

	sb.WriteString(loginLabelStyle.Render("Password *"))
	sb.WriteString("\n")
	sb.WriteString(m.login[1].View())
	sb.WriteString("\n\n")

	sb.WriteString(loginHintStyle.Render("Server: " + m.client.Config.APIURL))
	sb.WriteString("\n\n")
	sb.WriteString(loginHelpStyle.Render("[Tab] Next field    [Enter] Sign in    [Ctrl+R] Register    [Esc] Quit"))

	return loginBoxStyle.Render(sb.String())
}

func (m LoginModel) renderRegister() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(loginTitleStyle.Render("  Create account  "))
	sb.WriteString("\n\n")

	labels := []string{"Name *", "Email *", "Password *", "Confirm password *"}
	for i, in := range m.register {
		sb.WriteString(loginLabelStyle.Render(labels[i]))
		sb.WriteString("\n")
		sb.WriteString(in.View())
		sb.WriteString("\n\n")
	}

	sb.WriteString(loginHelpStyle.Render("[Tab] Next field    [Enter] Register    [Esc] Back"))

	return loginBoxStyle.Render(sb.String())
}

func (m LoginModel) renderValidating() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(loginTitleStyle.Render("  Signing in  "))
	sb.WriteString("\n\n")

	sb.WriteString(m.spinner.View())
	if m.prevStep == RegisterForm {
		sb.WriteString(" Creating account...")
	} else {
		sb.WriteString(" Contacting server...")
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Server: %s\n", m.client.Config.APIURL))

	return loginBoxStyle.Render(sb.String())
}

func (m LoginModel) renderSuccess() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(loginSuccessStyle.Render("  Signed in  "))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Welcome, %s\n\n", loginLabelStyle.Render(m.identity)))
	sb.WriteString(loginHelpStyle.Render("[Enter] Continue"))

	return loginBoxStyle.Render(sb.String())
}

func (m LoginModel) renderError() string {
	var sb strings.Builder

	sb.WriteString("\n")
	if m.prevStep == RegisterForm {
		sb.WriteString(loginErrorStyle.Render("  Registration Failed  "))
	} else {
		sb.WriteString(loginErrorStyle.Render("  Sign-in Failed  "))
	}
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(fmt.Sprintf("Error: %s\n\n", m.err.Error()))
	}

	sb.WriteString(loginHelpStyle.Render("[Enter] Try again    [Esc] Quit"))

	return loginBoxStyle.Render(sb.String())
}

// RunLoginTUI runs the sign-in wizard and reports whether a token was stored
func RunLoginTUI(ctx context.Context, client *Client) (bool, error) {
	p := tea.NewProgram(NewLoginTUI(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(LoginModel)
	return ok && m.LoggedIn(), nil
}
