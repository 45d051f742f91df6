package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/services"
)

type loginPageData struct {
	basePageData
	Email      string
	Registered bool
}

type registerPageData struct {
	basePageData
	Email    string
	FullName string
}

// HandleLogin renders the login form and processes submissions. Validation
// failures are surfaced inline before any network call; backend failures
// re-render the form with the decoded message.
func (m *Main) HandleLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{
		basePageData: m.baseData(r, "auth.login"),
		Registered:   r.URL.Query().Get("registered") != "",
	}

	if r.Method == http.MethodGet {
		m.render(w, "login.html", data)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	data.Email = email

	if email == "" || password == "" {
		data.Alert = "Email and password are required"
		m.render(w, "login.html", data)
		return
	}

	if err := m.auth.Login(r.Context(), email, password); err != nil {
		m.logger.Warn("Login failed", slog.String("email", email), slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
		m.render(w, "login.html", data)
		return
	}

	m.setLocaleCookie(w, data.Lang)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRegister renders the registration form and creates accounts. A
// successful registration does not authenticate; the user is sent to the
// login page.
func (m *Main) HandleRegister(w http.ResponseWriter, r *http.Request) {
	data := registerPageData{basePageData: m.baseData(r, "auth.register")}

	if r.Method == http.MethodGet {
		m.render(w, "register.html", data)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")
	fullName := strings.TrimSpace(r.FormValue("full_name"))
	data.Email = email
	data.FullName = fullName

	switch {
	case email == "" || password == "":
		data.Alert = "Email and password are required"
	case password != confirm:
		data.Alert = "Passwords do not match"
	case len(password) < 8:
		data.Alert = "Password must be at least 8 characters"
	}
	if data.Alert != "" {
		m.render(w, "register.html", data)
		return
	}

	if _, err := m.auth.Register(r.Context(), api.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}); err != nil {
		m.logger.Warn("Registration failed", slog.String("email", email), slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
		m.render(w, "register.html", data)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// HandleLogout clears the session and returns to the login page.
func (m *Main) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m.auth.Logout()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (m *Main) setLocaleCookie(w http.ResponseWriter, lang string) {
	http.SetCookie(w, &http.Cookie{
		Name:     services.LocaleCookie,
		Value:    lang,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Main) render(w http.ResponseWriter, name string, data any) {
	if err := m.templates.ExecuteTemplate(w, name, data); err != nil {
		m.logger.Error("Failed to execute template",
			slog.String("template", name),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
