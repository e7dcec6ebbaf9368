package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/englishquiz/internal/handler/views"
	appI18n "github.com/pavelanni/englishquiz/internal/i18n"
	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/store"
)

const tokenCookieName = "adminToken"

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns the same bcrypt work as a real comparison so unknown
// emails and wrong passwords take the same time.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// requireAdmin is middleware for the JSON API: requests without a valid
// admin token get 401.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := model.ContextWithAdminID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdminPage is requireAdmin for HTML pages; it redirects to the
// login page instead.
func (h *Handler) requireAdminPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.authenticate(r)
		if !ok {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		ctx := model.ContextWithAdminID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) authenticate(r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil || cookie.Value == "" {
		return 0, false
	}
	id, err := h.tokens.Verify(cookie.Value)
	if err != nil {
		slog.Debug("rejected admin token", "error", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(r); ok {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, views.LoginPage(""))
}

// handleLogin accepts credentials as JSON or as a form post from the login
// page. Form posts are answered with redirects and pages, anything else is
// read and answered as JSON.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := isForm(r)

	var req model.LoginRequest
	if form {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	req.Email = store.NormalizeEmail(req.Email)
	if err := model.Validate(req); err != nil {
		if form {
			h.renderLoginError(w, r, http.StatusBadRequest)
			return
		}
		respondError(w, err)
		return
	}

	admin, err := h.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("failed to get admin", "error", err)
		h.loginError(w, form)
		return
	}
	if admin == nil {
		compareDummy(req.Password)
		h.loginFailed(w, r, form)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		h.loginFailed(w, r, form)
		return
	}

	token, err := h.tokens.Issue(admin.ID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		h.loginError(w, form)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	slog.Info("admin logged in", "id", admin.ID)

	if form {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, form bool) {
	if form {
		h.renderLoginError(w, r, http.StatusUnauthorized)
		return
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (h *Handler) loginError(w http.ResponseWriter, form bool) {
	if form {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	if isForm(r) {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, status int) {
	render(w, r, status, views.LoginPage(appI18n.T(r.Context(), "LoginError")))
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data")
}
