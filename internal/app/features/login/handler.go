// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID: The human-readable string users type to log in (username or email)

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/hubworks/accounthub/internal/app/features/errors"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/auditlog"
	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/hubworks/accounthub/internal/app/system/authutil"
	"github.com/hubworks/accounthub/internal/app/system/normalize"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	GoogleEnabled bool // true if Google OAuth is configured
}

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	LoginID       string // what the user typed (username or email)
	ReturnURL     string
	GoogleEnabled bool
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Login", "/"),
		ReturnURL:     query.Get(r, "return"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form failed", err, "Invalid form data.", "/login")
		return
	}

	loginID := strings.TrimSpace(r.FormValue("login_id"))
	password := r.FormValue("password")
	if loginID == "" {
		h.renderFormWithError(w, r, "Please enter your username or email.", loginID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.lookupUser(ctx, loginID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, loginID)
		h.renderFormWithError(w, r, "No account found for that username or email.", loginID)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if normalize.Status(u.Status) == "disabled" {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, loginID)
		h.renderFormWithError(w, r, "Your account is currently disabled. Please contact an administrator.", loginID)
		return
	}

	if u.AuthMethod == "google" {
		// Google-only accounts have no local credential.
		if h.GoogleEnabled {
			redirectURL := "/auth/google"
			if ret := strings.TrimSpace(r.FormValue("return")); ret != "" {
				redirectURL += "?return=" + ret
			}
			http.Redirect(w, r, redirectURL, http.StatusSeeOther)
			return
		}
		h.renderFormWithError(w, r, "This account uses Google sign-in, which is not configured. Please contact an administrator.", loginID)
		return
	}

	if u.PasswordHash == nil || !authutil.CheckPassword(password, *u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, loginID)
		h.renderFormWithError(w, r, "Incorrect password.", loginID)
		return
	}

	h.createSessionAndRedirect(w, r, u, strings.TrimSpace(r.FormValue("return")))
}

// lookupUser resolves a login ID to a user, trying username first and
// falling back to email. Both comparisons are case/diacritic-insensitive.
func (h *Handler) lookupUser(ctx context.Context, loginID string) (*models.User, error) {
	us := userstore.New(h.DB)
	if u, err := us.GetByUsername(ctx, loginID); err == nil {
		return u, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return us.GetByEmail(ctx, loginID)
}

// createSessionAndRedirect marks the session authenticated and sends the
// user to their safe return URL.
func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, u *models.User, returnURL string) {
	sess, err := h.SessionMgr.GetSession(r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		} else {
			h.Log.Error("session store error during login, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		}
	}

	if err := h.SessionMgr.SignIn(w, r, sess, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("username", u.Username))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", u.Username)
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, u.AuthMethod, u.Username)

	dest := urlutil.SafeReturn(returnURL, "", "/")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// renderFormWithError re-renders the login form with an inline error.
func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, loginID string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Login", "/"),
		Error:         msg,
		LoginID:       loginID,
		ReturnURL:     strings.TrimSpace(r.FormValue("return")),
		GoogleEnabled: h.GoogleEnabled,
	})
}
