// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/hubworks/accounthub/internal/app/features/accounts"
	accountusersfeature "github.com/hubworks/accounthub/internal/app/features/accountusers"
	authgooglefeature "github.com/hubworks/accounthub/internal/app/features/authgoogle"
	errorsfeature "github.com/hubworks/accounthub/internal/app/features/errors"
	healthfeature "github.com/hubworks/accounthub/internal/app/features/health"
	homefeature "github.com/hubworks/accounthub/internal/app/features/home"
	loginfeature "github.com/hubworks/accounthub/internal/app/features/login"
	logoutfeature "github.com/hubworks/accounthub/internal/app/features/logout"
	profilefeature "github.com/hubworks/accounthub/internal/app/features/profile"
	"github.com/hubworks/accounthub/internal/app/store/audit"
	"github.com/hubworks/accounthub/internal/app/store/oauthstate"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/auditlog"
	"github.com/hubworks/accounthub/internal/app/system/auth"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// AccountHub initializes the template engine, applies session and CSRF
// middleware, and mounts feature routers for the application surface:
// home, login, logout, Google sign-in, profile, accounts, and the
// per-account user routes nested under /accounts/{aid}/users.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.AccountHubMongoDatabase
	secure := coreCfg.Env == "prod"

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures role changes, disabled accounts, and profile updates take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Error logger and audit logger shared by the handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection for all form POSTs. The templates submit the token
	// from viewdata/formutil as gorilla.csrf.Token.
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/")))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.AccountHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(db, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLog, googleEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(
		db, sessionMgr, auditLog, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Own-profile management
	profileHandler := profilefeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Account management, with the per-account user routes nested so the
	// handlers can resolve the parent account from the "aid" parameter.
	accountsHandler := accountsfeature.NewHandler(db, errLog, auditLog, logger)
	accountUsersHandler := accountusersfeature.NewHandler(db, errLog, auditLog, logger)

	r.Route("/accounts", func(ar chi.Router) {
		ar.Mount("/{aid}/users", accountusersfeature.Routes(accountUsersHandler, sessionMgr))
		ar.Mount("/", accountsfeature.Routes(accountsHandler, sessionMgr))
	})

	return r, nil
}
