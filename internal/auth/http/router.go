package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"

	_ "github.com/onevision/baselogin/api/baselogin" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion  string
	secureCookies bool
	startTime     time.Time
	logger        *slog.Logger

	store           store.Store
	AccountService  *service.AccountService
	SessionService  *service.SessionService
	InviteService   *service.InviteService
	MemberService   *service.MemberService
	ResetService    *service.ResetService
	SettingsService *service.SettingsService
}

func NewRouter(
	buildVersion string,
	secureCookies bool,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		secureCookies: secureCookies,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvites()
	r.registerMembers()
	r.registerPasswordReset()
	r.registerSettings()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			BaseLogin Authentication Service API
//	@version		0.1.0
//	@description	Multi-tenant authentication starter: email/password sign-up with confirmation,
//	@description	magic-link sign-in, seat-limited team invites and single-use password resets.
//	@description	Tenancy is derived from the email domain; every cross-user operation is scoped
//	@description	to the requester's company.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Authorization
//	@description				Session JWT. Usually carried by the "token" cookie; "Bearer {token}" also works.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	session := SessionMiddleware(r.SessionService)

	// POST /signup - strict rate limit by IP (account creation)
	signupHandler := &SignUpHandler{Accounts: r.AccountService}
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(signupHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /confirm - moderate rate limit by IP (token redemption)
	confirmHandler := &ConfirmHandler{Accounts: r.AccountService}
	r.Mux.Handle("POST /v1/auth/confirm",
		httpx.Chain(confirmHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /signin - strict rate limit by IP (credential guessing)
	signinHandler := &SignInHandler{Sessions: r.SessionService, SecureCookies: r.secureCookies}
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(signinHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{SecureCookies: r.secureCookies},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Magic links: requesting sends mail, so it gets the strict profile.
	magicHandler := &MagicLinkHandler{Sessions: r.SessionService, SecureCookies: r.secureCookies}
	r.Mux.Handle("POST /v1/auth/send-link",
		httpx.Chain(http.HandlerFunc(magicHandler.HandleSend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/magic",
		httpx.Chain(http.HandlerFunc(magicHandler.HandleRedeem),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	meHandler := &MeHandler{Accounts: r.AccountService}
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(meHandler.HandleMe),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/user-exists",
		httpx.Chain(http.HandlerFunc(meHandler.HandleUserExists),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerInvites() {
	session := SessionMiddleware(r.SessionService)
	h := &InviteHandler{Invites: r.InviteService}

	// Invite management is admin-only; the role check runs again in the
	// service so direct callers can't slip past the middleware.
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		session,
		RequireAdmin(),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
	securedResend := httpx.Chain(http.HandlerFunc(h.HandleResend),
		session,
		RequireAdmin(),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
	securedDelete := httpx.Chain(http.HandlerFunc(h.HandleDelete),
		session,
		RequireAdmin(),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/invites", securedCreate)
	r.Mux.Handle("POST /v1/invites/resend", securedResend)
	r.Mux.Handle("DELETE /v1/invites/{id}", securedDelete)

	// POST /invites/accept - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/invites/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMembers() {
	session := SessionMiddleware(r.SessionService)
	h := &MemberHandler{Members: r.MemberService}

	r.Mux.Handle("GET /v1/members",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/members/delete",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			session,
			RequireAdmin(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &ResetHandler{Resets: r.ResetService}

	// Both legs are unauthenticated and mail-sending or token-redeeming,
	// so they share the strict profile.
	r.Mux.Handle("POST /v1/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSettings() {
	session := SessionMiddleware(r.SessionService)
	h := &SettingsHandler{Settings: r.SettingsService}

	r.Mux.Handle("GET /v1/system/settings",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/system/settings",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
