package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"giantylive-web/internal/config"
	"giantylive-web/internal/cookie"
	"giantylive-web/internal/handler"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/metrics"
	"giantylive-web/internal/middleware"
	"giantylive-web/internal/view"
)

type Handlers struct {
	Pages         *handler.PageHandler
	Session       *handler.SessionHandler
	Users         *handler.UserHandler
	Workspaces    *handler.WorkspaceHandler
	Glossaries    *handler.GlossaryHandler
	ChatHistory   *handler.ChatHistoryHandler
	Conferences   *handler.ConferenceHandler
	SessionEvents *handler.SessionEventHandler
	Health        *handler.HealthHandler
	Metrics       http.Handler
}

func New(cfg *config.Config, recorder metrics.Recorder, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)
	cookieOpts := CookieOptions(cfg)
	defaultLocale := locale.OrDefault(cfg.DefaultLocale, locale.Default)

	r.Use(middleware.Logging(recorder))
	r.Use(middleware.Recovery)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Session(cookieOpts))
	r.Use(middleware.Locale(defaultLocale, cookieOpts))

	r.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	r.Handle("/static/*", view.Static(cfg.StaticDir))
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.With(h.SessionEvents.RequireAdmin, middleware.StreamingTimeout(cfg.StreamMaxDuration)).
			Get("/admin/session-events/stream", h.SessionEvents.Stream)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/session", func(s chi.Router) {
				s.Get("/", h.Session.Get)
				s.Post("/", h.Session.SignIn)
				s.Delete("/", h.Session.SignOut)
				s.Post("/register", h.Session.SignUp)
			})

			api.Route("/users", func(u chi.Router) {
				u.Get("/", h.Users.List)
				u.Get("/me", h.Users.Me)
				u.Put("/me/profile", h.Users.UpdateProfile)
				u.Put("/me/password", h.Users.UpdatePassword)
				u.Put("/me/locale", h.Users.UpdateLocale)
			})

			api.Route("/workspaces", func(ws chi.Router) {
				ws.Get("/", h.Workspaces.List)
				ws.Post("/", h.Workspaces.Create)
				ws.Get("/{id}", h.Workspaces.Get)
				ws.Put("/{id}", h.Workspaces.Update)
				ws.Delete("/{id}", h.Workspaces.Delete)
				ws.Patch("/{id}/activate", h.Workspaces.Activate)
				ws.Patch("/{id}/deactivate", h.Workspaces.Deactivate)
				ws.Get("/{id}/stats", h.Workspaces.Stats)
				ws.Get("/{id}/channels", h.Workspaces.Channels)
			})

			api.Route("/glossaries", func(g chi.Router) {
				g.Get("/", h.Glossaries.List)
				g.Post("/", h.Glossaries.Create)
				g.Get("/workspaces/available", h.Glossaries.AvailableWorkspaces)
				g.Post("/terms", h.Glossaries.AddTerm)
				g.Patch("/terms/{termID}", h.Glossaries.UpdateTerm)
				g.Delete("/terms/{termID}", h.Glossaries.DeleteTerm)
				g.Get("/{id}", h.Glossaries.Get)
				g.Patch("/{id}", h.Glossaries.Update)
				g.Delete("/{id}", h.Glossaries.Delete)
				g.Post("/{id}/terms/bulk", h.Glossaries.BulkAddTerms)
			})

			api.Get("/chat-history/workspace/{workspaceID}", h.ChatHistory.ListByWorkspace)
			api.Get("/chat-history/workspace/{workspaceID}/channel/{channelID}", h.ChatHistory.ListByChannel)

			api.Route("/conferences", func(c chi.Router) {
				c.Get("/", h.Conferences.List)
				c.Post("/", h.Conferences.Create)
				c.Get("/stats", h.Conferences.Stats)
				c.Get("/code/{code}", h.Conferences.GetByCode)
				c.Get("/{id}", h.Conferences.Get)
				c.Put("/{id}", h.Conferences.Update)
				c.Delete("/{id}", h.Conferences.Delete)
				c.Post("/{id}/{action}", h.Conferences.Transition)
			})

			api.With(h.SessionEvents.RequireAdmin).Get("/admin/session-events", h.SessionEvents.List)
		})
	})

	r.Route("/{locale}", func(page chi.Router) {
		page.Use(middleware.PageTimeout(cfg.RequestTimeout))

		page.Get("/", h.Pages.Home)
		page.Get("/sign-in", h.Pages.SignInForm)
		page.Post("/sign-in", h.Pages.SignIn)
		page.Get("/sign-up", h.Pages.SignUpForm)
		page.Post("/sign-up", h.Pages.SignUp)
		page.Post("/sign-out", h.Pages.SignOut)
		page.Get("/auth/callback", h.Pages.Callback)
		page.Get("/dashboard", h.Pages.Dashboard)
		page.Get("/dashboard/settings", h.Pages.Settings)
		page.Get("/workspaces", h.Pages.Workspaces)
		page.Get("/glossaries", h.Pages.Glossaries)
		page.Post("/dashboard/settings/profile", h.Pages.UpdateProfile)
		page.Post("/dashboard/settings/password", h.Pages.UpdatePassword)
		page.Post("/dashboard/settings/locale", h.Pages.UpdateLocale)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			handler.APINotFound(w, req)
			return
		}
		h.Pages.NotFound(w, req)
	})

	return r
}

// CookieOptions are shared by the session store and the locale preference
// cookie.
func CookieOptions(cfg *config.Config) cookie.Options {
	opts := cookie.DefaultOptions()
	opts.TTL = cfg.CookieTTL
	opts.Secure = cfg.CookieSecure
	opts.Domain = cfg.CookieDomain
	return opts
}
