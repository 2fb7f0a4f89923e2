package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/jwtx"
	"github.com/aussiebroadwan/medshare/pkg/slogx"

	_ "github.com/aussiebroadwan/medshare/api/share" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	ScopeShareRead  = "share:read"
	ScopeShareWrite = "share:write"
	ScopeAdminWrite = "admin:write"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	AccessResolver    *service.AccessResolver
	InvitationService *service.InvitationService
	SharingService    *service.SharingService
	TransferService   *service.TransferService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPatients()
	r.registerShares()
	r.registerInvitations()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			MedShare Patient Sharing API
//	@version		0.1.0
//	@description	Patient access control and sharing. Owners invite other users to view, edit or fully manage
//	@description	patient records; recipients accept invitations to receive a share.
//	@description
//	@description				Every /v1 route requires a bearer access token issued by the auth service.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/medshare
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8081
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps h with bearer authentication, a scope check and a per-user
// rate limit.
func (r *Router) authed(h http.HandlerFunc, limit httpx.RateLimitConfig, scopes ...string) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(scopes...),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerPatients() {
	h := &PatientsHandler{Access: r.AccessResolver, Sharing: r.SharingService}

	r.Mux.Handle("GET /v1/patients/accessible",
		r.authed(h.HandleAccessible, httpx.ReadLimit, ScopeShareRead, ScopeShareWrite))
	r.Mux.Handle("GET /v1/patients/{id}/access",
		r.authed(h.HandleAccess, httpx.ReadLimit, ScopeShareRead, ScopeShareWrite))
	r.Mux.Handle("GET /v1/shared-with-me",
		r.authed(h.HandleSharedWithMe, httpx.ReadLimit, ScopeShareRead, ScopeShareWrite))
}

func (r *Router) registerShares() {
	h := &SharesHandler{Sharing: r.SharingService}

	r.Mux.Handle("GET /v1/patients/{id}/shares",
		r.authed(h.HandleList, httpx.ReadLimit, ScopeShareRead, ScopeShareWrite))
	r.Mux.Handle("PATCH /v1/patients/{id}/shares/{user_id}",
		r.authed(h.HandleUpdate, httpx.WriteLimit, ScopeShareWrite))
	r.Mux.Handle("DELETE /v1/patients/{id}/shares/{user_id}",
		r.authed(h.HandleRevoke, httpx.WriteLimit, ScopeShareWrite))
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{Invitations: r.InvitationService, Sharing: r.SharingService}

	r.Mux.Handle("POST /v1/patients/{id}/share-invitations",
		r.authed(h.HandleSend, httpx.WriteLimit, ScopeShareWrite))

	// Bulk sends touch up to fifty patients per call
	r.Mux.Handle("POST /v1/share-invitations/bulk",
		r.authed(h.HandleBulkSend, httpx.BulkLimit, ScopeShareWrite))

	r.Mux.Handle("GET /v1/invitations/pending",
		r.authed(h.HandlePending, httpx.ReadLimit, ScopeShareRead, ScopeShareWrite))
	r.Mux.Handle("GET /v1/invitations/sent",
		r.authed(h.HandleSent, httpx.ReadLimit, ScopeShareRead, ScopeShareWrite))

	// Accepting a bulk invitation writes one share per patient
	r.Mux.Handle("POST /v1/invitations/{id}/accept",
		r.authed(h.HandleAccept, httpx.BulkLimit, ScopeShareWrite))
	r.Mux.Handle("POST /v1/invitations/{id}/reject",
		r.authed(h.HandleReject, httpx.WriteLimit, ScopeShareWrite))
	r.Mux.Handle("POST /v1/invitations/{id}/cancel",
		r.authed(h.HandleCancel, httpx.WriteLimit, ScopeShareWrite))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Transfer: r.TransferService}

	r.Mux.Handle("POST /v1/admin/patients/{id}/transfer",
		r.authed(h.HandleTransfer, httpx.WriteLimit, ScopeAdminWrite))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
