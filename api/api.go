// Package api implements the Amador Flix HTTP API: auth, admin dashboard,
// video catalog, per-user engagement, PIX payments and the media proxies.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/amadorflix/amadorflix-server/auth"
	"github.com/amadorflix/amadorflix-server/database"
	"github.com/amadorflix/amadorflix-server/imageproxy"
	"github.com/amadorflix/amadorflix-server/search"
)

type Options struct {
	Repo   database.Repository
	Auth   *auth.Auth
	Search *search.Search
	Images *imageproxy.Proxy
	// WebhookSecret guards the PIX payment confirmation endpoint.
	WebhookSecret string
	// ProxyUserAgent is sent on upstream video fetches.
	ProxyUserAgent string
	// ProxyClient is the upstream client of the video byte-proxy. The
	// default client has no timeout: a slow origin stalls the request.
	ProxyClient *http.Client
}

type API struct {
	repo          database.Repository
	auth          *auth.Auth
	search        *search.Search
	images        *imageproxy.Proxy
	webhookSecret string
	proxyUA       string
	proxyClient   *http.Client
	// now is stubbed in tests
	now func() time.Time
}

const defaultProxyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func New(o *Options) *API {
	a := &API{
		repo:          o.Repo,
		auth:          o.Auth,
		search:        o.Search,
		images:        o.Images,
		webhookSecret: o.WebhookSecret,
		proxyUA:       o.ProxyUserAgent,
		proxyClient:   o.ProxyClient,
		now:           time.Now,
	}
	if a.proxyUA == "" {
		a.proxyUA = defaultProxyUserAgent
	}
	if a.proxyClient == nil {
		a.proxyClient = &http.Client{}
	}
	return a
}

func (a *API) RegisterHandlers(r *mux.Router) {
	gzip := handlers.CompressHandler

	// middleware for endpoints that need an authenticated session
	session := func(handler http.HandlerFunc) http.Handler {
		return gzip(a.sessionmiddleware(http.HandlerFunc(handler)))
	}

	r.Handle("/health", http.HandlerFunc(a.healthHandler))

	s := r.PathPrefix("/api/").Subrouter()

	s.Handle("/auth/register", gzip(http.HandlerFunc(a.registerHandler))).Methods("POST")
	s.Handle("/auth/login", gzip(http.HandlerFunc(a.loginHandler))).Methods("POST")

	s.Handle("/admin/check-status", session(a.adminCheckStatusHandler)).Methods("GET")
	s.Handle("/admin/set-admin", session(a.adminSetAdminHandler)).Methods("POST")
	s.Handle("/admin/stats", session(a.adminStatsHandler)).Methods("GET")
	s.Handle("/admin/users/recent", session(a.adminRecentUsersHandler)).Methods("GET")
	s.Handle("/admin/videos/recent", session(a.adminRecentVideosHandler)).Methods("GET")
	s.Handle("/admin/videos", session(a.adminCreateVideoHandler)).Methods("POST")
	s.Handle("/admin/videos/{id}", session(a.adminDeleteVideoHandler)).Methods("DELETE")

	s.Handle("/profile/history", session(a.profileHistoryHandler)).Methods("GET")
	s.Handle("/profile/liked-videos", session(a.profileLikedVideosHandler)).Methods("GET")
	s.Handle("/profile/favorites", session(a.profileFavoritesHandler)).Methods("GET")

	s.Handle("/videos", gzip(http.HandlerFunc(a.videosHandler))).Methods("GET")
	s.Handle("/videos/search", gzip(http.HandlerFunc(a.videosSearchHandler))).Methods("GET")
	s.Handle("/videos/{id}", gzip(http.HandlerFunc(a.videoHandler))).Methods("GET")
	s.Handle("/videos/{id}/favorite", session(a.videoFavoriteHandler)).Methods("POST")
	s.Handle("/videos/{id}/like", session(a.videoLikeHandler)).Methods("POST")
	s.Handle("/videos/{id}/history", session(a.videoHistoryHandler)).Methods("POST")

	s.Handle("/creators", gzip(http.HandlerFunc(a.creatorsHandler))).Methods("GET")
	s.Handle("/creators/{id}", gzip(http.HandlerFunc(a.creatorHandler))).Methods("GET")

	s.Handle("/payments/pix", session(a.paymentCreateHandler)).Methods("POST")
	s.Handle("/payments/pix/{txid}", session(a.paymentStatusHandler)).Methods("GET")
	s.HandleFunc("/payments/pix/{txid}/confirm", a.paymentConfirmHandler).Methods("POST")

	// Binary passthrough, never compressed.
	s.HandleFunc("/proxy/video", a.proxyVideoHandler).Methods("GET", "OPTIONS")
	s.HandleFunc("/proxy/image", a.proxyImageHandler).Methods("GET", "OPTIONS")
}

// GET /health
func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	serveJSON(map[string]string{"status": "ok"}, w)
}

func serveJSON(obj any, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	j := json.NewEncoder(w)
	j.SetIndent("", "  ")
	j.Encode(obj)
}

// serveJSONStatus writes obj with a non-200 status code.
func serveJSONStatus(obj any, w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	serveJSON(obj, w)
}
