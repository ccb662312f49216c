/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address for rate limiting and logs
  3. Logger:     zap request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Timeout:    Per-request deadline, propagated to the unit of work
  6. Secure:     Security headers (unrolled/secure)
  7. CORS:       Cross-origin requests for the front-desk UI
  8. RateLimit:  Per-IP request budget (httprate)
  9. Metrics:    Prometheus request counters and latencies

ROUTE GROUPS:
  /api/checkin, /api/checkout   Stay workflow
  /api/charges, /api/transactions   Ledger
  /api/rooms/*, /api/room-types/*   Inventory
  /api/guests/*, /api/loyalty/*     Guests and loyalty
  /api/reservations/*               Bookings
  /api/settings/tax                 Tax configuration
  /api/admin/*                      Destructive admin operations
  /api/scenarios/*                  Demo data
  /metrics                          Prometheus scrape endpoint

SECURITY NOTE:
  Caller identity comes from X-Actor-* headers and is trusted. Put the
  service behind an authenticating proxy in production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/warp/folio-engine/metrics"
)

// RouterConfig carries the middleware settings.
type RouterConfig struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	CORSOrigins    []string
	RateLimit      int // requests per minute per IP; 0 disables
	RequestTimeout time.Duration
	Production     bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Production,
	})

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match", headerActorID, headerActorRole},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.Limit(cfg.RateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			}),
		))
	}
	r.Use(cfg.Metrics.Middleware)

	r.Handle("/metrics", cfg.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", h.GetSnapshot)

		// Stay routes
		r.Post("/checkin", h.CheckIn)
		r.Post("/checkout", h.CheckOut)

		// Ledger routes
		r.Post("/charges", h.PostCharge)
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.PostTransaction)
			r.Delete("/{id}", h.ReverseTransaction)
		})

		// Inventory routes
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Post("/", h.CreateRoom)
			r.Delete("/{id}", h.DeleteRoom)
			r.Put("/{id}/status", h.SetRoomStatus)
		})
		r.Route("/room-types", func(r chi.Router) {
			r.Get("/", h.ListRoomTypes)
			r.Post("/", h.CreateRoomType)
			r.Delete("/{id}", h.DeleteRoomType)
		})

		// Guest routes
		r.Route("/guests", func(r chi.Router) {
			r.Get("/", h.ListGuests)
			r.Post("/", h.CreateGuest)
			r.Get("/{id}", h.GetGuest)
			r.Put("/{id}", h.UpdateGuest)
			r.Get("/{id}/folio", h.GetFolio)
			r.Get("/{id}/loyalty", h.GetLoyalty)
		})

		// Loyalty routes
		r.Route("/loyalty", func(r chi.Router) {
			r.Post("/earn", h.EarnPoints)
			r.Post("/redeem", h.RedeemPoints)
		})

		// Reservation routes
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Put("/{id}", h.UpdateReservation)
		})

		// Settings and admin routes
		r.Get("/settings/tax", h.GetTaxSettings)
		r.Put("/settings/tax", h.UpdateTaxSettings)
		r.Post("/admin/clear", h.ClearAll)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("request_id", requestID(r)),
			)
		})
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
