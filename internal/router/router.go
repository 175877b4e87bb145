package router

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/telemetry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const apiPrefix = "/api/v1"

// Handlers groups the resource handlers mounted under /api/v1.
type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
}

// Options configures the outer surface of the router. Zero values disable
// the corresponding feature.
type Options struct {
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Metrics        http.Handler
	UploadsDir     string
	HealthCheck    func(ctx context.Context) error
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, tokens *auth.TokenManager, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, next http.Handler) {
		mux.Handle(pattern, telemetry.WithHTTPRoute(next))
	}
	user := func(fn http.HandlerFunc) http.Handler { return middleware.RequireAuth(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return middleware.RequireAdmin(logger)(fn) }

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", healthHandler(opts.HealthCheck, logger))
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.UploadsDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
	}

	// Accounts
	handle("POST "+apiPrefix+"/auth/register", http.HandlerFunc(h.Auth.Register))
	handle("POST "+apiPrefix+"/auth/login", http.HandlerFunc(h.Auth.Login))
	handle("POST "+apiPrefix+"/auth/logout", http.HandlerFunc(h.Auth.Logout))
	handle("POST "+apiPrefix+"/auth/forgot-password", http.HandlerFunc(h.Auth.ForgotPassword))
	handle("POST "+apiPrefix+"/auth/reset-password/{token}", http.HandlerFunc(h.Auth.ResetPassword))
	handle("GET "+apiPrefix+"/auth/get-profile", user(h.Auth.GetProfile))
	handle("PUT "+apiPrefix+"/auth/update-profile", user(h.Auth.UpdateProfile))
	handle("PUT "+apiPrefix+"/auth/change-password", user(h.Auth.ChangePassword))

	// Catalogue
	handle("GET "+apiPrefix+"/product", http.HandlerFunc(h.Product.GetAll))
	handle("GET "+apiPrefix+"/product/filter", http.HandlerFunc(h.Product.Filter))
	handle("GET "+apiPrefix+"/product/{id}", http.HandlerFunc(h.Product.GetByID))
	handle("POST "+apiPrefix+"/product/create", admin(h.Product.Create))
	handle("PUT "+apiPrefix+"/product/update/{id}", admin(h.Product.Update))
	handle("DELETE "+apiPrefix+"/product/delete/{id}", admin(h.Product.Delete))

	// Cart
	handle("POST "+apiPrefix+"/cart/add", user(h.Cart.Add))
	handle("GET "+apiPrefix+"/cart", user(h.Cart.Get))
	handle("PUT "+apiPrefix+"/cart/update-cart/{itemId}", user(h.Cart.Update))
	handle("DELETE "+apiPrefix+"/cart/delete-cart/{id}", user(h.Cart.Delete))

	// Orders
	handle("POST "+apiPrefix+"/order/create-order", user(h.Order.Create))
	handle("GET "+apiPrefix+"/order", user(h.Order.List))
	handle("GET "+apiPrefix+"/order/{orderId}", user(h.Order.GetByID))
	handle("PUT "+apiPrefix+"/order/update-status/{orderId}", admin(h.Order.UpdateStatus))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"` + model.ErrCodeNotFound + `","message":"Route not found"}`))
	})

	// Apply middleware in order: Recovery -> Tracing -> Logging -> CORS -> Authenticate -> RateLimit
	var handler http.Handler = mux
	if opts.Limiter != nil {
		handler = opts.Limiter.Middleware(handler)
	}
	handler = middleware.Authenticate(tokens, logger)(handler)
	handler = middleware.CORS(opts.AllowedOrigins)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = otelhttp.NewHandler(handler, "storefront")
	handler = middleware.Recovery(logger)(handler)

	return handler
}

func healthHandler(check func(ctx context.Context) error, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Warn().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","message":"Database unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","message":"OK"}`))
	}
}
