package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/veststore/internal/api/middleware"
	"github.com/example/veststore/internal/auth"
)

// RouterConfig bundles the dependencies the router wires together.
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	h := cfg.Handlers
	authn := middleware.AuthMiddleware(cfg.JWTService)
	admin := func(next http.Handler) http.Handler {
		return authn(middleware.RequireRole("admin")(next))
	}

	// Auth
	mux.HandleFunc("/auth/register", methodHandler(http.MethodPost, cfg.AuthHandlers.Register))
	mux.HandleFunc("/auth/login", methodHandler(http.MethodPost, cfg.AuthHandlers.Login))
	mux.HandleFunc("/auth/refresh", methodHandler(http.MethodPost, cfg.AuthHandlers.Refresh))
	mux.HandleFunc("/auth/logout", methodHandler(http.MethodPost, cfg.AuthHandlers.Logout))
	mux.Handle("/auth/me", authn(methodHandler(http.MethodGet, cfg.AuthHandlers.Me)))

	// Products; reads are public, writes are admin only
	mux.Handle("/products", routeByMethod(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(h.ListProducts),
		http.MethodPost: admin(http.HandlerFunc(h.CreateProduct)),
	}))
	mux.Handle("/products/low-stock", admin(methodHandler(http.MethodGet, h.ListLowStockProducts)))
	mux.Handle("/products/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/stock") && r.Method == http.MethodPost:
			admin(http.HandlerFunc(h.AdjustStock)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/movements") && r.Method == http.MethodGet:
			admin(http.HandlerFunc(h.ListStockMovements)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			h.GetProduct(w, r)
		case r.Method == http.MethodPut:
			admin(http.HandlerFunc(h.UpdateProduct)).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			admin(http.HandlerFunc(h.DeleteProduct)).ServeHTTP(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Categories
	mux.Handle("/categories", routeByMethod(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(h.ListCategories),
		http.MethodPost: admin(http.HandlerFunc(h.CreateCategory)),
	}))

	// Stock alerts
	mux.Handle("/alerts", admin(methodHandler(http.MethodGet, h.ListStockAlerts)))

	// Cart
	mux.Handle("/cart", authn(routeByMethod(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(h.GetCart),
		http.MethodDelete: http.HandlerFunc(h.ClearCart),
	})))
	mux.Handle("/cart/items", authn(routeByMethod(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(h.AddToCart),
		http.MethodGet:  http.HandlerFunc(h.ListCartItemsByStatus),
	})))
	mux.Handle("/cart/items/", authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPost:
			h.TransitionCartItem(w, r)
		case r.Method == http.MethodPut:
			h.UpdateCartItemQuantity(w, r)
		case r.Method == http.MethodDelete:
			h.RemoveCartItem(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/cart/checkout", authn(methodHandler(http.MethodPost, h.Checkout)))

	// Orders
	mux.Handle("/orders", authn(routeByMethod(map[string]http.Handler{
		http.MethodGet:  middleware.RequireRole("admin")(http.HandlerFunc(h.ListOrders)),
		http.MethodPost: http.HandlerFunc(h.CreateOrder),
	})))
	mux.Handle("/orders/user", authn(methodHandler(http.MethodGet, h.ListUserOrders)))
	mux.Handle("/orders/user/status/", authn(methodHandler(http.MethodGet, h.ListUserOrdersByStatus)))
	mux.Handle("/orders/status/", admin(methodHandler(http.MethodGet, h.ListOrdersByStatus)))
	mux.Handle("/orders/", authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/validate") && r.Method == http.MethodPost:
			middleware.RequireRole("admin")(http.HandlerFunc(h.ValidateOrder)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/ship") && r.Method == http.MethodPost:
			middleware.RequireRole("admin")(http.HandlerFunc(h.ShipOrder)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/deliver") && r.Method == http.MethodPost:
			middleware.RequireRole("admin")(http.HandlerFunc(h.DeliverOrder)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPost:
			middleware.RequireRole("admin")(http.HandlerFunc(h.TransitionOrder)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			h.CancelOrder(w, r)
		case r.Method == http.MethodGet:
			h.GetOrder(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return withLogging(mux)
}

func methodHandler(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}

func routeByMethod(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.Method]
		if !ok {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
