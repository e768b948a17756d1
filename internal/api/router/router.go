package router

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/api/handler"
	m "github.com/Dafoe17/retail-platform-backend/internal/api/middleware"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Server struct {
	HealthHandler  *handler.HealthHandler
	AuthHandler    *handler.AuthHandler
	CatalogHandler *handler.CatalogHandler
	CartHandler    *handler.CartHandler
	OrderHandler   *handler.OrderHandler
}

// SetupRouter limiter 為 nil 時不限流
func SetupRouter(server *Server, auth m.Authenticator, limiter ratelimit.Limiter, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.AuthPayloadMiddleware(auth))
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware)
	r.Use(m.TracingMiddleware)
	if limiter != nil {
		r.Use(m.NewRateLimitMiddleware(limiter))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", server.HealthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", server.AuthHandler.Register)
			r.Post("/login", server.AuthHandler.Login)
			r.Post("/refresh", server.AuthHandler.Refresh)
			r.Post("/logout", server.AuthHandler.Logout)
			r.With(m.AuthMiddleware).Get("/me", server.AuthHandler.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", server.CatalogHandler.ListProducts)
			r.Get("/{id}", server.CatalogHandler.GetProduct)
			r.Group(func(r chi.Router) {
				r.Use(m.AdminMiddleware)
				r.Post("/", server.CatalogHandler.CreateProduct)
				r.Put("/{id}", server.CatalogHandler.UpdateProduct)
				r.Delete("/{id}", server.CatalogHandler.DeactivateProduct)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", server.CatalogHandler.ListCategories)
			r.Get("/{id}/children", server.CatalogHandler.ListCategoryChildren)
			r.Group(func(r chi.Router) {
				r.Use(m.AdminMiddleware)
				r.Post("/", server.CatalogHandler.CreateCategory)
				r.Put("/{id}/parent", server.CatalogHandler.SetCategoryParent)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.With(m.AuthMiddleware).Post("/checkout", server.CartHandler.Checkout)
			r.Group(func(r chi.Router) {
				r.Use(m.CartSessionMiddleware)
				r.Get("/", server.CartHandler.GetCart)
				r.Delete("/", server.CartHandler.Clear)
				r.Post("/items", server.CartHandler.AddItem)
				r.Put("/items/{id}", server.CartHandler.UpdateItem)
				r.Delete("/items/{id}", server.CartHandler.RemoveItem)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(m.AuthMiddleware)
			r.Get("/", server.OrderHandler.ListOrders)
			// 與 /cart/checkout 相同, 由購物車建立訂單
			r.Post("/", server.CartHandler.Checkout)
			r.Get("/{id}", server.OrderHandler.GetOrder)
			r.Post("/{id}/cancel", server.OrderHandler.Cancel)
			r.With(m.AdminMiddleware).Put("/{id}/status", server.OrderHandler.UpdateStatus)
		})
	})
	return r
}
