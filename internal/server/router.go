package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"campus-marketplace/internal/handlers"
	"campus-marketplace/internal/middleware"
	"campus-marketplace/internal/services"
)

// Deps collects everything the HTTP surface needs
type Deps struct {
	SessionStore    sessions.Store
	CartService     services.CartServiceInterface
	CheckoutService services.CheckoutServiceInterface
	OrderService    services.OrderServiceInterface
	PaymentService  services.PaymentServiceInterface
}

// NewRouter assembles the public API
func NewRouter(deps Deps) *chi.Mux {
	cartHandler := handlers.NewCartHandler(deps.CartService)
	checkoutHandler := handlers.NewCheckoutHandler(deps.CheckoutService)
	orderHandler := handlers.NewOrderHandler(deps.OrderService)
	paymentHandler := handlers.NewPaymentHandler(deps.PaymentService)

	auth := middleware.NewSessionAuth(deps.SessionStore)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging)
	r.Use(auth.LoadUser)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// The gateway calls the webhook unauthenticated
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Put("/", cartHandler.Sync)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{itemID}", cartHandler.UpdateItem)
			r.Delete("/items/{itemID}", cartHandler.RemoveItem)
		})

		r.Post("/api/checkout", checkoutHandler.Checkout)

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/purchases", orderHandler.ListPurchases)
			r.Get("/sales", orderHandler.ListSales)

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", orderHandler.GetOrder)
				r.Post("/confirm", orderHandler.Confirm)
				r.Post("/reject", orderHandler.Reject)
				r.Post("/cancel", orderHandler.Cancel)
				r.Post("/received", orderHandler.MarkReceived)
				r.Post("/delivered", orderHandler.MarkDelivered)
				r.Post("/payment", paymentHandler.Initiate)
				r.Post("/payment/notice", paymentHandler.SubmitNotice)
			})
		})
	})

	return r
}
