package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"campus-marketplace/internal/config"
	"campus-marketplace/internal/database"
	"campus-marketplace/internal/notifications"
	"campus-marketplace/internal/repositories"
	"campus-marketplace/internal/server"
	"campus-marketplace/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	if err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   cfg.Server.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}

	var notifier services.NotificationSink
	if cfg.AMQP.URL != "" {
		sink, err := notifications.NewAMQPSink(cfg.AMQP.URL)
		if err != nil {
			log.Fatal("Failed to connect to notification broker:", err)
		}
		defer sink.Close()
		notifier = sink
		log.Println("Notification broker connected")
	} else {
		log.Println("AMQP_URL not set, logging notifications instead")
		notifier = notifications.NewLogSink()
	}

	cartRepo := repositories.NewCartRepository(db.DB)
	orderRepo := repositories.NewOrderRepository(db.DB)
	itemRepo := repositories.NewItemRepository(db.DB)

	gateway := services.NewPromptPayService(services.PromptPayConfig{
		SecretKey:   cfg.PromptPay.SecretKey,
		Environment: cfg.PromptPay.Environment,
		CallbackURL: cfg.PromptPay.CallbackURL,
	})

	cartService := services.NewCartService(cartRepo, itemRepo)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, itemRepo, notifier)
	orderService := services.NewOrderService(orderRepo, notifier)
	paymentService := services.NewPaymentService(orderRepo, gateway, notifier)

	go sweepExpiredCarts(cartService, cfg.Cart.ExpiryWindow, cfg.Cart.SweepInterval)

	router := server.NewRouter(server.Deps{
		SessionStore:    sessionStore,
		CartService:     cartService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		PaymentService:  paymentService,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on http://%s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("Server failed:", err)
	}
}

func sweepExpiredCarts(cartService *services.CartService, window, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cartService.CleanupExpiredCarts(window)
	}
}
