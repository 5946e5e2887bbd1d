package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"slotbook/internal/api"
	"slotbook/internal/auth"
	"slotbook/internal/cache"
	"slotbook/internal/repository"
	"slotbook/internal/schedule"
	"slotbook/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	hours := businessHours()

	availabilityCache := cache.NewMemory(cache.DefaultTTL, cache.DefaultSweepEvery)
	availabilityCache.Start()
	defer availabilityCache.Stop()

	bookingRepo := repository.NewBookingRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	jobRepo := repository.NewJobRepository(db)

	sender := service.NewSenderService()
	stripeSvc := service.NewStripeService(os.Getenv("STRIPE_SECRET_KEY"))

	availabilitySvc := service.NewAvailabilityService(bookingRepo, availabilityCache, hours)
	bookingSvc := service.NewBookingService(bookingRepo, serviceRepo, availabilityCache, sender, hours)
	catalogSvc := service.NewCatalogService(serviceRepo)
	paymentSvc := service.NewPaymentService(bookingRepo, paymentRepo, stripeSvc, sender)
	jobSvc := service.NewJobService(jobRepo, availabilityCache)

	availabilityHandler := api.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)
	serviceHandler := api.NewServiceHandler(catalogSvc)
	paymentHandler := api.NewPaymentHandler(paymentSvc)
	adminHandler := api.NewAdminHandler(bookingSvc, catalogSvc)
	webhookHandler := api.NewStripeWebhookHandler(os.Getenv("STRIPE_WEBHOOK_SECRET"), paymentSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/services", serviceHandler.ListServices).Methods("GET")
	r.HandleFunc("/api/availability", availabilityHandler.GetAvailability).Methods("GET")
	r.HandleFunc("/api/availability", availabilityHandler.BulkAvailability).Methods("POST")
	r.Handle("/api/availability", auth.AdminMiddleware(http.HandlerFunc(availabilityHandler.InvalidateCache))).Methods("DELETE")
	r.HandleFunc("/api/webhooks/stripe", webhookHandler.HandleWebhook).Methods("POST")

	// Authenticated endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.Middleware)
	user.HandleFunc("/bookings", bookingHandler.ListBookings).Methods("GET")
	user.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods("POST")
	user.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.UpdateBooking).Methods("PUT")
	user.HandleFunc("/bookings/{id}", bookingHandler.CancelBooking).Methods("DELETE")
	user.HandleFunc("/payments/create-intent", paymentHandler.CreateIntent).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminMiddleware)
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/services", adminHandler.CreateService).Methods("POST")
	admin.HandleFunc("/services/{id}", adminHandler.UpdateService).Methods("PUT")

	c := cron.New()
	c.AddFunc("@every 1m", func() {
		if err := jobSvc.AdvanceStartedBookings(); err != nil {
			log.Printf("%v", err)
		}
		if err := jobSvc.CompleteFinishedBookings(); err != nil {
			log.Printf("%v", err)
		}
	})
	c.AddFunc("@every 30m", func() {
		if err := jobSvc.CancelStalePending(24 * time.Hour); err != nil {
			log.Printf("%v", err)
		}
	})
	c.Start()
	defer c.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{corsOrigin}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handlers.LoggingHandler(os.Stdout, cors(r)),
	}

	go func() {
		log.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func businessHours() schedule.Hours {
	hours := schedule.DefaultHours
	if raw := os.Getenv("BUSINESS_OPEN_HOUR"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			hours.OpenHour = v
		}
	}
	if raw := os.Getenv("BUSINESS_CLOSE_HOUR"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			hours.CloseHour = v
		}
	}
	if hours.CloseHour <= hours.OpenHour {
		log.Fatalf("Invalid business hours: open %d, close %d", hours.OpenHour, hours.CloseHour)
	}
	return hours
}
