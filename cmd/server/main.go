package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tapn/booking-service/internal/config"
	"github.com/tapn/booking-service/internal/database"
	"github.com/tapn/booking-service/internal/handler"
	"github.com/tapn/booking-service/internal/limiter"
	"github.com/tapn/booking-service/internal/payment"
	"github.com/tapn/booking-service/internal/queue"
	"github.com/tapn/booking-service/internal/repository"
	"github.com/tapn/booking-service/internal/router"
	"github.com/tapn/booking-service/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var rl limiter.Limiter
	switch {
	case !rlCfg.Enabled:
		log.Println("rate limiter: disabled")
	default:
		if rdb := config.NewRedisClient(); rdb != nil {
			rl = limiter.NewRedis(rdb, rlCfg.MaxRequests, rlCfg.Window, rlCfg.Prefix)
			log.Println("rate limiter: redis sliding window")
		} else {
			rl = limiter.NewMemory(rlCfg.MaxRequests, rlCfg.Window)
			log.Println("rate limiter: in-memory fallback")
		}
	}

	bookings := repository.NewBookingRepo(db)
	venues := repository.NewVenueRepo(db)
	checker := service.NewAvailabilityChecker(bookings)
	events := queue.Publisher{}

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeCurrency)
	bookingSvc := service.NewBookingService(bookings, venues, checker, events)
	bookingSvc.Refunds = gateway
	paymentFlow := service.NewPaymentFlow(bookings, checker, gateway, events)

	bh := handler.NewBookingHandler(bookingSvc, paymentFlow)
	ph := handler.NewPartnerHandler(bookingSvc)
	ah := handler.NewAdminHandler(bookingSvc)

	go queue.StartConsumers()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	router.RegisterPublic(e, bh, db, cfg.JWTSecret, rl, rlCfg.Prefix)
	router.RegisterUser(e, bh, cfg.JWTSecret)
	router.RegisterPartner(e, ph, cfg.JWTSecret)
	router.RegisterAdmin(e, ah, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
