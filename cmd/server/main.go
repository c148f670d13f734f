package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"smartpark/internal/api"
	"smartpark/internal/auth"
	"smartpark/internal/clock"
	"smartpark/internal/config"
	"smartpark/internal/db"
	"smartpark/internal/lock"
	"smartpark/internal/pricing"
	"smartpark/internal/queue"
	"smartpark/internal/repository"
	"smartpark/internal/service"
	"smartpark/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := migrations.Apply(ctx, conn); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	refundMethod, err := db.ParseRefundMethod(cfg.DefaultRefundMethod)
	if err != nil {
		log.Fatalf("DEFAULT_REFUND_METHOD: %v", err)
	}

	clk := clock.NewSystem()
	reservationRepo := repository.NewReservationRepository(conn)
	paymentRepo := repository.NewPaymentRepository(conn)
	slotRepo := repository.NewSlotRepository(conn)
	userRepo := repository.NewUserRepository(conn)

	var locker lock.SlotLocker = lock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.SlotLockTTL)
		log.Printf("Using Redis slot locks at %s", cfg.RedisAddr)
	}

	sender := service.NewSenderService(userRepo, mailer(cfg), smsSender(cfg), cfg.PricingTimezone)
	publisher, err := newPublisher(ctx, cfg, sender)
	if err != nil {
		log.Fatalf("Failed to set up event publisher: %v", err)
	}
	defer publisher.Close()

	subs := service.NewSubscriptionService(userRepo, clk)
	reservations := service.NewReservationService(reservationRepo, paymentRepo, slotRepo, subs,
		service.WithClock(clk),
		service.WithLocker(locker),
		service.WithEvents(publisher),
		service.WithPricingEngine(pricing.NewEngine(pricing.WithLocation(cfg.PricingTimezone))),
		service.WithPaymentDefaults(cfg.Currency, cfg.DefaultPaymentMethod),
		service.WithDefaultRefundMethod(refundMethod),
	)

	adminAuth := service.NewAdminAuthService(repository.NewAdminAuthRepository(conn), cfg.JWTSecret, cfg.AdminTokenTTL, clk)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := adminAuth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		if created {
			log.Printf("Admin %s created", cfg.AdminEmail)
		}
	}

	jobs := service.NewJobService(repository.NewJobRepository(conn), paymentRepo, cfg.Currency, cfg.DefaultPaymentMethod, clk)
	c := cron.New()
	if _, err := jobs.Register(c, cfg.ReconcileCron); err != nil {
		log.Fatalf("Cron setup failed: %v", err)
	}
	c.Start()
	defer c.Stop()

	router := api.NewRouter(api.Handlers{
		Reservations: api.NewUserReservationHandler(reservations, reservations.Availability()),
		Admin:        api.NewAdminHandler(service.NewAdminService(repository.NewAdminRepository(conn)), cfg.PricingTimezone),
		AdminAuth:    api.NewAdminAuthHandler(adminAuth),
	}, auth.NewMiddleware(cfg.JWTSecret), api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.CombinedLoggingHandler(os.Stdout, cors(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	log.Printf("Server running on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// newPublisher picks the event transport. Without a broker, events are handed straight to the
// notification sender; with AMQP a consumer in this process drains the queue.
func newPublisher(ctx context.Context, cfg config.Config, sender *service.SenderService) (queue.Publisher, error) {
	switch cfg.EventsBroker {
	case "amqp":
		go func() {
			if err := queue.Consume(ctx, cfg.RabbitMQURL, queue.DefaultQueueName, sender.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Event consumer stopped: %v", err)
			}
		}()
		return queue.NewAMQPPublisher(cfg.RabbitMQURL, queue.DefaultQueueName), nil
	case "kafka":
		kp, err := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		return queue.Fanout{kp, queue.NewDirectPublisher(sender.HandleEvent)}, nil
	}
	return queue.NewDirectPublisher(sender.HandleEvent), nil
}

// The constructors return typed nils when unconfigured; keep the interface itself nil.
func mailer(cfg config.Config) service.Mailer {
	if m := service.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName); m != nil {
		return m
	}
	return nil
}

func smsSender(cfg config.Config) service.SMSSender {
	if s := service.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber); s != nil {
		return s
	}
	return nil
}
