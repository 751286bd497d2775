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

	allocationapp "hostledger/internal/allocation/application"
	allocationrepo "hostledger/internal/allocation/infrastructure/postgres"
	"hostledger/internal/allocation/infrastructure/pricing"
	allocationinterfaces "hostledger/internal/allocation/interfaces"
	apihttp "hostledger/internal/api/http"
	"hostledger/internal/audit"
	"hostledger/internal/auth"
	bookingapp "hostledger/internal/booking/application"
	bookingrepo "hostledger/internal/booking/infrastructure/postgres"
	bookinginterfaces "hostledger/internal/booking/interfaces"
	"hostledger/internal/calendarfeed/adapters/httpfeed"
	feedapp "hostledger/internal/calendarfeed/application"
	feedinterfaces "hostledger/internal/calendarfeed/interfaces"
	"hostledger/internal/config"
	costsapp "hostledger/internal/costs/application"
	costsrepo "hostledger/internal/costs/infrastructure/postgres"
	meteringapp "hostledger/internal/metering/application"
	meteringrepo "hostledger/internal/metering/infrastructure/postgres"
	"hostledger/internal/metering/interfaces/ingest"
	"hostledger/internal/observability/metrics"
	propertyrepo "hostledger/internal/property/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	propertyRepo := propertyrepo.NewPropertyRepository(db)
	bookingRepo := bookingrepo.NewBookingRepository(db)
	readingRepo := meteringrepo.NewReadingRepository(db)
	expenseRepo := costsrepo.NewExpenseRepository(db)
	cleaningRepo := costsrepo.NewCleaningRepository(db)
	allocationRepo := allocationrepo.NewAllocationRepository(db)
	owners := auth.NewPropertyChecker(propertyRepo)

	consumption, err := meteringapp.NewConsumptionService(readingRepo)
	if err != nil {
		logger.Fatalf("consumption service error: %v", err)
	}
	fixedCosts, err := costsapp.NewFixedCostAllocator(expenseRepo, bookingRepo)
	if err != nil {
		logger.Fatalf("fixed cost allocator error: %v", err)
	}
	priceProvider, err := pricing.NewPropertyPriceProvider(propertyRepo, cfg.Pricing.DefaultPricePer100Wh)
	if err != nil {
		logger.Fatalf("price provider error: %v", err)
	}

	publishers := allocationapp.MultiPublisher{allocationinterfaces.NewLoggingPublisher(logger)}
	if cfg.KafkaEnabled() {
		kafkaPublisher, err := allocationinterfaces.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Fatalf("kafka publisher error: %v", err)
		}
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		logger.Printf("allocation events: kafka topic=%s brokers=%v", cfg.Kafka.Topic, cfg.Kafka.Brokers)
	}

	calculator, err := allocationapp.NewProfitCalculator(
		allocationRepo,
		bookingRepo,
		consumption,
		fixedCosts,
		cleaningRepo,
		priceProvider,
		publishers,
		allocationapp.SystemClock{},
		logger,
	)
	if err != nil {
		logger.Fatalf("profit calculator error: %v", err)
	}
	runner, err := allocationapp.NewBatchRunner(bookingRepo, calculator, logger, allocationapp.WithBatchSize(cfg.Allocation.BatchSize))
	if err != nil {
		logger.Fatalf("batch runner error: %v", err)
	}
	allocationHandler, err := allocationinterfaces.NewHandler(calculator, runner, owners, auditRepo, logger)
	if err != nil {
		logger.Fatalf("allocation handler error: %v", err)
	}

	importer, err := feedapp.NewImporter(bookingRepo, logger,
		feedapp.WithLocation(cfg.FeedLocation()),
		feedapp.WithPropertyTimezones(propertyRepo),
		feedapp.WithFetcher(httpfeed.NewClient(httpfeed.WithTimeout(cfg.Feed.FetchTimeout))),
	)
	if err != nil {
		logger.Fatalf("feed importer error: %v", err)
	}
	feedHandler, err := feedinterfaces.NewHandler(importer, owners, auditRepo, logger)
	if err != nil {
		logger.Fatalf("feed handler error: %v", err)
	}

	bookingService, err := bookingapp.NewService(bookingRepo, nil)
	if err != nil {
		logger.Fatalf("booking service error: %v", err)
	}
	bookingHandler, err := bookinginterfaces.NewHandler(bookingService, owners, auditRepo, logger)
	if err != nil {
		logger.Fatalf("booking handler error: %v", err)
	}

	ingestHandler, err := ingest.NewHandler(readingRepo, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := allocationapp.NewScheduler(runner, cfg.Allocation.DailyAt, cfg.Allocation.Interval, logger)
	go scheduler.Start(ctx)

	router := apihttp.NewRouter(apihttp.Options{
		JWTSecret:     []byte(cfg.JWTSecret),
		IngestSecret:  []byte(cfg.IngestSecret),
		IngestMaxSkew: cfg.IngestMaxSkew,
		Logger:        logger,
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
	}, ingestHandler, allocationHandler, feedHandler, bookingHandler)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}
	logger.Printf("http server stopped")
}
