package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	adminBlockHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/admin_block"
	cancelReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/cancel_reservation"
	claimAssignmentHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/claim_assignment"
	confirmPaymentHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/confirm_payment"
	createReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/create_reservation"
	getAvailableAddonsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_available_addons"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_available_slots"
	getReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_reservation"
	getResourceScheduleHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_resource_schedule"
	getUserReservationsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_user_reservations"
	updateResourceStatusHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/update_resource_status"
	updateScheduleHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/config"
	"github.com/m04kA/SMC-ReservationService/internal/infra/cache/catalog"
	claimRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/claim"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	paymentsService "github.com/m04kA/SMC-ReservationService/internal/service/payments"
	reservationsService "github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	resourcesService "github.com/m04kA/SMC-ReservationService/internal/service/resources"
	adminBlockUC "github.com/m04kA/SMC-ReservationService/internal/usecase/admin_block"
	claimAssignmentUC "github.com/m04kA/SMC-ReservationService/internal/usecase/claim_assignment"
	createReservationUC "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
	getAvailableAddonsUC "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_addons"
	getAvailableSlotsUC "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ReservationService/internal/worker/sweeper"
	"github.com/m04kA/SMC-ReservationService/migrations"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

// eventPublisher остается nil-интерфейсом, если Kafka выключена
type eventPublisher interface {
	Publish(ctx context.Context, events ...notifier.Event) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены); без них все счетчики - no-op
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции
	if err := migrations.Run(db); err != nil {
		log.Fatal("Failed to apply migrations: %v", err)
	}
	log.Info("Database migrations applied")

	// Обертка с метриками; при выключенных метриках работает как есть
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB,
		txmanager.WithMaxRetries(cfg.Database.MaxTxRetries),
		txmanager.WithRetryObserver(metricsCollector),
	)

	// Redis для кэша каталога
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Кэш не обязателен: при промахах сервис читает из БД
		log.Warn("Redis is not reachable at %s, catalog cache will miss: %v", cfg.Redis.Addr, err)
	}
	pingCancel()
	catalogCache := catalog.NewRedisCache(redisClient).WithTTL(time.Duration(cfg.Redis.CacheTTL) * time.Second)

	// Kafka для уведомлений
	var (
		events      eventPublisher
		eventSender *notifier.Notifier
	)
	if cfg.Kafka.Enabled {
		writer := notifier.NewKafkaWriter(notifier.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: time.Duration(cfg.Kafka.BatchTimeout) * time.Millisecond,
		}, log)
		eventSender = notifier.New(writer, log)
		events = eventSender
		log.Info("Kafka notifier initialized (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		log.Warn("Kafka is disabled, notifications will not be sent")
	}

	// Платежный шлюз
	gateway := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:          cfg.PaymentGateway.BaseURL,
		APIKey:           cfg.PaymentGateway.APIKey,
		Timeout:          time.Duration(cfg.PaymentGateway.Timeout) * time.Second,
		FailureThreshold: cfg.PaymentGateway.FailureThreshold,
		OpenTimeout:      time.Duration(cfg.PaymentGateway.OpenTimeout) * time.Second,
	}, log)
	log.Info("Payment gateway client initialized (url=%s, timeout=%ds)",
		cfg.PaymentGateway.BaseURL, cfg.PaymentGateway.Timeout)

	// Ключ токенов предложений
	sealer, err := claimtoken.New(cfg.ClaimToken.Key)
	if err != nil {
		log.Fatal("Failed to initialize claim token sealer: %v", err)
	}

	// Инициализируем репозитории
	resourceRepository := resourceRepo.NewRepository(wrappedDB)
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	paymentRepository := paymentRepo.NewRepository(wrappedDB)
	claimRepository := claimRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	resourceSvc := resourcesService.NewService(resourceRepository, catalogCache, txMgr, log)
	detector := conflicts.NewDetector(reservationRepository, resourceRepository, log)
	reservationSvc := reservationsService.NewService(
		reservationRepository,
		paymentRepository,
		txMgr,
		events,
		metricsCollector,
		log,
		cfg.Reservation.AbandonAfter(),
	)
	paymentSvc := paymentsService.NewService(
		reservationRepository,
		paymentRepository,
		gateway,
		reservationSvc,
		txMgr,
		events,
		metricsCollector,
		log,
	)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		resourceSvc,
		detector,
		txMgr,
		getAvailableSlotsUC.Config{
			Granularity:             cfg.Reservation.Granularity(),
			MinBookingNoticeMinutes: cfg.Reservation.MinBookingNoticeMinutes,
		},
		log,
	)

	getAvailableAddonsUseCase := getAvailableAddonsUC.NewUseCase(
		resourceSvc,
		detector,
		txMgr,
		getAvailableAddonsUC.Config{
			Granularity:             cfg.Reservation.Granularity(),
			MinBookingNoticeMinutes: cfg.Reservation.MinBookingNoticeMinutes,
		},
		log,
	)

	createReservationUseCase := createReservationUC.NewUseCase(
		resourceSvc,
		detector,
		reservationRepository,
		resourceRepository,
		reservationSvc,
		paymentSvc,
		sealer,
		txMgr,
		events,
		metricsCollector,
		createReservationUC.Config{
			Granularity:             cfg.Reservation.Granularity(),
			MinBookingNoticeMinutes: cfg.Reservation.MinBookingNoticeMinutes,
			Currency:                cfg.Reservation.Currency,
			AbandonAfter:            cfg.Reservation.AbandonAfter(),
		},
		log,
	)

	claimAssignmentUseCase := claimAssignmentUC.NewUseCase(
		sealer,
		reservationRepository,
		resourceRepository,
		claimRepository,
		detector,
		reservationSvc,
		txMgr,
		events,
		metricsCollector,
		log,
	)

	adminBlockUseCase := adminBlockUC.NewUseCase(
		resourceSvc,
		detector,
		reservationRepository,
		txMgr,
		events,
		metricsCollector,
		log,
	)

	// Sweeper неоплаченных черновиков
	expirySweeper := sweeper.New(reservationRepository, paymentSvc, metricsCollector, log, sweeper.Config{
		Interval:     time.Duration(cfg.Sweeper.Interval) * time.Second,
		AbandonAfter: cfg.Reservation.AbandonAfter(),
		BatchSize:    cfg.Sweeper.BatchSize,
	})

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getAvailableAddons := getAvailableAddonsHandler.NewHandler(getAvailableAddonsUseCase, log)
	getResourceSchedule := getResourceScheduleHandler.NewHandler(resourceSvc, log)
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	confirmPayment := confirmPaymentHandler.NewHandler(reservationSvc, paymentSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(reservationSvc, paymentSvc, log)
	getUserReservations := getUserReservationsHandler.NewHandler(reservationSvc, log)
	claimAssignment := claimAssignmentHandler.NewHandler(claimAssignmentUseCase, log)
	adminBlock := adminBlockHandler.NewHandler(adminBlockUseCase, log)
	updateSchedule := updateScheduleHandler.NewHandler(resourceSvc, log)
	updateResourceStatus := updateResourceStatusHandler.NewHandler(resourceSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	api.HandleFunc("/resources/{resourceId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceId}/add-ons", getAvailableAddons.Handle).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceId}/schedule", getResourceSchedule.Handle).Methods(http.MethodGet)

	// Исполнитель идентифицируется токеном предложения
	api.HandleFunc("/offers/claim", claimAssignment.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}", cancelReservation.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/reservations/{reservationId}/payment/confirm", confirmPayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/users/{userId}/reservations", getUserReservations.Handle).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES (X-User-Role: admin)
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Auth, middleware.AdminOnly)

	admin.HandleFunc("/blocks", adminBlock.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/resources/{resourceId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)
	admin.HandleFunc("/resources/{resourceId}/status", updateResourceStatus.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Запускаем sweeper
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		expirySweeper.Run(sweeperCtx)
	}()
	log.Info("Expiry sweeper started (interval=%ds, abandon_after=%s)",
		cfg.Sweeper.Interval, cfg.Reservation.AbandonAfter())

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем sweeper и дожидаемся текущего прохода
	stopSweeper()
	workers.Wait()
	log.Info("Expiry sweeper stopped")

	// Дописываем очередь уведомлений
	if eventSender != nil {
		if err := eventSender.Close(); err != nil {
			log.Error("Failed to close Kafka writer: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
