package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "donation-server/internal/application/auth"
	donationapp "donation-server/internal/application/donation"
	eventlogapp "donation-server/internal/application/eventlog"
	ivrapp "donation-server/internal/application/ivr"
	smsapp "donation-server/internal/application/sms"
	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/ivr"
	"donation-server/internal/infrastructure/config"
	"donation-server/internal/infrastructure/gateway/cardknox"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/infrastructure/persistence/memory"
	"donation-server/internal/infrastructure/persistence/mysql"
	redisstore "donation-server/internal/infrastructure/persistence/redis"
	grpcserver "donation-server/internal/presentation/grpc"
	"donation-server/internal/presentation/rest"
)

// sessionSweepInterval 期限切れSMSセッションを掃除する間隔
const sessionSweepInterval = time.Minute

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	otelShutdown, err := otelinfra.Setup(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown OpenTelemetry: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("donation-server")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("donation-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 寄付台帳の初期化（DB無効時はメモリ上に保持）
	var ledger donation.DonationRepository = memory.NewDonationRepository()
	if cfg.Database.Enabled {
		db, err := mysql.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
		ledger = mysql.NewDonationRepository(db)
	}

	// 再送防止トークンの保存先（Redis無効時はプロセス内）
	var guard ivr.ReplayGuard = memory.NewReplayGuard(cfg.IVR.ReplayTokenTTL)
	if cfg.Redis.Enabled {
		client, err := redisstore.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		guard = redisstore.NewReplayGuard(client, cfg.IVR.ReplayTokenTTL)
	}

	// SMSセッションはプロセス内のみで保持する
	sessions := memory.NewSessionStore(cfg.SMS.SessionTTL)
	go sessions.RunSweeper(ctx, sessionSweepInterval)

	// アプリケーションサービスの初期化
	eventLogService := eventlogapp.NewEventLogApplicationService(
		eventlog.NewRing(cfg.EventLog.Capacity, cfg.EventLog.Redact),
		logger,
	)
	donationService := donationapp.NewDonationApplicationService(
		cardknox.NewClient(&cfg.Gateway),
		ledger,
		eventLogService,
		logger,
		metrics,
	)
	smsMachine := smsapp.NewMachine(sessions, donationService, eventLogService, logger, metrics)
	ivrMachine := ivrapp.NewMachine(&cfg.IVR, guard, donationService, eventLogService, logger, metrics)
	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, &rest.Services{
		SMS:      smsMachine,
		IVR:      ivrMachine,
		Donation: donationService,
		EventLog: eventLogService,
		Auth:     authService,
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger, grpcserver.Services{
		EventLog: eventLogService,
		Donation: donationService,
	})
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address":           address,
			"signature_enabled": cfg.Twilio.SignatureEnabled(),
			"ledger":            ledgerKind(cfg),
		})
		if err := router.Start(address); err != nil {
			logger.Error(ctx, "REST API server error", err, nil)
			requestShutdown(quit)
		}
	}()

	// gRPCサーバーを別ゴルーチンで起動
	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Error(ctx, "gRPC server error", err, nil)
			requestShutdown(quit)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down servers...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}

	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		log.Printf("Error shutting down gRPC server: %v", err)
	}

	log.Println("Servers stopped")
}

// requestShutdown サーバーの異常終了時にシャットダウンを開始する
func requestShutdown(quit chan<- os.Signal) {
	select {
	case quit <- syscall.SIGTERM:
	default:
	}
}

func ledgerKind(cfg *config.Config) string {
	if cfg.Database.Enabled {
		return "mysql"
	}
	return "memory"
}
