package rest

import (
	"context"
	"errors"
	"net/http"

	authapp "donation-server/internal/application/auth"
	donationapp "donation-server/internal/application/donation"
	eventlogapp "donation-server/internal/application/eventlog"
	ivrapp "donation-server/internal/application/ivr"
	smsapp "donation-server/internal/application/sms"
	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/presentation/rest/handler"
	restmiddleware "donation-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Services ルーターが呼び出すアプリケーション層
type Services struct {
	SMS      *smsapp.Machine
	IVR      *ivrapp.Machine
	Donation *donationapp.DonationApplicationService
	EventLog *eventlogapp.EventLogApplicationService
	Auth     *authapp.AuthApplicationService
}

// Router REST APIルーター
type Router struct {
	echo *echo.Echo
	cfg  *config.ServerConfig
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services *Services,
) (*Router, error) {
	if services == nil || services.SMS == nil || services.IVR == nil ||
		services.Donation == nil || services.EventLog == nil || services.Auth == nil {
		return nil, errors.New("all application services are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	setupMiddleware(e, logger, metrics)

	setupRoutes(e, cfg, logger, routeHandlers{
		page:  handler.NewPageHandler(),
		sms:   handler.NewSMSHandler(services.SMS, logger),
		voice: handler.NewVoiceHandler(services.IVR, logger),
		admin: handler.NewAdminHandler(services.EventLog, services.Donation),
		auth:  handler.NewAuthHandler(services.Auth),
	})

	// Swagger UI / ReDoc統合
	if err := SetupSwagger(e); err != nil {
		return nil, err
	}

	return &Router{
		echo: e,
		cfg:  &cfg.Server,
	}, nil
}

// routeHandlers ルーティングに登録するハンドラー群
type routeHandlers struct {
	page  *handler.PageHandler
	sms   *handler.SMSHandler
	voice *handler.VoiceHandler
	admin *handler.AdminHandler
	auth  *handler.AuthHandler
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, restmiddleware.HeaderAPIKey,
		},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.LoggingMiddleware(logger))
	if metrics != nil {
		e.Use(restmiddleware.MetricsMiddleware(metrics))
	}
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, h routeHandlers) {
	// 公開ページ（認証不要）
	e.GET("/", h.page.Root)
	e.GET("/donate", h.page.Donate)
	e.GET("/health", h.page.Health)

	// Twilio Webhook（ルート単位で署名を検証する）
	signature := restmiddleware.TwilioSignatureMiddleware(&cfg.Twilio, logger)
	e.POST("/sms", h.sms.HandleSMS, signature)
	e.POST("/voice", h.voice.HandleEntry, signature)
	e.POST("/voice/:stage", h.voice.HandleStage, signature)

	api := e.Group("/api/v1")

	// 管理APIキーと引き換えに運用者トークンを発行
	api.POST("/auth/token", h.auth.GenerateToken, restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))

	// 運用者トークンが必要なエンドポイント
	admin := api.Group("/admin", restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	admin.GET("/events", h.admin.ListEvents)
	admin.GET("/donations", h.admin.ListDonations)
	admin.GET("/donations/:donation_id", h.admin.GetDonation)
}

// Handler テストや組み込み用にhttp.Handlerを返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	server := &http.Server{
		Addr:         address,
		ReadTimeout:  r.cfg.ReadTimeout,
		WriteTimeout: r.cfg.WriteTimeout,
		IdleTimeout:  r.cfg.IdleTimeout,
	}
	if err := r.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
