package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	donationapp "donation-server/internal/application/donation"
	eventlogapp "donation-server/internal/application/eventlog"
	ivrapp "donation-server/internal/application/ivr"
	smsapp "donation-server/internal/application/sms"
	"donation-server/internal/domain/eventlog"
	"donation-server/internal/domain/payment"
	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/infrastructure/persistence/memory"
	restmiddleware "donation-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockGateway モック決済ゲートウェイ
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

// testEnv 実際のサービス群をメモリ実装とモックゲートウェイで組み立てたもの
type testEnv struct {
	echo            *echo.Echo
	gateway         *MockGateway
	eventLogService *eventlogapp.EventLogApplicationService
	donationService *donationapp.DonationApplicationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	gw := new(MockGateway)
	eventLogService := eventlogapp.NewEventLogApplicationService(eventlog.NewRing(eventlog.DefaultCapacity, true), logger)
	donationService := donationapp.NewDonationApplicationService(gw, memory.NewDonationRepository(), eventLogService, logger, metrics)

	ivrCfg := &config.IVRConfig{
		Voice:          "man",
		FinishOnKey:    "#",
		InputTimeout:   10 * time.Second,
		ConfirmTimeout: 10 * time.Second,
		RetryTimeout:   5 * time.Second,
		RetryDigit:     "1",
		ReplayTokenTTL: time.Minute,
	}
	smsMachine := smsapp.NewMachine(memory.NewSessionStore(time.Hour), donationService, eventLogService, logger, metrics)
	ivrMachine := ivrapp.NewMachine(ivrCfg, memory.NewReplayGuard(time.Minute), donationService, eventLogService, logger, metrics)

	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))

	smsHandler := NewSMSHandler(smsMachine, logger)
	voiceHandler := NewVoiceHandler(ivrMachine, logger)
	adminHandler := NewAdminHandler(eventLogService, donationService)

	e.POST("/sms", smsHandler.HandleSMS)
	e.POST("/voice", voiceHandler.HandleEntry)
	e.POST("/voice/:stage", voiceHandler.HandleStage)
	e.GET("/api/v1/admin/events", adminHandler.ListEvents)
	e.GET("/api/v1/admin/donations", adminHandler.ListDonations)
	e.GET("/api/v1/admin/donations/:donation_id", adminHandler.GetDonation)

	return &testEnv{
		echo:            e,
		gateway:         gw,
		eventLogService: eventLogService,
		donationService: donationService,
	}
}

// postForm フォーム本文付きのPOSTを送る
func (env *testEnv) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}
