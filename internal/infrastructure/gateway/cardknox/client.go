package cardknox

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"donation-server/internal/domain/donation"
	"donation-server/internal/domain/payment"
	"donation-server/internal/infrastructure/config"
)

// resultApproved 承認を表すxResultの値
const resultApproved = "A"

// saleRequest ゲートウェイへ送るJSON
type saleRequest struct {
	Key             string `json:"xKey"`
	Version         string `json:"xVersion"`
	SoftwareName    string `json:"xSoftwareName"`
	SoftwareVersion string `json:"xSoftwareVersion"`
	Command         string `json:"xCommand"`
	Amount          string `json:"xAmount"`
	CardNum         string `json:"xCardNum"`
	Exp             string `json:"xExp"`
	CVV             string `json:"xCVV"`
	Zip             string `json:"xZip"`
	Phone           string `json:"xPhone"`
}

// saleResponse ゲートウェイから返るJSON
type saleResponse struct {
	Result    string `json:"xResult"`
	Status    string `json:"xStatus"`
	Error     string `json:"xError"`
	ErrorCode string `json:"xErrorCode"`
	RefNum    string `json:"xRefNum"`
	AuthCode  string `json:"xAuthCode"`
}

// Client Cardknox JSONゲートウェイのクライアント
type Client struct {
	cfg    *config.GatewayConfig
	client *fasthttp.Client
	tracer trace.Tracer
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.GatewayConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &fasthttp.Client{
			Name:                "donation-server",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		tracer: otel.Tracer("cardknox-client"),
	}
}

// Charge 売上リクエストを1回だけ送信する
func (c *Client) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	ctx, span := c.tracer.Start(ctx, "cardknox.Charge", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("donation.amount", req.Amount),
		attribute.String("card.last4", donation.CardLast4(req.CardNumber)),
	)

	payload, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to marshal sale request: %w", err)
	}

	httpReq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(httpReq)
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(c.cfg.Endpoint)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.SetBody(payload)

	if err := c.client.DoDeadline(httpReq, httpResp, c.deadline(ctx)); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode()))

	var parsed saleResponse
	if err := json.Unmarshal(httpResp.Body(), &parsed); err != nil {
		// 応答本文が解釈できない場合は未承認として扱い、区別できるよう印を付ける
		span.SetAttributes(attribute.String("gateway.result", "unparsable"))
		return &payment.ChargeResult{
			Approved:   false,
			Reason:     fmt.Sprintf("unparsable gateway response (status %d)", httpResp.StatusCode()),
			Unparsable: true,
		}, nil
	}

	span.SetAttributes(attribute.String("gateway.result", parsed.Result))

	if parsed.Result != resultApproved {
		return &payment.ChargeResult{
			Approved: false,
			Reason:   declineReason(&parsed),
		}, nil
	}

	return &payment.ChargeResult{
		Approved:        true,
		ReferenceNumber: parsed.RefNum,
	}, nil
}

// buildRequest 固定のクライアント識別情報と取引項目からリクエストを組み立てる
func (c *Client) buildRequest(req *payment.ChargeRequest) *saleRequest {
	return &saleRequest{
		Key:             c.cfg.APIKey,
		Version:         c.cfg.Version,
		SoftwareName:    c.cfg.SoftwareName,
		SoftwareVersion: c.cfg.SoftwareVersion,
		Command:         c.cfg.Command,
		Amount:          req.Amount,
		CardNum:         req.CardNumber,
		Exp:             req.Expiry,
		CVV:             req.CVV,
		Zip:             req.ZIP,
		Phone:           donation.DigitsOnly(req.Phone),
	}
}

// deadline 設定のタイムアウトとcontextの期限のうち早い方を返す
func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func declineReason(r *saleResponse) string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Status != "":
		return r.Status
	case r.Result != "":
		return "result " + r.Result
	default:
		return "missing result"
	}
}
