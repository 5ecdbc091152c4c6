package payment

import "errors"

var (
	// ErrGatewayUnavailable ゲートウェイから応答が得られなかった
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
