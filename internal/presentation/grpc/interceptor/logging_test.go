package interceptor

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	interceptor := LoggingInterceptor(newTestLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/donation.admin.v1.EventLogService/ListEvents"}

	t.Run("正常系: 成功", func(t *testing.T) {
		buf.Reset()
		resp, err := interceptor(context.Background(), nil, info, okHandler)
		assert.NoError(t, err)
		assert.Equal(t, "success", resp)
		assert.Contains(t, buf.String(), "gRPC call completed")
		assert.Contains(t, buf.String(), "/donation.admin.v1.EventLogService/ListEvents")
	})

	t.Run("異常系: エラーはそのまま返す", func(t *testing.T) {
		buf.Reset()
		failing := func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, status.Error(codes.NotFound, "missing")
		}
		_, err := interceptor(context.Background(), nil, info, failing)
		assert.Equal(t, codes.NotFound, status.Code(err))
		assert.Contains(t, buf.String(), "gRPC call failed")
		assert.Contains(t, buf.String(), "NotFound")
	})
}
