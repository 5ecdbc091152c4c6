package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	grpchandler "donation-server/internal/presentation/grpc/handler"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// grpcCall 管理gRPCサービスを1回呼び出し、応答をoutへ読み込む
func grpcCall(
	ctx context.Context,
	opts *options,
	call func(context.Context, *grpchandler.AdminServiceClient, *structpb.Struct) (*structpb.Struct, error),
	req map[string]interface{},
	out interface{},
) error {
	timeout, err := time.ParseDuration(opts.timeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid timeout %q", opts.timeout)
	}

	ctx, err = withCredentials(ctx, opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := grpc.NewClient(opts.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", opts.grpcAddr, err)
	}
	defer conn.Close()

	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := call(ctx, grpchandler.NewAdminServiceClient(conn), in)
	if err != nil {
		return err
	}

	// Structの数値はfloat64のため、JSONを経由して型付きの構造体へ変換する
	data, err := json.Marshal(resp.AsMap())
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(data, out)
}

func withCredentials(ctx context.Context, opts *options) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch {
	case opts.token != "":
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+opts.token), nil
	case opts.apiKey != "":
		return metadata.AppendToOutgoingContext(ctx, "x-api-key", opts.apiKey), nil
	default:
		return ctx, errors.New("an operator token or admin API key is required")
	}
}
