package main

import (
	"context"
	"fmt"

	authapp "donation-server/internal/application/auth"
	"donation-server/internal/infrastructure/config"
	otelinfra "donation-server/internal/infrastructure/observability/otel"
	"donation-server/internal/presentation/rest/handler"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"
)

func tokenCmd(opts *options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "token <operator-id>",
		Short: "Issue an operator token for the admin API",
		Long: `Issue an operator bearer token.

By default the token is signed locally with JWT_SECRET (and JWT_ISSUER,
JWT_EXPIRATION), read from the environment or a .env file. With --remote
the server issues it in exchange for the admin API key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp *handler.GenerateTokenResponse
			var err error
			if remote {
				resp, err = remoteToken(opts, args[0])
			} else {
				resp, err = localToken(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return err
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the server to issue the token")

	return cmd
}

func localToken(ctx context.Context, operatorID string) (*handler.GenerateTokenResponse, error) {
	jwtCfg, err := config.LoadJWT()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("donationctl"))
	resp, err := authapp.NewAuthApplicationService(jwtCfg, logger).GenerateToken(ctx, &authapp.GenerateTokenRequest{
		OperatorID: operatorID,
	})
	if err != nil {
		return nil, err
	}

	return &handler.GenerateTokenResponse{
		Token:     resp.Token,
		ExpiresIn: int(resp.ExpiresIn),
		TokenType: resp.TokenType,
	}, nil
}

func remoteToken(opts *options, operatorID string) (*handler.GenerateTokenResponse, error) {
	client, err := newRESTClient(opts)
	if err != nil {
		return nil, err
	}

	var resp handler.GenerateTokenResponse
	if err := client.post("/api/v1/auth/token", handler.GenerateTokenRequest{OperatorID: operatorID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
