package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

// options 全サブコマンド共通のフラグ
type options struct {
	server   string
	grpcAddr string
	token    string
	apiKey   string
	timeout  string
	asJSON   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "donationctl",
		Short:         "Operator tool for the donation server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("DONATION_SERVER", "http://localhost:3000"), "REST base URL")
	flags.StringVar(&opts.grpcAddr, "grpc", envOr("DONATION_GRPC", ""), "gRPC address (host:port); uses gRPC instead of REST when set")
	flags.StringVar(&opts.token, "token", os.Getenv("DONATION_TOKEN"), "Operator bearer token")
	flags.StringVar(&opts.apiKey, "api-key", os.Getenv("ADMIN_API_KEY"), "Admin API key")
	flags.StringVar(&opts.timeout, "timeout", "10s", "Request timeout")
	flags.BoolVarP(&opts.asJSON, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(tokenCmd(opts))
	rootCmd.AddCommand(eventsCmd(opts))
	rootCmd.AddCommand(donationsCmd(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
