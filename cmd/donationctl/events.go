package main

import (
	"context"
	"net/url"
	"strconv"

	grpchandler "donation-server/internal/presentation/grpc/handler"
	"donation-server/internal/presentation/rest/handler"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

// eventFilter イベント取得条件
type eventFilter struct {
	channel       string
	correlationID string
	errorsOnly    bool
	limit         int
}

func eventsCmd(opts *options) *cobra.Command {
	filter := &eventFilter{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent step transitions and errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fetchEvents(cmd.Context(), opts, filter)
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			rows := make([][]string, 0, len(resp.Events))
			for _, e := range resp.Events {
				rows = append(rows, []string{e.Timestamp, e.Channel, e.CorrelationID, e.Step, e.Data, e.Error})
			}
			return writeTable(cmd.OutOrStdout(), []string{"TIME", "CHANNEL", "CORRELATION", "STEP", "DATA", "ERROR"}, rows)
		},
	}

	cmd.Flags().StringVarP(&filter.channel, "channel", "c", "", "Filter by channel (sms, voice)")
	cmd.Flags().StringVar(&filter.correlationID, "correlation-id", "", "Filter by sender or caller")
	cmd.Flags().BoolVarP(&filter.errorsOnly, "errors", "e", false, "Only show errors")
	cmd.Flags().IntVarP(&filter.limit, "limit", "n", 0, "Newest N entries (0 for all)")

	return cmd
}

func fetchEvents(ctx context.Context, opts *options, filter *eventFilter) (*handler.ListEventsResponse, error) {
	var resp handler.ListEventsResponse

	if opts.grpcAddr != "" {
		req := map[string]interface{}{
			"channel":        filter.channel,
			"correlation_id": filter.correlationID,
			"errors_only":    filter.errorsOnly,
			"limit":          filter.limit,
		}
		call := func(ctx context.Context, c *grpchandler.AdminServiceClient, in *structpb.Struct) (*structpb.Struct, error) {
			return c.ListEvents(ctx, in)
		}
		if err := grpcCall(ctx, opts, call, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	client, err := newRESTClient(opts)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if filter.channel != "" {
		query.Set("channel", filter.channel)
	}
	if filter.correlationID != "" {
		query.Set("correlation_id", filter.correlationID)
	}
	if filter.errorsOnly {
		query.Set("errors_only", "true")
	}
	if filter.limit > 0 {
		query.Set("limit", strconv.Itoa(filter.limit))
	}

	if err := client.get("/api/v1/admin/events", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
