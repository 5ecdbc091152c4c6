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

func donationsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "donations",
		Short: "List recorded donations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fetchDonations(cmd.Context(), opts, limit)
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			rows := make([][]string, 0, len(resp.Donations))
			for _, d := range resp.Donations {
				rows = append(rows, donationRow(d))
			}
			return writeTable(cmd.OutOrStdout(), donationHeader, rows)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum donations (1-500)")
	cmd.AddCommand(donationGetCmd(opts))

	return cmd
}

func donationGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <donation-id>",
		Short: "Show one donation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := fetchDonation(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			return writeTable(cmd.OutOrStdout(), donationHeader, [][]string{donationRow(*d)})
		},
	}
}

var donationHeader = []string{"ID", "CREATED", "CHANNEL", "CALLER", "AMOUNT", "CARD", "STATUS", "REFERENCE"}

func donationRow(d handler.DonationItem) []string {
	return []string{d.DonationID, d.CreatedAt, d.Channel, d.Caller, d.Amount, "*" + d.CardLast4, d.Status, d.ReferenceNumber}
}

func fetchDonations(ctx context.Context, opts *options, limit int) (*handler.ListDonationsResponse, error) {
	var resp handler.ListDonationsResponse

	if opts.grpcAddr != "" {
		call := func(ctx context.Context, c *grpchandler.AdminServiceClient, in *structpb.Struct) (*structpb.Struct, error) {
			return c.ListDonations(ctx, in)
		}
		if err := grpcCall(ctx, opts, call, map[string]interface{}{"limit": limit}, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	client, err := newRESTClient(opts)
	if err != nil {
		return nil, err
	}
	query := url.Values{"limit": []string{strconv.Itoa(limit)}}
	if err := client.get("/api/v1/admin/donations", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func fetchDonation(ctx context.Context, opts *options, donationID string) (*handler.DonationItem, error) {
	var resp handler.DonationItem

	if opts.grpcAddr != "" {
		call := func(ctx context.Context, c *grpchandler.AdminServiceClient, in *structpb.Struct) (*structpb.Struct, error) {
			return c.GetDonation(ctx, in)
		}
		if err := grpcCall(ctx, opts, call, map[string]interface{}{"donation_id": donationID}, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	client, err := newRESTClient(opts)
	if err != nil {
		return nil, err
	}
	if err := client.get("/api/v1/admin/donations/"+url.PathEscape(donationID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
