package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"donation-server/internal/domain/donation"
)

// DonationRepository MySQL実装のDonationRepository
type DonationRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewDonationRepository 新しいDonationRepositoryを作成
func NewDonationRepository(db *DB) *DonationRepository {
	return &DonationRepository{
		db:     db,
		tracer: otel.Tracer("donation-repository"),
	}
}

const donationColumns = `
	donation_id, channel, caller, amount, card_last4,
	status, reference_number, error_message, created_at
`

// Save 寄付記録を保存
func (r *DonationRepository) Save(ctx context.Context, d *donation.Donation) error {
	ctx, span := r.tracer.Start(ctx, "DonationRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.donation_id", d.DonationID()),
		attribute.String("db.channel", d.Channel().String()),
		attribute.String("db.status", d.Status().String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "donations"),
	)

	query := `INSERT INTO donations (` + donationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		d.DonationID(),
		d.Channel().String(),
		d.Caller(),
		d.Amount(),
		d.CardLast4(),
		d.Status().String(),
		nullString(d.ReferenceNumber()),
		nullString(d.ErrorMessage()),
		d.CreatedAt(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save donation: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "donation saved")
	return nil
}

// FindByDonationID 寄付IDで寄付記録を取得
func (r *DonationRepository) FindByDonationID(ctx context.Context, donationID string) (*donation.Donation, error) {
	ctx, span := r.tracer.Start(ctx, "DonationRepository.FindByDonationID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.donation_id", donationID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "donations"),
	)

	query := `SELECT ` + donationColumns + ` FROM donations WHERE donation_id = ?`

	d, err := scanDonation(r.db.QueryRowContext(ctx, query, donationID))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Error, "donation not found")
		return nil, donation.ErrDonationNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find donation: %w", err)
	}

	return d, nil
}

// ListRecent 新しい順に寄付記録を取得
func (r *DonationRepository) ListRecent(ctx context.Context, limit int) ([]*donation.Donation, error) {
	ctx, span := r.tracer.Start(ctx, "DonationRepository.ListRecent")
	defer span.End()

	span.SetAttributes(
		attribute.Int("db.limit", limit),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "donations"),
	)

	query := `SELECT ` + donationColumns + ` FROM donations ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	donations := make([]*donation.Donation, 0, limit)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate donations: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(donations)))
	return donations, nil
}

// rowScanner *sql.Row と *sql.Rows の共通部分
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDonation(row rowScanner) (*donation.Donation, error) {
	var id, dbChannel, caller, amount, cardLast4, dbStatus string
	var referenceNumber, errorMessage sql.NullString
	var createdAt time.Time

	if err := row.Scan(
		&id,
		&dbChannel,
		&caller,
		&amount,
		&cardLast4,
		&dbStatus,
		&referenceNumber,
		&errorMessage,
		&createdAt,
	); err != nil {
		return nil, err
	}

	channel, err := donation.NewChannel(dbChannel)
	if err != nil {
		return nil, err
	}
	status, err := donation.NewStatus(dbStatus)
	if err != nil {
		return nil, err
	}

	return donation.RestoreDonation(
		id,
		channel,
		caller,
		amount,
		cardLast4,
		status,
		referenceNumber.String,
		errorMessage.String,
		createdAt,
	), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
