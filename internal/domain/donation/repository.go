package donation

import (
	"context"
)

// DonationRepository 寄付台帳リポジトリインターフェース
type DonationRepository interface {
	// Save 寄付記録を保存
	Save(ctx context.Context, donation *Donation) error

	// FindByDonationID 寄付IDで寄付記録を取得
	FindByDonationID(ctx context.Context, donationID string) (*Donation, error)

	// ListRecent 新しい順に寄付記録を取得
	ListRecent(ctx context.Context, limit int) ([]*Donation, error)
}
