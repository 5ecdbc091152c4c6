package memory

import (
	"context"
	"sort"
	"sync"

	"donation-server/internal/domain/donation"
)

// DonationRepository プロセス内メモリのDonationRepository実装
// データベースを使わない構成で使用する。
type DonationRepository struct {
	mu        sync.RWMutex
	donations []*donation.Donation
	byID      map[string]*donation.Donation
}

// NewDonationRepository 新しいDonationRepositoryを作成
func NewDonationRepository() *DonationRepository {
	return &DonationRepository{
		byID: make(map[string]*donation.Donation),
	}
}

// Save 寄付記録を保存
func (r *DonationRepository) Save(ctx context.Context, d *donation.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[d.DonationID()]; !ok {
		r.donations = append(r.donations, d)
	} else {
		for i, existing := range r.donations {
			if existing.DonationID() == d.DonationID() {
				r.donations[i] = d
				break
			}
		}
	}
	r.byID[d.DonationID()] = d
	return nil
}

// FindByDonationID 寄付IDで寄付記録を取得
func (r *DonationRepository) FindByDonationID(ctx context.Context, donationID string) (*donation.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[donationID]
	if !ok {
		return nil, donation.ErrDonationNotFound
	}
	return d, nil
}

// ListRecent 新しい順に寄付記録を取得
func (r *DonationRepository) ListRecent(ctx context.Context, limit int) ([]*donation.Donation, error) {
	r.mu.RLock()
	out := make([]*donation.Donation, len(r.donations))
	copy(out, r.donations)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
