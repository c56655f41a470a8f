package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aura0x/aura-server/pkg/aura/data/vouch"
)

type store struct {
	mu      sync.Mutex
	records []*vouch.Record
	last    uint64
}

func New() vouch.Store {
	return &store{
		records: make([]*vouch.Record, 0),
		last:    0,
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make([]*vouch.Record, 0)
	s.last = 0
	s.mu.Unlock()
}

// Save implements vouch.Store.Save
func (s *store) Save(_ context.Context, data *vouch.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findBySignature(data.Signature); item != nil {
		return vouch.ErrAlreadyExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	c := data.Clone()
	s.records = append(s.records, &c)

	return nil
}

// GetBySignature implements vouch.Store.GetBySignature
func (s *store) GetBySignature(_ context.Context, signature string) (*vouch.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findBySignature(signature)
	if item == nil {
		return nil, vouch.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetByVoucher implements vouch.Store.GetByVoucher
func (s *store) GetByVoucher(_ context.Context, voucher string, limit uint64) ([]*vouch.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*vouch.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if uint64(len(res)) >= limit {
			break
		}

		if s.records[i].Voucher == voucher {
			cloned := s.records[i].Clone()
			res = append(res, &cloned)
		}
	}
	return res, nil
}

// GetPointsByVoucher implements vouch.Store.GetPointsByVoucher
func (s *store) GetPointsByVoucher(_ context.Context, voucher string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total uint64
	for _, item := range s.records {
		if item.Voucher == voucher {
			total += item.Points
		}
	}
	return total, nil
}

func (s *store) findBySignature(signature string) *vouch.Record {
	for _, item := range s.records {
		if item.Signature == signature {
			return item
		}
	}
	return nil
}
