package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/code-nft-issuer/pkg/database/query"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	"github.com/code-payments/code-nft-issuer/pkg/pointer"
)

type ById []*issuance.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

type store struct {
	mu      sync.Mutex
	records []*issuance.Record
	last    uint64
}

// New returns a new in memory issuance.Store
func New() issuance.Store {
	return &store{}
}

// Put implements issuance.Store.Put
func (s *store) Put(_ context.Context, data *issuance.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByMint(data.Mint); item != nil {
		return issuance.ErrAlreadyExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	s.records = append(s.records, data.Clone())

	return nil
}

// Update implements issuance.Store.Update
func (s *store) Update(_ context.Context, data *issuance.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByMint(data.Mint)
	if item == nil {
		return issuance.ErrNotFound
	}
	if item.State == issuance.StateCommitted {
		return issuance.ErrFinalized
	}

	item.Signature = pointer.StringCopy(data.Signature)
	item.State = data.State
	item.FailedStep = data.FailedStep

	item.CopyTo(data)

	return nil
}

// Get implements issuance.Store.Get
func (s *store) Get(_ context.Context, mint string) (*issuance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByMint(mint); item != nil {
		return item.Clone(), nil
	}

	return nil, issuance.ErrNotFound
}

// GetAllByCreator implements issuance.Store.GetAllByCreator
func (s *store) GetAllByCreator(_ context.Context, creator string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*issuance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.filter(s.findByCreator(creator), cursor, limit, direction)
	if len(res) == 0 {
		return nil, issuance.ErrNotFound
	}

	cloned := make([]*issuance.Record, len(res))
	for i, item := range res {
		cloned[i] = item.Clone()
	}
	return cloned, nil
}

// CountByState implements issuance.Store.CountByState
func (s *store) CountByState(_ context.Context, state issuance.State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count uint64
	for _, item := range s.records {
		if item.State == state {
			count++
		}
	}
	return count, nil
}

func (s *store) findByMint(mint string) *issuance.Record {
	for _, item := range s.records {
		if item.Mint == mint {
			return item
		}
	}
	return nil
}

func (s *store) findByCreator(creator string) []*issuance.Record {
	var res []*issuance.Record
	for _, item := range s.records {
		if item.Creator == creator {
			res = append(res, item)
		}
	}
	return res
}

func (s *store) filter(items []*issuance.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*issuance.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*issuance.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
