package sqlstore

import (
	"context"
	"fmt"

	"github.com/goliatone/go-ledger/core"
	repository "github.com/goliatone/go-repository-bun"
)

// AccountReader serves persisted balances.
type AccountReader interface {
	Account(ctx context.Context, address core.Address) (core.Account, error)
}

type AccountStore struct {
	repo repository.Repository[*accountRecord]
}

// Account returns the persisted account. Unknown addresses read as an empty
// account.
func (s *AccountStore) Account(ctx context.Context, address core.Address) (core.Account, error) {
	if s == nil || s.repo == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("address", "=", formatAddress(address)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Account{}, err
	}
	if len(records) == 0 {
		return core.Account{Address: address}, nil
	}
	return records[0].toDomain()
}

// Holders lists accounts with a non-zero balance, ordered by address.
func (s *AccountStore) Holders(ctx context.Context, limit int, offset int) ([]core.Account, int, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("sqlstore: account store is not configured")
	}
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if offset < 0 {
		offset = 0
	}
	records, total, err := s.repo.List(ctx,
		repository.OrderBy("address ASC"),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, err
	}
	out := make([]core.Account, 0, len(records))
	for _, record := range records {
		account, decodeErr := record.toDomain()
		if decodeErr != nil {
			return nil, 0, decodeErr
		}
		out = append(out, account)
	}
	return out, total, nil
}
