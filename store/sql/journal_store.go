package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ledger/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/uptrace/bun"
)

var ErrSequenceAlreadyJournaled = errors.New("sqlstore: commit sequence already journaled")

// JournalStore persists committed change sets and rebuilds ledger state
// from them.
type JournalStore struct {
	db *bun.DB

	commits      repository.Repository[*commitRecord]
	accounts     repository.Repository[*accountRecord]
	reservations repository.Repository[*reservationRecord]
	nonces       repository.Repository[*nonceRecord]
	roles        repository.Repository[*roleMemberRecord]
	allowances   repository.Repository[*allowanceRecord]
	events       repository.Repository[*eventRecord]
}

func (s *JournalStore) Commit(ctx context.Context, changes core.ChangeSet) error {
	if s == nil || s.db == nil || s.commits == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	if changes.Sequence == 0 {
		return fmt.Errorf("sqlstore: commit sequence is required")
	}
	if changes.CommittedAt.IsZero() {
		changes.CommittedAt = time.Now()
	}
	sequence := int64(changes.Sequence)
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		commit := &commitRecord{
			ID:          uuid.NewString(),
			Sequence:    sequence,
			Operation:   strings.TrimSpace(changes.Operation),
			Height:      int64(changes.Height),
			TotalSupply: formatAmount(changes.TotalSupply),
			EventCount:  len(changes.Events),
			CommittedAt: changes.CommittedAt.UTC(),
		}
		if _, err := s.commits.CreateTx(ctx, tx, commit); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %d", ErrSequenceAlreadyJournaled, sequence)
			}
			return err
		}

		for _, account := range changes.Accounts {
			if err := upsertAccountTx(ctx, tx, account, sequence, now); err != nil {
				return err
			}
		}
		for _, reservation := range changes.Reservations {
			if err := upsertReservationTx(ctx, tx, reservation, sequence, now); err != nil {
				return err
			}
		}
		for _, use := range changes.Nonces {
			record := &nonceRecord{
				ID:        uuid.NewString(),
				Signer:    formatAddress(use.Signer),
				Namespace: string(use.Namespace),
				Nonce:     formatAmount(use.Nonce),
				Sequence:  sequence,
			}
			if _, err := s.nonces.CreateTx(ctx, tx, record); err != nil {
				return err
			}
		}
		for _, change := range changes.Roles {
			if err := applyRoleChangeTx(ctx, tx, change, sequence); err != nil {
				return err
			}
		}
		for _, allowance := range changes.Allowances {
			if err := upsertAllowanceTx(ctx, tx, allowance, sequence, now); err != nil {
				return err
			}
		}
		for position, event := range changes.Events {
			record := eventToRecord(event, sequence, position, changes)
			record.ID = uuid.NewString()
			if _, err := s.events.CreateTx(ctx, tx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertAccountTx(ctx context.Context, tx bun.Tx, account core.Account, sequence int64, now time.Time) error {
	address := formatAddress(account.Address)
	if account.Balance.IsZero() && account.Reserved.IsZero() {
		_, err := tx.NewDelete().
			Model((*accountRecord)(nil)).
			Where("address = ?", address).
			Exec(ctx)
		return err
	}
	record := accountToRecord(account, sequence)
	record.ID = uuid.NewString()
	record.UpdatedAt = now
	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (address) DO UPDATE").
		Set("balance = EXCLUDED.balance").
		Set("reserved = EXCLUDED.reserved").
		Set("sequence = EXCLUDED.sequence").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func upsertReservationTx(ctx context.Context, tx bun.Tx, reservation core.Reservation, sequence int64, now time.Time) error {
	record := reservationToRecord(reservation, sequence)
	record.ID = uuid.NewString()
	record.UpdatedAt = now
	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (owner, nonce) DO UPDATE").
		Set("recipient = EXCLUDED.recipient").
		Set("executor = EXCLUDED.executor").
		Set("amount = EXCLUDED.amount").
		Set("fee = EXCLUDED.fee").
		Set("expiry_height = EXCLUDED.expiry_height").
		Set("status = EXCLUDED.status").
		Set("sequence = EXCLUDED.sequence").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func applyRoleChangeTx(ctx context.Context, tx bun.Tx, change core.RoleChange, sequence int64) error {
	role := string(change.Role)
	address := formatAddress(change.Address)
	if !change.Granted {
		_, err := tx.NewDelete().
			Model((*roleMemberRecord)(nil)).
			Where("role = ?", role).
			Where("address = ?", address).
			Exec(ctx)
		return err
	}
	record := &roleMemberRecord{
		ID:       uuid.NewString(),
		Role:     role,
		Address:  address,
		Sequence: sequence,
	}
	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (role, address) DO NOTHING").
		Exec(ctx)
	return err
}

func upsertAllowanceTx(ctx context.Context, tx bun.Tx, allowance core.Allowance, sequence int64, now time.Time) error {
	owner := formatAddress(allowance.Owner)
	spender := formatAddress(allowance.Spender)
	if allowance.Amount.IsZero() {
		_, err := tx.NewDelete().
			Model((*allowanceRecord)(nil)).
			Where("owner = ?", owner).
			Where("spender = ?", spender).
			Exec(ctx)
		return err
	}
	record := &allowanceRecord{
		ID:        uuid.NewString(),
		Owner:     owner,
		Spender:   spender,
		Amount:    formatAmount(allowance.Amount),
		Sequence:  sequence,
		UpdatedAt: now,
	}
	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (owner, spender) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("sequence = EXCLUDED.sequence").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// LoadSnapshot rebuilds full ledger state as of the latest journaled commit.
// An empty journal yields the zero snapshot.
func (s *JournalStore) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	if s == nil || s.commits == nil {
		return core.Snapshot{}, fmt.Errorf("sqlstore: journal store is not configured")
	}
	latest, _, err := s.commits.List(ctx,
		repository.OrderBy("sequence DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Snapshot{}, err
	}
	if len(latest) == 0 {
		return core.Snapshot{}, nil
	}

	snapshot := core.Snapshot{Sequence: uint64(latest[0].Sequence)}
	if snapshot.TotalSupply, err = parseAmount("total_supply", latest[0].TotalSupply); err != nil {
		return core.Snapshot{}, err
	}

	accounts, _, err := s.accounts.List(ctx, repository.OrderBy("address ASC"))
	if err != nil {
		return core.Snapshot{}, err
	}
	for _, record := range accounts {
		account, decodeErr := record.toDomain()
		if decodeErr != nil {
			return core.Snapshot{}, decodeErr
		}
		snapshot.Accounts = append(snapshot.Accounts, account)
	}

	reservations, _, err := s.reservations.List(ctx, repository.OrderBy("owner ASC"), repository.OrderBy("created_height ASC"))
	if err != nil {
		return core.Snapshot{}, err
	}
	for _, record := range reservations {
		reservation, decodeErr := record.toDomain()
		if decodeErr != nil {
			return core.Snapshot{}, decodeErr
		}
		snapshot.Reservations = append(snapshot.Reservations, reservation)
	}

	nonces, _, err := s.nonces.List(ctx, repository.OrderBy("sequence ASC"))
	if err != nil {
		return core.Snapshot{}, err
	}
	for _, record := range nonces {
		use, decodeErr := record.toDomain()
		if decodeErr != nil {
			return core.Snapshot{}, decodeErr
		}
		snapshot.Nonces = append(snapshot.Nonces, use)
	}

	members, _, err := s.roles.List(ctx, repository.OrderBy("role ASC"), repository.OrderBy("address ASC"))
	if err != nil {
		return core.Snapshot{}, err
	}
	for _, record := range members {
		member, decodeErr := record.toDomain()
		if decodeErr != nil {
			return core.Snapshot{}, decodeErr
		}
		snapshot.Roles = append(snapshot.Roles, member)
	}

	allowances, _, err := s.allowances.List(ctx, repository.OrderBy("owner ASC"), repository.OrderBy("spender ASC"))
	if err != nil {
		return core.Snapshot{}, err
	}
	for _, record := range allowances {
		allowance, decodeErr := record.toDomain()
		if decodeErr != nil {
			return core.Snapshot{}, decodeErr
		}
		snapshot.Allowances = append(snapshot.Allowances, allowance)
	}
	return snapshot, nil
}

// LastSequence returns the latest journaled commit sequence, zero when the
// journal is empty.
func (s *JournalStore) LastSequence(ctx context.Context) (uint64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: journal store is not configured")
	}
	var sequence int64
	if err := s.db.NewRaw(
		"SELECT COALESCE(MAX(sequence), 0) FROM ledger_commits",
	).Scan(ctx, &sequence); err != nil {
		return 0, err
	}
	return uint64(sequence), nil
}

// TotalSupplyAt returns the total supply recorded by the given commit.
func (s *JournalStore) TotalSupplyAt(ctx context.Context, sequence uint64) (uint256.Int, error) {
	if s == nil || s.commits == nil {
		return uint256.Int{}, fmt.Errorf("sqlstore: journal store is not configured")
	}
	records, _, err := s.commits.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.sequence = ?", int64(sequence))
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return uint256.Int{}, err
	}
	if len(records) == 0 {
		return uint256.Int{}, fmt.Errorf("sqlstore: commit %d not found", sequence)
	}
	return parseAmount("total_supply", records[0].TotalSupply)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
