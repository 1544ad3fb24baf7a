package core

import (
	"context"
	"sort"
	"time"

	"github.com/holiman/uint256"
)

type ReserveRequest struct {
	Owner        Address
	Recipient    Address
	Executor     Address
	Amount       *uint256.Int
	Fee          *uint256.Int
	Nonce        *uint256.Int
	ExpiryHeight uint64
	Signature    []byte
}

func (r ReserveRequest) message(ledger Address) (SignedMessage, error) {
	amount, err := requireAmount("amount", r.Amount)
	if err != nil {
		return SignedMessage{}, err
	}
	fee, err := requireAmount("fee", r.Fee)
	if err != nil {
		return SignedMessage{}, err
	}
	nonce, err := requireAmount("nonce", r.Nonce)
	if err != nil {
		return SignedMessage{}, err
	}
	return SignedMessage{
		Operation: SignedReserve,
		Ledger:    ledger,
		Sender:    r.Owner,
		Recipient: r.Recipient,
		Amount:    amount,
		Fee:       fee,
		Nonce:     nonce,
	}, nil
}

// Reserve locks amount+fee of the owner's unreserved balance for a later
// Execute or Reclaim. The owner's signature authorizes it.
func (l *Ledger) Reserve(ctx context.Context, req ReserveRequest) (reservation Reservation, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"owner":         req.Owner.Hex(),
		"recipient":     req.Recipient.Hex(),
		"executor":      req.Executor.Hex(),
		"expiry_height": req.ExpiryHeight,
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "reserve", err, fields)
	}()

	msg, err := req.message(l.LedgerAddress())
	if err != nil {
		err = l.mapError(err)
		return Reservation{}, err
	}
	fields["amount"] = msg.Amount.Dec()
	fields["fee"] = msg.Fee.Dec()
	fields["nonce"] = msg.Nonce.Dec()

	if err = VerifySigner(msg, req.Signature, req.Owner); err != nil {
		err = l.mapError(err)
		return Reservation{}, err
	}
	if req.Executor == ZeroAddress {
		err = l.mapError(invalidExecutorError())
		return Reservation{}, err
	}
	if req.Recipient == ZeroAddress {
		err = l.mapError(badInputError("core: reservation recipient must not be the zero address", nil))
		return Reservation{}, err
	}
	var total uint256.Int
	if _, overflow := total.AddOverflow(&msg.Amount, &msg.Fee); overflow {
		err = l.mapError(overflowError("core: amount plus fee overflows"))
		return Reservation{}, err
	}
	if total.IsZero() {
		err = l.mapError(invalidReserveAmountError())
		return Reservation{}, err
	}

	changes, err := l.commit(ctx, "reserve", func(_ context.Context, tx *stagedTx) error {
		if req.ExpiryHeight <= tx.height {
			return invalidExpiryError(req.ExpiryHeight, tx.height)
		}
		owner := tx.account(req.Owner)
		available := owner.Unreserved()
		if available.Lt(&total) {
			return insufficientUnreservedError(req.Owner, &total, &available)
		}
		if err := tx.consumeNonce(NonceUse{Signer: req.Owner, Namespace: NonceNamespaceTransfer, Nonce: msg.Nonce}); err != nil {
			return err
		}
		reservation = Reservation{
			Owner:         req.Owner,
			Nonce:         msg.Nonce,
			Recipient:     req.Recipient,
			Executor:      req.Executor,
			Amount:        msg.Amount,
			Fee:           msg.Fee,
			ExpiryHeight:  req.ExpiryHeight,
			CreatedHeight: tx.height,
			Status:        ReservationStatusActive,
		}
		if err := tx.lockFunds(req.Owner, &total); err != nil {
			return err
		}
		tx.putReservation(reservation)
		tx.emit(Event{
			Type:         EventReserved,
			From:         req.Owner,
			To:           req.Recipient,
			Operator:     req.Executor,
			Amount:       msg.Amount,
			Fee:          msg.Fee,
			Nonce:        msg.Nonce,
			ExpiryHeight: req.ExpiryHeight,
		})
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Reservation{}, err
	}
	fields["sequence"] = changes.Sequence
	return reservation, nil
}

// Execute settles an active, unexpired reservation. Only the executor or the
// owner may call it.
func (l *Ledger) Execute(ctx context.Context, caller, owner Address, nonce *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
		"owner":  owner.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "execute", err, fields)
	}()

	key, err := reservationKey(owner, nonce)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["nonce"] = key.Nonce.Dec()

	changes, err := l.commit(ctx, "execute", func(_ context.Context, tx *stagedTx) error {
		reservation, ok := tx.reservation(key)
		if !ok {
			return reservationNotFoundError(key)
		}
		if caller != reservation.Executor && caller != reservation.Owner {
			return unauthorizedError("core: caller is not the reservation executor or owner", map[string]any{
				"caller": caller.Hex(),
				"owner":  owner.Hex(),
			})
		}
		if reservation.Status != ReservationStatusActive {
			return invalidStatusError(key, reservation.Status)
		}
		if reservation.ExpiredAt(tx.height) {
			return reservationExpiredError(key, reservation.ExpiryHeight, tx.height)
		}

		total := reservation.Total()
		if err := tx.releaseFunds(owner, &total); err != nil {
			return err
		}
		if err := tx.move(owner, reservation.Recipient, &reservation.Amount); err != nil {
			return err
		}
		if err := tx.move(owner, l.feeRecipient(reservation.Executor), &reservation.Fee); err != nil {
			return err
		}
		reservation.Status = ReservationStatusExecuted
		tx.putReservation(reservation)
		tx.emit(Event{
			Type:     EventReservationExecuted,
			From:     owner,
			To:       reservation.Recipient,
			Operator: caller,
			Amount:   reservation.Amount,
			Fee:      reservation.Fee,
			Nonce:    reservation.Nonce,
		})
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

// Reclaim releases an active reservation back to the owner's unreserved
// balance. The executor may reclaim at any time; the owner only after expiry.
func (l *Ledger) Reclaim(ctx context.Context, caller, owner Address, nonce *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
		"owner":  owner.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "reclaim", err, fields)
	}()

	key, err := reservationKey(owner, nonce)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["nonce"] = key.Nonce.Dec()

	changes, err := l.commit(ctx, "reclaim", func(_ context.Context, tx *stagedTx) error {
		reservation, ok := tx.reservation(key)
		if !ok {
			return reservationNotFoundError(key)
		}
		isExecutor := caller == reservation.Executor
		if !isExecutor && caller != reservation.Owner {
			return unauthorizedError("core: caller is not the reservation executor or owner", map[string]any{
				"caller": caller.Hex(),
				"owner":  owner.Hex(),
			})
		}
		if reservation.Status != ReservationStatusActive {
			return invalidStatusError(key, reservation.Status)
		}
		if !isExecutor && !reservation.ExpiredAt(tx.height) {
			return reservationNotExpiredError(key, reservation.ExpiryHeight, tx.height)
		}

		total := reservation.Total()
		if err := tx.releaseFunds(owner, &total); err != nil {
			return err
		}
		reservation.Status = ReservationStatusReclaimed
		tx.putReservation(reservation)
		tx.emit(Event{
			Type:     EventReservationReclaimed,
			From:     owner,
			Operator: caller,
			Amount:   reservation.Amount,
			Fee:      reservation.Fee,
			Nonce:    reservation.Nonce,
		})
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func (l *Ledger) GetReservation(owner Address, nonce *uint256.Int) (Reservation, error) {
	key, err := reservationKey(owner, nonce)
	if err != nil {
		return Reservation{}, l.mapError(err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	reservation, ok := l.state.reservations[key]
	if !ok {
		return Reservation{}, l.mapError(reservationNotFoundError(key))
	}
	return reservation, nil
}

// Reservations lists the owner's reservations ordered by nonce.
func (l *Ledger) Reservations(owner Address) []Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Reservation, 0)
	for key, reservation := range l.state.reservations {
		if key.Owner == owner {
			out = append(out, reservation)
		}
	}
	sortReservations(out)
	return out
}

func reservationKey(owner Address, nonce *uint256.Int) (ReservationKey, error) {
	value, err := requireAmount("nonce", nonce)
	if err != nil {
		return ReservationKey{}, err
	}
	return ReservationKey{Owner: owner, Nonce: value}, nil
}

func sortReservations(items []Reservation) {
	sort.Slice(items, func(i, j int) bool {
		return reservationKeyLess(items[i].Key(), items[j].Key())
	})
}
