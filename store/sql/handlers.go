package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type identifiedRecord interface {
	recordID() string
	setRecordID(id string)
}

func (r *commitRecord) recordID() string { return r.ID }

func (r *commitRecord) setRecordID(id string) { r.ID = id }

func (r *accountRecord) recordID() string { return r.ID }

func (r *accountRecord) setRecordID(id string) { r.ID = id }

func (r *reservationRecord) recordID() string { return r.ID }

func (r *reservationRecord) setRecordID(id string) { r.ID = id }

func (r *nonceRecord) recordID() string { return r.ID }

func (r *nonceRecord) setRecordID(id string) { r.ID = id }

func (r *roleMemberRecord) recordID() string { return r.ID }

func (r *roleMemberRecord) setRecordID(id string) { r.ID = id }

func (r *allowanceRecord) recordID() string { return r.ID }

func (r *allowanceRecord) setRecordID(id string) { r.ID = id }

func (r *eventRecord) recordID() string { return r.ID }

func (r *eventRecord) setRecordID(id string) { r.ID = id }

// recordHandlers builds the id-keyed model handlers shared by every ledger
// table.
func recordHandlers[T identifiedRecord](newRecord func() T) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(record T) uuid.UUID {
			if isNilRecord(record) {
				return uuid.Nil
			}
			return parseUUID(record.recordID())
		},
		SetID: func(record T, id uuid.UUID) {
			if isNilRecord(record) {
				return
			}
			record.setRecordID(id.String())
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record T) string {
			if isNilRecord(record) {
				return ""
			}
			return strings.TrimSpace(record.recordID())
		},
	}
}

func isNilRecord(record identifiedRecord) bool {
	switch typed := record.(type) {
	case nil:
		return true
	case *commitRecord:
		return typed == nil
	case *accountRecord:
		return typed == nil
	case *reservationRecord:
		return typed == nil
	case *nonceRecord:
		return typed == nil
	case *roleMemberRecord:
		return typed == nil
	case *allowanceRecord:
		return typed == nil
	case *eventRecord:
		return typed == nil
	default:
		return false
	}
}

func commitHandlers() repository.ModelHandlers[*commitRecord] {
	return recordHandlers(func() *commitRecord { return &commitRecord{} })
}

func accountHandlers() repository.ModelHandlers[*accountRecord] {
	return recordHandlers(func() *accountRecord { return &accountRecord{} })
}

func reservationHandlers() repository.ModelHandlers[*reservationRecord] {
	return recordHandlers(func() *reservationRecord { return &reservationRecord{} })
}

func nonceHandlers() repository.ModelHandlers[*nonceRecord] {
	return recordHandlers(func() *nonceRecord { return &nonceRecord{} })
}

func roleMemberHandlers() repository.ModelHandlers[*roleMemberRecord] {
	return recordHandlers(func() *roleMemberRecord { return &roleMemberRecord{} })
}

func allowanceHandlers() repository.ModelHandlers[*allowanceRecord] {
	return recordHandlers(func() *allowanceRecord { return &allowanceRecord{} })
}

func eventHandlers() repository.ModelHandlers[*eventRecord] {
	return recordHandlers(func() *eventRecord { return &eventRecord{} })
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
