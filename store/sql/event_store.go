package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-ledger/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const (
	defaultEventPageSize = 50
	maxEventPageSize     = 500
)

type EventStore struct {
	repo repository.Repository[*eventRecord]
}

// ListEvents pages through journaled events in commit order.
func (s *EventStore) ListEvents(ctx context.Context, filter core.EventFilter) (core.EventPage, error) {
	if s == nil || s.repo == nil {
		return core.EventPage{}, fmt.Errorf("sqlstore: event store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy("sequence ASC"),
		repository.OrderBy("position ASC"),
		repository.SelectPaginate(limit, offset),
	}
	if eventType := strings.TrimSpace(string(filter.Type)); eventType != "" {
		selectors = append(selectors, repository.SelectBy("event_type", "=", eventType))
	}
	if filter.Account != nil {
		account := formatAddress(*filter.Account)
		selectors = append(selectors, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("?TableAlias.from_address = ?", account).
					WhereOr("?TableAlias.to_address = ?", account).
					WhereOr("?TableAlias.operator = ?", account)
			})
		}))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.EventPage{}, err
	}
	items := make([]core.EventRecord, 0, len(records))
	for _, record := range records {
		item, decodeErr := record.toDomain()
		if decodeErr != nil {
			return core.EventPage{}, decodeErr
		}
		items = append(items, item)
	}
	hasMore := offset+len(items) < total
	page := core.EventPage{Items: items, HasMore: hasMore}
	if hasMore {
		page.NextOffset = offset + len(items)
	}
	return page, nil
}

// EventsForCommit returns the events of a single commit in emission order.
func (s *EventStore) EventsForCommit(ctx context.Context, sequence uint64) ([]core.EventRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.sequence = ?", int64(sequence))
		}),
		repository.OrderBy("position ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.EventRecord, 0, len(records))
	for _, record := range records {
		item, decodeErr := record.toDomain()
		if decodeErr != nil {
			return nil, decodeErr
		}
		out = append(out, item)
	}
	return out, nil
}
