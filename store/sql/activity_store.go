package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mailchimp/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	defaultActivityLimit = 25
	maxActivityLimit     = 500
)

// ActivityStore persists request activity entries. Entries carry no
// credentials, headers or bodies.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*requestActivityRecord]
	now  func() time.Time
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*requestActivityRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo, now: time.Now}, nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.repo == nil {
		return storeNotConfigured()
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if entry.CreatedAt.IsZero() {
		createdAt = s.now().UTC()
	}
	outcome := strings.TrimSpace(string(entry.Outcome))
	if outcome == "" {
		outcome = string(core.ActivityOutcomeSuccess)
	}
	operation := strings.TrimSpace(entry.Operation)
	if operation == "" {
		operation = "request"
	}

	record := &requestActivityRecord{
		ID:         id,
		Operation:  operation,
		Method:     strings.ToUpper(strings.TrimSpace(entry.Method)),
		Path:       stripQuery(entry.Path),
		Datacenter: strings.TrimSpace(entry.Datacenter),
		Status:     entry.Status,
		Outcome:    outcome,
		ErrorType:  strings.TrimSpace(entry.ErrorType),
		DurationMS: entry.DurationMS,
		CreatedAt:  createdAt,
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "sqlstore: record activity").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorInternal)
	}
	return nil
}

// List returns entries newest first.
func (s *ActivityStore) List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.ActivityPage{}, storeNotConfigured()
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, offset),
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		selectors = append(selectors, repository.SelectBy("operation", "=", operation))
	}
	if outcome := strings.TrimSpace(string(filter.Outcome)); outcome != "" {
		selectors = append(selectors, repository.SelectBy("outcome", "=", outcome))
	}
	if filter.Since != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.Since.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.ActivityPage{}, goerrors.Wrap(err, goerrors.CategoryInternal, "sqlstore: list activity").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorInternal)
	}
	items := make([]core.ActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, activityRecordToDomain(record))
	}
	return core.ActivityPage{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasNext: offset+len(items) < total,
	}, nil
}

// Prune deletes entries older than the TTL, then the oldest entries above
// the row cap. It returns the number of deleted rows.
func (s *ActivityStore) Prune(ctx context.Context, policy core.ActivityRetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, storeNotConfigured()
	}
	deleted := 0

	if policy.TTL > 0 {
		cutoff := s.now().UTC().Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*requestActivityRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, pruneError(err, "ttl")
		}
		affected, err := rowsDeleted(res)
		if err != nil {
			return deleted, pruneError(err, "ttl")
		}
		deleted += affected
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*requestActivityRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, pruneError(err, "row_cap")
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM "+activityTable+" WHERE id IN (SELECT id FROM "+activityTable+" ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, pruneError(err, "row_cap")
			}
			affected, err := rowsDeleted(res)
			if err != nil {
				return deleted, pruneError(err, "row_cap")
			}
			deleted += affected
		}
	}

	return deleted, nil
}

// rowsDeleted reports the affected row count of a delete. Drivers that cannot
// report it fail the prune rather than under-count.
func rowsDeleted(res sql.Result) (int, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func pruneError(err error, step string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "sqlstore: prune activity").
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorInternal).
		WithMetadata(map[string]any{"step": step})
}

func activityRecordToDomain(record *requestActivityRecord) core.ActivityEntry {
	if record == nil {
		return core.ActivityEntry{}
	}
	return core.ActivityEntry{
		ID:         record.ID,
		Operation:  record.Operation,
		Method:     record.Method,
		Path:       record.Path,
		Datacenter: record.Datacenter,
		Status:     record.Status,
		Outcome:    core.ActivityOutcome(record.Outcome),
		ErrorType:  record.ErrorType,
		DurationMS: record.DurationMS,
		CreatedAt:  record.CreatedAt.UTC(),
	}
}

func stripQuery(path string) string {
	path = strings.TrimSpace(path)
	if index := strings.IndexByte(path, '?'); index >= 0 {
		return path[:index]
	}
	return path
}

func storeNotConfigured() error {
	return goerrors.New("sqlstore: activity store is not configured", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorInternal)
}
