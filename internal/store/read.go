package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/leitmotif-dev/stratum/internal/record"
	"github.com/leitmotif-dev/stratum/internal/schema"
)

// Fetch returns the record of the given entity type with the given id, with
// the working set overlaid: a staged upsert is returned as-is, a staged
// tombstone hides the stored row.
//
// Not-found is a normal outcome: (nil, nil). A query failure is logged and
// returned as a non-nil error, so the two outcomes stay distinguishable.
func (s *Store) Fetch(ctx context.Context, entityType, id string) (*record.Record, error) {
	et, ok := s.model.EntityType(entityType)
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", entityType, ErrUnknownEntityType)
	}

	if op, ok := s.index[pendingKey(entityType, id)]; ok {
		if op.kind == opDelete {
			return nil, nil
		}
		return op.rec, nil
	}

	rec, err := s.fetchRow(ctx, et, id)
	if err != nil {
		s.log.Error("fetch failed", "entity", entityType, "id", id, "err", err)
		return nil, err
	}
	return rec, nil
}

// fetchRow reads one stored row, bypassing the working set.
func (s *Store) fetchRow(ctx context.Context, et *schema.EntityType, id string) (*record.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", columnList(et), schema.QuoteIdent(et.Name))

	dests := make([]any, 0, len(et.Attributes)+1)
	var rowID string
	dests = append(dests, &rowID)
	for _, a := range et.Attributes {
		dests = append(dests, scanDest(a.Kind))
	}

	err := s.db.QueryRowContext(ctx, query, id).Scan(dests...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s %q: %w", et.Name, id, err)
	}

	return buildRecord(et, rowID, dests)
}

// FetchAll returns every record of the entity type, ordered by id, with the
// working set overlaid. The whole result set is materialized in memory;
// fine for admin tooling and tests, not for hot paths on large stores.
func (s *Store) FetchAll(ctx context.Context, entityType string) ([]*record.Record, error) {
	et, ok := s.model.EntityType(entityType)
	if !ok {
		return nil, fmt.Errorf("fetch all %s: %w", entityType, ErrUnknownEntityType)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", columnList(et), schema.QuoteIdent(et.Name))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.log.Error("fetch all failed", "entity", entityType, "err", err)
		return nil, fmt.Errorf("query %s: %w", et.Name, err)
	}
	defer rows.Close()

	byID := make(map[string]*record.Record)
	for rows.Next() {
		dests := make([]any, 0, len(et.Attributes)+1)
		var rowID string
		dests = append(dests, &rowID)
		for _, a := range et.Attributes {
			dests = append(dests, scanDest(a.Kind))
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", et.Name, err)
		}
		rec, err := buildRecord(et, rowID, dests)
		if err != nil {
			return nil, err
		}
		byID[rowID] = rec
	}
	if err := rows.Err(); err != nil {
		s.log.Error("fetch all failed", "entity", entityType, "err", err)
		return nil, fmt.Errorf("iterate %s: %w", et.Name, err)
	}

	// Overlay the working set: staged upserts replace or add rows, staged
	// tombstones remove them.
	for _, op := range s.pending {
		if op.rec.TypeName() != entityType {
			continue
		}
		if op.kind == opDelete {
			delete(byID, op.rec.ID())
		} else {
			byID[op.rec.ID()] = op.rec
		}
	}

	out := make([]*record.Record, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// CountAll returns the number of stored rows for an entity type. The
// working set is not consulted.
func (s *Store) CountAll(ctx context.Context, entityType string) (int64, error) {
	et, ok := s.model.EntityType(entityType)
	if !ok {
		return 0, fmt.Errorf("count %s: %w", entityType, ErrUnknownEntityType)
	}
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", schema.QuoteIdent(et.Name))
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", et.Name, err)
	}
	return n, nil
}

// columnList renders "id, a, b, c" in declaration order.
func columnList(et *schema.EntityType) string {
	cols := make([]string, 0, len(et.Attributes)+1)
	cols = append(cols, "id")
	for _, a := range et.Attributes {
		cols = append(cols, schema.QuoteIdent(a.Name))
	}
	return strings.Join(cols, ", ")
}

// buildRecord assembles a Persisted record from scanned destinations. dests
// holds the id pointer followed by one holder per attribute in declaration
// order.
func buildRecord(et *schema.EntityType, id string, dests []any) (*record.Record, error) {
	rec := record.New(et, id)
	for i, a := range et.Attributes {
		v, ok, err := holderValue(a, dests[i+1])
		if err != nil {
			return nil, fmt.Errorf("row %s %q: %w", et.Name, id, err)
		}
		if !ok {
			continue
		}
		if err := rec.Set(a.Name, v); err != nil {
			return nil, fmt.Errorf("row %s %q: %w", et.Name, id, err)
		}
	}
	rec.SetState(record.Persisted)
	return rec, nil
}
