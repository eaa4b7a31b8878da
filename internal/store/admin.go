package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/leitmotif-dev/stratum/internal/record"
	"github.com/leitmotif-dev/stratum/internal/schema"
)

// DeleteAllOfType removes every stored record of the entity type, and drops
// any working-set operations for it.
//
// Dangerous: with foreign keys on, the delete cascades into every record
// holding a ref to a deleted record, across entity types. No dry run and no
// referential check is performed; a later flush of a staged record that
// still refs a cascaded-away row will fail its foreign key constraint.
func (s *Store) DeleteAllOfType(ctx context.Context, entityType string) error {
	done := s.beginWrite()
	defer done()

	et, ok := s.model.EntityType(entityType)
	if !ok {
		return fmt.Errorf("delete all %s: %w", entityType, ErrUnknownEntityType)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", schema.QuoteIdent(et.Name))); err != nil {
		s.log.Error("delete all failed", "entity", entityType, "err", err)
		return fmt.Errorf("delete all %s: %w", et.Name, err)
	}

	s.dropPendingOfType(entityType)
	return nil
}

// ResetAll deletes every record of every entity type and discards the whole
// working set. Referencing entity types are cleared before their targets so
// the wipe does not lean on cascades. Intended for test and debug fixtures
// only.
func (s *Store) ResetAll(ctx context.Context) error {
	done := s.beginWrite()
	defer done()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, name := range s.model.DeletionOrder() {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", schema.QuoteIdent(name))); err != nil {
			s.log.Error("reset failed", "entity", name, "err", err)
			return fmt.Errorf("reset %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("reset failed", "err", err)
		return fmt.Errorf("reset: %w", err)
	}

	for _, op := range s.pending {
		op.rec.SetState(record.Deleted)
	}
	s.clearPending()
	return nil
}

// dropPendingOfType discards staged operations for one entity type.
// The dropped records are gone either way, so they are marked Deleted.
func (s *Store) dropPendingOfType(entityType string) {
	kept := s.pending[:0]
	for _, op := range s.pending {
		if op.rec.TypeName() == entityType {
			op.rec.SetState(record.Deleted)
			delete(s.index, pendingKey(entityType, op.rec.ID()))
			continue
		}
		kept = append(kept, op)
	}
	s.pending = kept
}

// DumpAll renders every record of every entity type as text, in model
// declaration order, records ordered by id. The entire persisted object
// graph is pulled into memory: debug-only, never on a production-sized
// store's hot path.
func (s *Store) DumpAll(ctx context.Context) (string, error) {
	var b strings.Builder
	for _, et := range s.model.Entities {
		recs, err := s.FetchAll(ctx, et.Name)
		if err != nil {
			return "", fmt.Errorf("dump %s: %w", et.Name, err)
		}
		fmt.Fprintf(&b, "== %s (%d records)\n", et.Name, len(recs))
		for _, rec := range recs {
			b.WriteString(rec.DumpAttributes())
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
