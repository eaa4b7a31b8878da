package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/leitmotif-dev/stratum/internal/record"
	"github.com/leitmotif-dev/stratum/internal/schema"
)

type opKind uint8

const (
	opUpsert opKind = iota + 1
	opDelete
)

// pendingOp is one staged working-set operation. Re-staging the same
// (entity type, id) replaces the operation in place, keeping its position
// in staging order.
type pendingOp struct {
	kind opKind
	rec  *record.Record
}

func pendingKey(entityType, id string) string {
	return entityType + "\x00" + id
}

// stage records an operation in the working set.
func (s *Store) stage(kind opKind, rec *record.Record) {
	key := pendingKey(rec.TypeName(), rec.ID())
	if op, ok := s.index[key]; ok {
		op.kind = kind
		op.rec = rec
		return
	}
	op := &pendingOp{kind: kind, rec: rec}
	s.pending = append(s.pending, op)
	s.index[key] = op
}

// UpdateFields overwrites every declared attribute of dst with src's value,
// in declaration order. This is the store's merge policy: the in-memory
// source always wins, attribute by attribute, with no field-level conflict
// resolution.
func UpdateFields(dst, src *record.Record) error {
	return dst.CopyFieldsFrom(src)
}

// InsertOrUpdate stages an upsert for rec and returns the live record.
//
// If a record with the same (entity type, id) is already visible - stored or
// staged - its attribute values are overwritten from rec and that existing
// instance stays the live record; rec itself is then discarded by the
// caller. Otherwise rec is staged as a new insert and created is true.
//
// With commit true the working set is flushed before returning. On flush
// failure the staged record is still returned alongside the error: the
// working set was mutated and only durability failed, and the caller keeps a
// handle to what is actually staged.
func (s *Store) InsertOrUpdate(ctx context.Context, rec *record.Record, commit bool) (*record.Record, bool, error) {
	done := s.beginWrite()
	defer done()

	if err := s.checkStageable(rec); err != nil {
		return nil, false, err
	}

	existing, err := s.Fetch(ctx, rec.TypeName(), rec.ID())
	if err != nil {
		return nil, false, fmt.Errorf("insert or update %s %q: %w", rec.TypeName(), rec.ID(), err)
	}

	created := false
	live := rec
	switch {
	case existing == nil:
		created = true
		rec.SetState(record.PendingInsert)
	case existing != rec:
		if err := UpdateFields(existing, rec); err != nil {
			return nil, false, err
		}
		if existing.State() == record.Persisted {
			existing.SetState(record.PendingUpdate)
		}
		live = existing
	default:
		// The caller re-upserted the instance already staged or fetched.
		if rec.State() == record.Persisted {
			rec.SetState(record.PendingUpdate)
		}
	}
	s.stage(opUpsert, live)

	if commit {
		if err := s.flush(ctx); err != nil {
			return live, created, err
		}
	}
	return live, created, nil
}

// Delete stages a tombstone for rec. Deleting a record that was never
// stored is vacuously successful: the flush's DELETE affects zero rows.
// With commit true the working set is flushed before returning.
func (s *Store) Delete(ctx context.Context, rec *record.Record, commit bool) error {
	done := s.beginWrite()
	defer done()

	if err := s.checkKnownType(rec); err != nil {
		return err
	}
	if rec.ID() == "" {
		return fmt.Errorf("delete %s: %w", rec.TypeName(), ErrMissingID)
	}

	rec.SetState(record.PendingDelete)
	s.stage(opDelete, rec)

	if commit {
		return s.flush(ctx)
	}
	return nil
}

// Commit flushes the working set to durable storage in one transaction.
// Failure is logged and returned; the working set stays as staged, with no
// automatic revert or retry.
func (s *Store) Commit(ctx context.Context) error {
	done := s.beginWrite()
	defer done()
	return s.flush(ctx)
}

// flush writes the working set inside one transaction and, on success,
// advances record states and clears the set. Callers hold the write guard.
func (s *Store) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("commit failed", "err", err)
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	for _, op := range s.pending {
		switch op.kind {
		case opUpsert:
			query, args := upsertSQL(op.rec)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				s.log.Error("commit failed", "entity", op.rec.TypeName(), "id", op.rec.ID(), "err", err)
				return fmt.Errorf("commit: upsert %s %q: %w", op.rec.TypeName(), op.rec.ID(), err)
			}
		case opDelete:
			query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", schema.QuoteIdent(op.rec.TypeName()))
			if _, err := tx.ExecContext(ctx, query, op.rec.ID()); err != nil {
				s.log.Error("commit failed", "entity", op.rec.TypeName(), "id", op.rec.ID(), "err", err)
				return fmt.Errorf("commit: delete %s %q: %w", op.rec.TypeName(), op.rec.ID(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		s.log.Error("commit failed", "err", err)
		return fmt.Errorf("commit: %w", err)
	}

	for _, op := range s.pending {
		if op.kind == opDelete {
			op.rec.SetState(record.Deleted)
		} else {
			op.rec.SetState(record.Persisted)
		}
	}
	s.clearPending()
	return nil
}

func (s *Store) clearPending() {
	s.pending = nil
	s.index = make(map[string]*pendingOp)
}

// checkStageable validates a record before it enters the working set:
// known entity type, non-empty id, required attributes present.
func (s *Store) checkStageable(rec *record.Record) error {
	if err := s.checkKnownType(rec); err != nil {
		return err
	}
	if rec.ID() == "" {
		return fmt.Errorf("insert or update %s: %w", rec.TypeName(), ErrMissingID)
	}
	if missing := rec.MissingRequired(); len(missing) > 0 {
		return &RequiredAttributeError{EntityType: rec.TypeName(), Attributes: missing}
	}
	return nil
}

// checkKnownType ensures the record's descriptor belongs to this store's
// model, not just one with the same name.
func (s *Store) checkKnownType(rec *record.Record) error {
	et, ok := s.model.EntityType(rec.TypeName())
	if !ok || et != rec.EntityType() {
		return fmt.Errorf("%s: %w", rec.TypeName(), ErrUnknownEntityType)
	}
	return nil
}

// upsertSQL renders INSERT ... ON CONFLICT(id) DO UPDATE for a record, with
// every declared attribute bound in declaration order. Unset attributes
// bind as NULL, which makes the stored row a full overwrite of the staged
// record, never a partial merge.
func upsertSQL(rec *record.Record) (string, []any) {
	et := rec.EntityType()

	cols := make([]string, 0, len(et.Attributes)+1)
	placeholders := make([]string, 0, len(et.Attributes)+1)
	updates := make([]string, 0, len(et.Attributes))
	args := make([]any, 0, len(et.Attributes)+1)

	cols = append(cols, "id")
	placeholders = append(placeholders, "?")
	args = append(args, rec.ID())

	for _, a := range et.Attributes {
		col := schema.QuoteIdent(a.Name)
		cols = append(cols, col)
		placeholders = append(placeholders, "?")
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))

		v, _ := rec.Get(a.Name)
		args = append(args, bindValue(v))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdent(et.Name), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if len(updates) > 0 {
		fmt.Fprintf(&b, " ON CONFLICT(id) DO UPDATE SET %s", strings.Join(updates, ", "))
	} else {
		b.WriteString(" ON CONFLICT(id) DO NOTHING")
	}
	return b.String(), args
}
