package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leitmotif-dev/stratum/internal/attr"
	"github.com/leitmotif-dev/stratum/internal/record"
)

func newCustomer(t *testing.T, s *Store, id, email string) *record.Record {
	t.Helper()
	et, ok := s.Model().EntityType("Customer")
	require.True(t, ok)
	rec := record.New(et, id)
	require.NoError(t, rec.Set("email", attr.String(email)))
	return rec
}

func newOrder(t *testing.T, s *Store, id, item string) *record.Record {
	t.Helper()
	et, ok := s.Model().EntityType("Order")
	require.True(t, ok)
	rec := record.New(et, id)
	require.NoError(t, rec.Set("item", attr.String(item)))
	return rec
}

func TestInsertOrUpdate_InsertThenFetch(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	c := newCustomer(t, s, "c1", "ada@example.com")
	require.NoError(t, c.Set("balance", attr.Float(12.5)))

	live, created, err := s.InsertOrUpdate(ctx, c, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Same(t, c, live)
	assert.Equal(t, record.Persisted, live.State())

	got, err := s.Fetch(ctx, "Customer", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)

	email, _ := got.Get("email")
	assert.Equal(t, attr.String("ada@example.com"), email)
	balance, _ := got.Get("balance")
	assert.Equal(t, attr.Float(12.5), balance)
}

// The central upsert scenario: same id inserted twice with different values
// yields exactly one stored record whose fields reflect the second call.
func TestInsertOrUpdate_OverwriteWins(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	first := newCustomer(t, s, "a1", "x")
	live, created, err := s.InsertOrUpdate(ctx, first, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Same(t, first, live)

	second := newCustomer(t, s, "a1", "y")
	live, created, err = s.InsertOrUpdate(ctx, second, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotSame(t, second, live, "the existing record stays the live instance")

	got, err := s.Fetch(ctx, "Customer", "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	email, _ := got.Get("email")
	assert.Equal(t, attr.String("y"), email)

	n, err := s.CountAll(ctx, "Customer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// Overwrite is total: attributes unset on the second record are cleared on
// the stored one, not merged.
func TestInsertOrUpdate_OverwriteClearsUnsetFields(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	first := newCustomer(t, s, "c1", "ada@example.com")
	require.NoError(t, first.Set("balance", attr.Float(10)))
	_, _, err := s.InsertOrUpdate(ctx, first, true)
	require.NoError(t, err)

	second := newCustomer(t, s, "c1", "ada@example.com")
	_, _, err = s.InsertOrUpdate(ctx, second, true)
	require.NoError(t, err)

	got, err := s.Fetch(ctx, "Customer", "c1")
	require.NoError(t, err)
	_, ok := got.Get("balance")
	assert.False(t, ok, "unset on the upserted record must clear the stored value")
}

func TestInsertOrUpdate_DeferredCommit(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	c := newCustomer(t, s, "c1", "ada@example.com")
	live, created, err := s.InsertOrUpdate(ctx, c, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, record.PendingInsert, live.State())
	assert.Equal(t, 1, s.PendingCount())

	// Visible through the working-set overlay before any flush.
	got, err := s.Fetch(ctx, "Customer", "c1")
	require.NoError(t, err)
	assert.Same(t, live, got)

	// But not yet durable.
	n, err := s.CountAll(ctx, "Customer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, record.Persisted, live.State())
	assert.Equal(t, 0, s.PendingCount())

	n, err = s.CountAll(ctx, "Customer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInsertOrUpdate_UpsertIntoWorkingSet(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	first := newCustomer(t, s, "c1", "x")
	live1, created, err := s.InsertOrUpdate(ctx, first, false)
	require.NoError(t, err)
	assert.True(t, created)

	// Second upsert with the same id finds the staged record, not a row.
	second := newCustomer(t, s, "c1", "y")
	live2, created, err := s.InsertOrUpdate(ctx, second, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, live1, live2)
	assert.Equal(t, 1, s.PendingCount())

	email, _ := live2.Get("email")
	assert.Equal(t, attr.String("y"), email)
}

func TestInsertOrUpdate_Validation(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	et, _ := s.Model().EntityType("Customer")

	noID := record.New(et, "")
	require.NoError(t, noID.Set("email", attr.String("x")))
	_, _, err := s.InsertOrUpdate(ctx, noID, true)
	require.ErrorIs(t, err, ErrMissingID)

	missingRequired := record.New(et, "c1")
	_, _, err = s.InsertOrUpdate(ctx, missingRequired, true)
	var reqErr *RequiredAttributeError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, []string{"email"}, reqErr.Attributes)
}

func TestInsertOrUpdate_ForeignTypeRejected(t *testing.T) {
	s := openTestStore(t, shopModel(t))

	// Same entity type name, different model instance: not this store's
	// descriptor, so the record is rejected.
	other := shopModel(t)
	et, _ := other.EntityType("Customer")
	rec := record.New(et, "c1")
	require.NoError(t, rec.Set("email", attr.String("x")))

	_, _, err := s.InsertOrUpdate(context.Background(), rec, true)
	require.ErrorIs(t, err, ErrUnknownEntityType)
}

// A flush failure still hands back the staged record: the working set was
// mutated, only durability failed.
func TestInsertOrUpdate_CommitFailureReturnsRecord(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	o := newOrder(t, s, "o1", "widget")
	require.NoError(t, o.Set("customer", attr.Ref("ghost"))) // no such Customer

	live, created, err := s.InsertOrUpdate(ctx, o, true)
	require.Error(t, err, "foreign key violation must surface")
	assert.True(t, created)
	require.NotNil(t, live)
	assert.Same(t, o, live)

	// No revert: the record is still staged and still pending.
	assert.Equal(t, 1, s.PendingCount())
	assert.Equal(t, record.PendingInsert, live.State())
}

func TestDelete_ThenFetchReturnsNothing(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	c := newCustomer(t, s, "c1", "ada@example.com")
	_, _, err := s.InsertOrUpdate(ctx, c, true)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c, true))
	assert.Equal(t, record.Deleted, c.State())

	got, err := s.Fetch(ctx, "Customer", "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// Deleting a record that was never inserted is a vacuous success.
func TestDelete_NeverInserted(t *testing.T) {
	s := openTestStore(t, shopModel(t))

	c := newCustomer(t, s, "a1", "x")
	require.NoError(t, s.Delete(context.Background(), c, true))
	assert.Equal(t, record.Deleted, c.State())
}

func TestDelete_CancelsPendingInsert(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	c := newCustomer(t, s, "c1", "x")
	_, _, err := s.InsertOrUpdate(ctx, c, false)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c, false))

	got, err := s.Fetch(ctx, "Customer", "c1")
	require.NoError(t, err)
	assert.Nil(t, got, "tombstone hides the staged insert")

	require.NoError(t, s.Commit(ctx))
	n, err := s.CountAll(ctx, "Customer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCommit_EmptyWorkingSet(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	require.NoError(t, s.Commit(context.Background()))
}

func TestCommit_FailureKeepsWorkingSet(t *testing.T) {
	s := openTestStore(t, shopModel(t))
	ctx := context.Background()

	o := newOrder(t, s, "o1", "widget")
	require.NoError(t, o.Set("customer", attr.Ref("ghost")))
	_, _, err := s.InsertOrUpdate(ctx, o, false)
	require.NoError(t, err)

	require.Error(t, s.Commit(ctx))
	assert.Equal(t, 1, s.PendingCount(), "failed flush must not clear the working set")

	// Fixing the cause lets the same working set commit.
	o.Unset("customer")
	_, _, err = s.InsertOrUpdate(ctx, o, false)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx))
	assert.Equal(t, 0, s.PendingCount())
}

func TestWriteGuard_PanicsOnOverlap(t *testing.T) {
	s := openTestStore(t, shopModel(t))

	// Simulate a write in flight on another goroutine.
	s.writing.Store(true)
	defer s.writing.Store(false)

	assert.Panics(t, func() {
		_ = s.Commit(context.Background())
	})
}

func TestUpdateFields_DeclarationOrderOverwrite(t *testing.T) {
	s := openTestStore(t, shopModel(t))

	dst := newCustomer(t, s, "c1", "old")
	require.NoError(t, dst.Set("balance", attr.Float(1)))

	src := newCustomer(t, s, "c1", "new")
	require.NoError(t, UpdateFields(dst, src))

	email, _ := dst.Get("email")
	assert.Equal(t, attr.String("new"), email)
	_, ok := dst.Get("balance")
	assert.False(t, ok)
}
