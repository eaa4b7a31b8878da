package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leitmotif-dev/stratum/internal/schema"
)

// shopModel builds the model used across the store tests: a Customer type
// exercising every scalar kind, and an Order type holding a ref to it.
func shopModel(t *testing.T) *schema.Model {
	t.Helper()
	m := &schema.Model{
		Name:    "shop",
		Version: 1,
		Entities: []schema.EntityType{
			{
				Name: "Customer",
				Attributes: []schema.Attribute{
					{Name: "email", Kind: schema.KindString, Required: true},
					{Name: "active", Kind: schema.KindBool},
					{Name: "balance", Kind: schema.KindFloat},
					{Name: "signedUp", Kind: schema.KindTime},
					{Name: "avatar", Kind: schema.KindBytes},
				},
			},
			{
				Name: "Order",
				Attributes: []schema.Attribute{
					{Name: "item", Kind: schema.KindString, Required: true},
					{Name: "qty", Kind: schema.KindInt},
					{Name: "customer", Kind: schema.KindRef, Target: "Customer"},
				},
			},
		},
	}
	require.NoError(t, m.Validate())
	return m
}

func openTestStore(t *testing.T, model *schema.Model) *Store {
	t.Helper()
	s, err := Open(model, "test.db", Options{
		Dir:    t.TempDir(),
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(shopModel(t), "shop.db", Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "shop.db"))
	require.NoError(t, err, "database file was not created")
	assert.Equal(t, filepath.Join(dir, "shop.db"), s.Path())
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	m := shopModel(t)

	for i := 0; i < 3; i++ {
		s, err := Open(m, "shop.db", Options{Dir: dir})
		require.NoError(t, err, "open iteration %d", i)

		var name string
		err = s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name='Customer'",
		).Scan(&name)
		require.NoError(t, err)
		s.Close()
	}
}

func TestOpen_RejectsBadFileName(t *testing.T) {
	m := shopModel(t)

	_, err := Open(m, "", Options{Dir: t.TempDir()})
	require.Error(t, err)

	_, err = Open(m, filepath.Join("sub", "shop.db"), Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path separators")
}

func TestOpen_RejectsDifferentModel(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(shopModel(t), "shop.db", Options{Dir: dir})
	require.NoError(t, err)
	s.Close()

	other := &schema.Model{
		Name:     "inventory",
		Version:  1,
		Entities: []schema.EntityType{{Name: "Widget"}},
	}
	require.NoError(t, other.Validate())

	_, err = Open(other, "shop.db", Options{Dir: dir})
	require.Error(t, err)

	var mismatch *ModelMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "shop", mismatch.StoreModel)
	assert.Equal(t, "inventory", mismatch.WantModel)
}

func TestOpen_RejectsNewerStoreFile(t *testing.T) {
	dir := t.TempDir()
	m := shopModel(t)
	m.Version = 5

	s, err := Open(m, "shop.db", Options{Dir: dir})
	require.NoError(t, err)
	s.Close()

	m2 := shopModel(t) // version 1
	_, err = Open(m2, "shop.db", Options{Dir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer")
}

func TestOpen_MigratesNewAttributes(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(shopModel(t), "shop.db", Options{Dir: dir})
	require.NoError(t, err)

	// Seed a row under the v1 model.
	c := newCustomer(t, s, "c1", "ada@example.com")
	_, _, err = s.InsertOrUpdate(context.Background(), c, true)
	require.NoError(t, err)
	s.Close()

	// v2 declares an extra attribute on Customer.
	m2 := shopModel(t)
	m2.Version = 2
	m2.Entities[0].Attributes = append(m2.Entities[0].Attributes,
		schema.Attribute{Name: "nickname", Kind: schema.KindString})
	require.NoError(t, m2.Validate())

	s2, err := Open(m2, "shop.db", Options{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	// The old row survives and the new column reads back as unset.
	rec, err := s2.Fetch(context.Background(), "Customer", "c1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	_, ok := rec.Get("nickname")
	assert.False(t, ok)

	var version int64
	require.NoError(t, s2.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, int64(2), version)
}

func TestOpen_RejectsChangedColumnKind(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(shopModel(t), "shop.db", Options{Dir: dir})
	require.NoError(t, err)
	s.Close()

	m2 := shopModel(t)
	m2.Version = 2
	m2.Entities[0].Attributes[1] = schema.Attribute{Name: "active", Kind: schema.KindString}
	require.NoError(t, m2.Validate())

	_, err = Open(m2, "shop.db", Options{Dir: dir})
	require.Error(t, err)

	var migErr *MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, "Customer", migErr.EntityType)
	assert.Equal(t, "active", migErr.Column)
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t, shopModel(t))

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	require.NoError(t, s.Close())
}
