package repo_test

import (
	"context"
	"io"
	"log"
	"os"
	"testing"

	"Vault/internal/config"
	dom "Vault/internal/domain"
	"Vault/internal/repo"
	"Vault/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T, uri string) repo.RecordRepo {
	t.Helper()
	c := store.NewClient(config.StoreConfig{URI: uri}, log.New(io.Discard, "", 0))
	coll, err := c.Collection(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return coll
}

func TestSQLiteRecordRepo(t *testing.T) {
	runRepoSuite(t, func(t *testing.T) repo.RecordRepo {
		return openRepo(t, "sqlite::memory:")
	})
}

func TestPGRecordRepo(t *testing.T) {
	uri := os.Getenv("VAULT_TEST_PG_URI")
	if uri == "" {
		t.Skip("VAULT_TEST_PG_URI not set")
	}
	runRepoSuite(t, func(t *testing.T) repo.RecordRepo {
		r := openRepo(t, uri)
		clearAll(t, r)
		return r
	})
}

func clearAll(t *testing.T, r repo.RecordRepo) {
	ctx := context.Background()
	all, err := r.Find(ctx, repo.Filter{})
	require.NoError(t, err)
	for _, rec := range all {
		require.NoError(t, r.DeleteOne(ctx, rec.ID))
	}
}

func seed(t *testing.T, r repo.RecordRepo, recs ...dom.Record) {
	for _, rec := range recs {
		require.NoError(t, r.InsertOne(context.Background(), rec))
	}
}

func names(list []dom.Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Name
	}
	return out
}

func runRepoSuite(t *testing.T, open func(t *testing.T) repo.RecordRepo) {
	ctx := context.Background()
	john := dom.Record{ID: "100001", Name: "John", CreatedAt: "2026-02-01"}
	jolly := dom.Record{ID: "100002", Name: "jolly", CreatedAt: "2025-12-24"}
	amy := dom.Record{ID: "100003", Name: "Amy", CreatedAt: "2026-01-15"}

	t.Run("find all on empty collection", func(t *testing.T) {
		r := open(t)
		list, err := r.Find(ctx, repo.Filter{})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("insert and find one", func(t *testing.T) {
		r := open(t)
		seed(t, r, john)

		got, err := r.FindOne(ctx, john.ID)
		require.NoError(t, err)
		assert.Equal(t, john, got)

		_, err = r.FindOne(ctx, "999999")
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		r := open(t)
		seed(t, r, john)
		err := r.InsertOne(ctx, dom.Record{ID: john.ID, Name: "Other", CreatedAt: "2026-02-02"})
		assert.ErrorIs(t, err, repo.ErrDuplicateID)
	})

	t.Run("find by id is exact", func(t *testing.T) {
		r := open(t)
		seed(t, r, john, jolly, amy)

		list, err := r.Find(ctx, repo.ByID("100002"))
		require.NoError(t, err)
		assert.Equal(t, []dom.Record{jolly}, list)

		list, err = r.Find(ctx, repo.ByID("10000"))
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = r.Find(ctx, repo.ByID(""))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("find by name ignores case", func(t *testing.T) {
		r := open(t)
		seed(t, r, john, jolly, amy)

		list, err := r.Find(ctx, repo.ByName("jo"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"John", "jolly"}, names(list))

		list, err = r.Find(ctx, repo.ByName("MY"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Amy"}, names(list))

		list, err = r.Find(ctx, repo.ByName("zzz"))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("update name returns after image", func(t *testing.T) {
		r := open(t)
		seed(t, r, john)

		got, err := r.FindOneAndUpdateName(ctx, john.ID, "Johnny")
		require.NoError(t, err)
		assert.Equal(t, dom.Record{ID: john.ID, Name: "Johnny", CreatedAt: john.CreatedAt}, got)

		stored, err := r.FindOne(ctx, john.ID)
		require.NoError(t, err)
		assert.Equal(t, "Johnny", stored.Name)

		_, err = r.FindOneAndUpdateName(ctx, "999999", "x")
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("delete one", func(t *testing.T) {
		r := open(t)
		seed(t, r, john, amy)

		require.NoError(t, r.DeleteOne(ctx, john.ID))
		assert.ErrorIs(t, r.DeleteOne(ctx, john.ID), repo.ErrNotFound)

		list, err := r.Find(ctx, repo.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []dom.Record{amy}, list)
	})

	t.Run("sort by attribute", func(t *testing.T) {
		r := open(t)
		seed(t, r, john, jolly, amy)

		asc, err := r.FindSorted(ctx, "createdAt", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"jolly", "Amy", "John"}, names(asc))

		desc, err := r.FindSorted(ctx, "name", true)
		require.NoError(t, err)
		// byte order: lower case sorts after upper case
		assert.Equal(t, []string{"jolly", "John", "Amy"}, names(desc))
	})

	t.Run("sort by unknown attribute keeps every record", func(t *testing.T) {
		r := open(t)
		seed(t, r, john, jolly, amy)

		list, err := r.FindSorted(ctx, "colour", false)
		require.NoError(t, err)
		assert.ElementsMatch(t, []dom.Record{john, jolly, amy}, list)
	})
}
