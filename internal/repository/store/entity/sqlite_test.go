package entity_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"neom/internal/repository/store/entity"
	"neom/pkg/ddd"
	"neom/pkg/platform/sentinel"
	"neom/pkg/platform/tx"
)

type SQLiteStoreSuite struct {
	suite.Suite
	path      string
	store     *entity.SQLiteStore
	customers *ddd.Schema
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "entities.db")
	var err error
	s.store, err = entity.OpenSQLite(context.Background(), s.path, "entities")
	s.Require().NoError(err)

	s.customers, err = ddd.NewEntity("Customer", []ddd.Field{
		ddd.Identity[int]("id"),
		ddd.Attr[string]("name"),
	}, ddd.WithEntitySupport())
	s.Require().NoError(err)
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *SQLiteStoreSuite) customer(id int, name string) *ddd.Instance {
	c, err := s.customers.New(id, name)
	s.Require().NoError(err)
	return c
}

func (s *SQLiteStoreSuite) TestRoundTripAndUpsert() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.customer(1, "ada")))
	s.Require().NoError(s.store.Save(ctx, s.customer(1, "ada lovelace")))

	found, err := s.store.Find(ctx, s.customers, 1)
	s.Require().NoError(err)
	s.Equal("ada lovelace", found.MustGet("name"))
	s.True(ddd.Equal(s.customer(1, "x"), found))

	n, err := s.store.Count(ctx, s.customers)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *SQLiteStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.Find(ctx, s.customers, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, s.customers, 99), sentinel.ErrNotFound)
}

func (s *SQLiteStoreSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.customer(2, "grace")))
	s.Require().NoError(s.store.Delete(ctx, s.customers, 2))

	_, err := s.store.Find(ctx, s.customers, 2)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SQLiteStoreSuite) TestSchemasAreSeparate() {
	ctx := context.Background()
	suppliers, err := ddd.NewEntity("Supplier", []ddd.Field{ddd.Identity[int]("id")}, ddd.WithEntitySupport())
	s.Require().NoError(err)
	sup, err := suppliers.New(1)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(ctx, s.customer(1, "ada")))
	s.Require().NoError(s.store.Save(ctx, sup))

	n, err := s.store.Count(ctx, s.customers)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *SQLiteStoreSuite) TestPersistsAcrossReopen() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.customer(3, "linus")))
	s.Require().NoError(s.store.Close())

	var err error
	s.store, err = entity.OpenSQLite(ctx, s.path, "entities")
	s.Require().NoError(err)
	found, err := s.store.Find(ctx, s.customers, 3)
	s.Require().NoError(err)
	s.Equal("linus", found.MustGet("name"))
}

func (s *SQLiteStoreSuite) openRaw() *sql.DB {
	db, err := sql.Open("sqlite", s.path)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })
	return db
}

func (s *SQLiteStoreSuite) TestMissingTableIsUnavailable() {
	_, err := entity.NewSQLite(s.openRaw(), "never_migrated").Count(context.Background(), s.customers)
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *SQLiteStoreSuite) TestTransactions() {
	ctx := context.Background()
	db := s.openRaw()
	store := entity.NewSQLite(db, "entities")

	errAbort := errors.New("abort")
	err := tx.Run(ctx, db, func(ctx context.Context) error {
		s.Require().NoError(store.Save(ctx, s.customer(10, "rolled back")))
		return errAbort
	})
	s.ErrorIs(err, errAbort)
	_, err = store.Find(ctx, s.customers, 10)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(tx.Run(ctx, db, func(ctx context.Context) error {
		return store.Save(ctx, s.customer(11, "committed"))
	}))
	found, err := s.store.Find(ctx, s.customers, 11)
	s.Require().NoError(err)
	s.Equal("committed", found.MustGet("name"))
}
