//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"kitties/internal/kitty/models"
	"kitties/internal/kitty/store"
	id "kitties/pkg/domain"
	"kitties/pkg/platform/sentinel"
	"kitties/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	tx       *store.PostgresTx
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.tx = store.NewPostgresTx(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "kitties", "outbox")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	k := &models.Kitty{DNA: id.DNA{1, 2}, Owner: id.AccountID{3}, Gender: models.GenderFemale}

	s.Require().NoError(s.store.Insert(ctx, k))

	found, err := s.store.FindByDNA(ctx, k.DNA)
	s.Require().NoError(err)
	s.Equal(*k, *found)

	ok, err := s.store.Contains(ctx, k.DNA)
	s.Require().NoError(err)
	s.True(ok)

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestDuplicateIsAlreadyUsed() {
	ctx := context.Background()
	k := &models.Kitty{DNA: id.DNA{7}, Owner: id.AccountID{3}}

	s.Require().NoError(s.store.Insert(ctx, k))
	err := s.store.Insert(ctx, &models.Kitty{DNA: id.DNA{7}, Owner: id.AccountID{4}})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByDNA(ctx, k.DNA)
	s.Require().NoError(err)
	s.Equal(k.Owner, found.Owner)
}

func (s *PostgresStoreSuite) TestMissing() {
	_, err := s.store.FindByDNA(context.Background(), id.DNA{9})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRollbackLeavesNoRow() {
	ctx := context.Background()
	k := &models.Kitty{DNA: id.DNA{8}, Owner: id.AccountID{3}}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Insert(txCtx, k))
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	ok, err := s.store.Contains(ctx, k.DNA)
	s.Require().NoError(err)
	s.False(ok)
}

// TestConcurrentInsertSameDNA verifies exactly one writer wins a DNA.
func (s *PostgresStoreSuite) TestConcurrentInsertSameDNA() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var wins, dupes atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
				return s.store.Insert(txCtx, &models.Kitty{DNA: id.DNA{5}, Owner: id.AccountID{byte(i + 1)}})
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				dupes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), dupes.Load())
}
