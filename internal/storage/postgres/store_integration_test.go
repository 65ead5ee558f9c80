//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB поднимает PostgreSQL в контейнере и возвращает мигрированное хранилище.
func setupTestDB(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("cars"),
		tcpostgres.WithUsername("cars"),
		tcpostgres.WithPassword("cars"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := New(dsn, Options{MaxOpenConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type seeded struct {
	country      *domain.Country
	manufacturer *domain.Manufacturer
	golf, passat *domain.Car
}

func seed(t *testing.T, s *Store) seeded {
	t.Helper()
	ctx := context.Background()
	var out seeded

	err := s.Atomic(ctx, func(tx storage.Tx) error {
		out.country = &domain.Country{Name: "Germany"}
		require.NoError(t, tx.SaveCountry(ctx, out.country))
		out.manufacturer = &domain.Manufacturer{Name: "Volkswagen", CountryID: out.country.ID}
		require.NoError(t, tx.SaveManufacturer(ctx, out.manufacturer))
		out.golf = &domain.Car{Name: "Golf", ManufacturerID: out.manufacturer.ID, ReleaseYear: 1974}
		require.NoError(t, tx.SaveCar(ctx, out.golf))
		out.passat = &domain.Car{Name: "Passat", ManufacturerID: out.manufacturer.ID, ReleaseYear: 1973}
		require.NoError(t, tx.SaveCar(ctx, out.passat))

		for i := range 8 {
			carID := out.golf.ID
			if i >= 3 {
				carID = out.passat.ID
			}
			require.NoError(t, tx.SaveComment(ctx, &domain.Comment{
				Email: "a@example.com", CarID: carID, CommentText: "integration comment",
			}))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestPostgres_Integration(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, s)

	t.Run("eager loading", func(t *testing.T) {
		m, err := s.GetManufacturer(ctx, f.manufacturer.ID)
		require.NoError(t, err)
		require.NotNil(t, m.Country)
		assert.Equal(t, "Germany", m.Country.Name)
		require.Len(t, m.Cars, 2)
		assert.Equal(t, "Golf", m.Cars[0].Name)
		assert.Len(t, m.Cars[0].Comments, 3)
		assert.Len(t, m.Cars[1].Comments, 5)

		comments, err := s.ListComments(ctx, storage.Filter{ParentID: f.golf.ID})
		require.NoError(t, err)
		require.Len(t, comments, 3)
		assert.Equal(t, "Volkswagen", comments[0].Car.Manufacturer.Name)
		assert.False(t, comments[0].CreatedAt.IsZero())
	})

	t.Run("search matches related names", func(t *testing.T) {
		manufacturers, err := s.ListManufacturers(ctx, storage.Filter{Search: "germ"})
		require.NoError(t, err)
		require.Len(t, manufacturers, 1)

		cars, err := s.ListCars(ctx, storage.Filter{Search: "VOLKS"})
		require.NoError(t, err)
		assert.Len(t, cars, 2)

		comments, err := s.ListComments(ctx, storage.Filter{Search: "passat"})
		require.NoError(t, err)
		assert.Len(t, comments, 5)
	})

	t.Run("case-insensitive unique index", func(t *testing.T) {
		err := s.Atomic(ctx, func(tx storage.Tx) error {
			taken, err := tx.NameTaken(ctx, domain.KindCountry, "GERMANY", 0)
			require.NoError(t, err)
			assert.True(t, taken)
			return tx.SaveCountry(ctx, &domain.Country{Name: "gErmany"})
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("missing parent", func(t *testing.T) {
		err := s.Atomic(ctx, func(tx storage.Tx) error {
			return tx.SaveCar(ctx, &domain.Car{Name: "Ghost", ManufacturerID: 999, ReleaseYear: 2000})
		})
		assert.ErrorIs(t, err, storage.ErrReference)
	})

	t.Run("created_at survives update", func(t *testing.T) {
		comments, err := s.ListComments(ctx, storage.Filter{ParentID: f.passat.ID})
		require.NoError(t, err)
		c := comments[0]
		created := c.CreatedAt

		c.CommentText = "updated integration comment"
		c.CreatedAt = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error { return tx.SaveComment(ctx, c) }))

		got, err := s.GetComment(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated integration comment", got.CommentText)
		assert.WithinDuration(t, created, got.CreatedAt, time.Microsecond)
	})

	t.Run("concurrent duplicate inserts", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = s.Atomic(ctx, func(tx storage.Tx) error {
					return tx.SaveCountry(ctx, &domain.Country{Name: "Japan"})
				})
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, storage.ErrConflict)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("cascade delete", func(t *testing.T) {
		require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error {
			return tx.Delete(ctx, domain.KindCountry, f.country.ID)
		}))

		cars, err := s.ListCars(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Empty(t, cars)
		comments, err := s.ListComments(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Empty(t, comments)

		_, err = s.GetManufacturer(ctx, f.manufacturer.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
