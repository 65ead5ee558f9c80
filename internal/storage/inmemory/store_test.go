package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock выдаёт строго возрастающее время, чтобы порядок комментариев был детерминирован.
func tickingClock() func() time.Time {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var n int
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

type fixture struct {
	store        *Store
	country      *domain.Country
	manufacturer *domain.Manufacturer
	car          *domain.Car
}

// newTestStore создает хранилище со страной, производителем и автомобилем
func newTestStore(t *testing.T) fixture {
	store := newWithClock(tickingClock())
	ctx := context.Background()

	f := fixture{store: store}
	err := store.Atomic(ctx, func(tx storage.Tx) error {
		f.country = &domain.Country{Name: "Germany"}
		if err := tx.SaveCountry(ctx, f.country); err != nil {
			return err
		}
		f.manufacturer = &domain.Manufacturer{Name: "Volkswagen", CountryID: f.country.ID}
		if err := tx.SaveManufacturer(ctx, f.manufacturer); err != nil {
			return err
		}
		f.car = &domain.Car{Name: "Golf", ManufacturerID: f.manufacturer.ID, ReleaseYear: 1974}
		return tx.SaveCar(ctx, f.car)
	})
	require.NoError(t, err)
	return f
}

func (f fixture) addComment(t *testing.T, carID int64, text string) *domain.Comment {
	t.Helper()
	ctx := context.Background()
	c := &domain.Comment{Email: "user@example.com", CarID: carID, CommentText: text}
	require.NoError(t, f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SaveComment(ctx, c)
	}))
	return c
}

func (f fixture) addCar(t *testing.T, name string) *domain.Car {
	t.Helper()
	ctx := context.Background()
	c := &domain.Car{Name: name, ManufacturerID: f.manufacturer.ID, ReleaseYear: 2000}
	require.NoError(t, f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SaveCar(ctx, c)
	}))
	return c
}

func TestStore_CreateAndGetCountry(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()

	country, err := f.store.GetCountry(ctx, f.country.ID)
	require.NoError(t, err)
	assert.Equal(t, "Germany", country.Name)
	require.Len(t, country.Manufacturers, 1)
	assert.Equal(t, "Volkswagen", country.Manufacturers[0].Name)

	_, err = f.store.GetCountry(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_EagerLoadsRelations(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	f.addComment(t, f.car.ID, "first comment text")
	f.addComment(t, f.car.ID, "second comment text")

	car, err := f.store.GetCar(ctx, f.car.ID)
	require.NoError(t, err)
	require.NotNil(t, car.Manufacturer)
	require.NotNil(t, car.Manufacturer.Country)
	assert.Equal(t, "Germany", car.Manufacturer.Country.Name)
	require.Len(t, car.Comments, 2)
	// Сначала новые
	assert.Equal(t, "second comment text", car.Comments[0].CommentText)

	comments, err := f.store.ListComments(ctx, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Golf", comments[0].Car.Name)
	assert.Equal(t, "Volkswagen", comments[0].Car.Manufacturer.Name)
	assert.Equal(t, "Germany", comments[0].Car.Manufacturer.Country.Name)

	m, err := f.store.GetManufacturer(ctx, f.manufacturer.ID)
	require.NoError(t, err)
	require.Len(t, m.Cars, 1)
	assert.Len(t, m.Cars[0].Comments, 2)
	assert.Equal(t, "Germany", m.Country.Name)
}

func TestStore_UniqueNamesIgnoreCase(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()

	err := f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SaveCountry(ctx, &domain.Country{Name: "GERMANY"})
	})
	assert.ErrorIs(t, err, storage.ErrConflict)

	taken, err := f.store.data.NameTaken(ctx, domain.KindCar, "golf", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = f.store.data.NameTaken(ctx, domain.KindCar, "golf", f.car.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestStore_RejectsMissingParent(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()

	err := f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SaveComment(ctx, &domain.Comment{Email: "a@b.c", CarID: 42, CommentText: "hello there!"})
	})
	assert.ErrorIs(t, err, storage.ErrReference)
}

func TestStore_AtomicRollsBack(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := f.store.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.SaveCountry(ctx, &domain.Country{Name: "Japan"}); err != nil {
			return err
		}
		if err := tx.Delete(ctx, domain.KindCountry, f.country.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	countries, err := f.store.ListCountries(ctx, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "Germany", countries[0].Name)

	_, err = f.store.GetCar(ctx, f.car.ID)
	assert.NoError(t, err)
}

func TestStore_DeleteCascades(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	second := f.addCar(t, "Passat")
	f.addComment(t, f.car.ID, "comment on golf")
	f.addComment(t, second.ID, "comment on passat")

	require.NoError(t, f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Delete(ctx, domain.KindManufacturer, f.manufacturer.ID)
	}))

	cars, err := f.store.ListCars(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, cars)

	comments, err := f.store.ListComments(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, comments)

	// Страна остаётся
	_, err = f.store.GetCountry(ctx, f.country.ID)
	assert.NoError(t, err)
}

func TestStore_DeleteCountryCascadesTransitively(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	f.addComment(t, f.car.ID, "comment on golf")

	require.NoError(t, f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Delete(ctx, domain.KindCountry, f.country.ID)
	}))

	assert.Empty(t, f.store.data.manufacturers)
	assert.Empty(t, f.store.data.cars)
	assert.Empty(t, f.store.data.comments)

	err := f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Delete(ctx, domain.KindCountry, f.country.ID)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CommentCreatedAtIsImmutable(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	c := f.addComment(t, f.car.ID, "original comment")
	created := c.CreatedAt

	update := &domain.Comment{ID: c.ID, Email: c.Email, CarID: c.CarID, CommentText: "edited comment", CreatedAt: created.Add(time.Hour)}
	require.NoError(t, f.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.SaveComment(ctx, update)
	}))

	got, err := f.store.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited comment", got.CommentText)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestStore_Filters(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	passat := f.addCar(t, "Passat")
	f.addComment(t, passat.ID, "Passat is roomy")
	f.addComment(t, f.car.ID, "Golf is compact")

	cars, err := f.store.ListCars(ctx, storage.Filter{ReleaseYear: 2000})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Passat", cars[0].Name)

	cars, err = f.store.ListCars(ctx, storage.Filter{Search: "GOL"})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Golf", cars[0].Name)

	comments, err := f.store.ListComments(ctx, storage.Filter{ParentID: passat.ID})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Passat is roomy", comments[0].CommentText)

	manufacturers, err := f.store.ListManufacturers(ctx, storage.Filter{ParentID: f.country.ID + 100})
	require.NoError(t, err)
	assert.Empty(t, manufacturers)
}

func TestStore_SearchMatchesRelatedNames(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	f.addComment(t, f.car.ID, "compact and cheap")

	manufacturers, err := f.store.ListManufacturers(ctx, storage.Filter{Search: "germ"})
	require.NoError(t, err)
	require.Len(t, manufacturers, 1)
	assert.Equal(t, "Volkswagen", manufacturers[0].Name)

	cars, err := f.store.ListCars(ctx, storage.Filter{Search: "VOLKS"})
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, "Golf", cars[0].Name)

	comments, err := f.store.ListComments(ctx, storage.Filter{Search: "golf"})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "compact and cheap", comments[0].CommentText)

	countries, err := f.store.ListCountries(ctx, storage.Filter{Search: "volks"})
	require.NoError(t, err)
	assert.Empty(t, countries)
}

func TestStore_ListOrderedByName(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	f.addCar(t, "Arteon")
	f.addCar(t, "Polo")

	cars, err := f.store.ListCars(ctx, storage.Filter{})
	require.NoError(t, err)
	names := make([]string, len(cars))
	for i, c := range cars {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Arteon", "Golf", "Polo"}, names)
}
