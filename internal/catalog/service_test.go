package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"
	"github.com/UkralStul/car-reviews-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type seeded struct {
	svc          *Service
	store        *inmemory.Store
	country      *domain.Country
	manufacturer *domain.Manufacturer
	car          *domain.Car
}

// newTestService создает сервис поверх in-memory хранилища со страной, производителем и автомобилем
func newTestService(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	store := inmemory.New()
	svc := NewService(store)

	country, err := svc.SaveCountry(ctx, ModeCreate, 0, CountryInput{Name: ptr("Germany")})
	require.NoError(t, err)
	m, err := svc.SaveManufacturer(ctx, ModeCreate, 0, ManufacturerInput{Name: ptr("Volkswagen"), Country: &country.ID})
	require.NoError(t, err)
	car, err := svc.SaveCar(ctx, ModeCreate, 0, CarInput{Name: ptr("Golf"), Manufacturer: &m.ID, ReleaseYear: ptr(1974)})
	require.NoError(t, err)

	return seeded{svc: svc, store: store, country: country, manufacturer: m, car: car}
}

func requireCode(t *testing.T, err error, field, code string) {
	t.Helper()
	errs, ok := domain.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.True(t, errs.HasCode(field, code), "expected %s/%s in %v", field, code, errs)
}

func TestService_DuplicateNamesDifferingOnlyInCase(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.svc.SaveCountry(ctx, ModeCreate, 0, CountryInput{Name: ptr("GERMANY")})
	requireCode(t, err, "name", domain.CodeDuplicateName)

	_, err = s.svc.SaveManufacturer(ctx, ModeCreate, 0, ManufacturerInput{Name: ptr("volkswagen"), Country: &s.country.ID})
	requireCode(t, err, "name", domain.CodeDuplicateName)

	_, err = s.svc.SaveCar(ctx, ModeCreate, 0, CarInput{Name: ptr(" gOLF "), Manufacturer: &s.manufacturer.ID, ReleaseYear: ptr(1990)})
	requireCode(t, err, "name", domain.CodeDuplicateName)

	// Переименование в собственное имя в другом регистре разрешено
	renamed, err := s.svc.SaveCountry(ctx, ModePatch, s.country.ID, CountryInput{Name: ptr("GERMANY")})
	require.NoError(t, err)
	assert.Equal(t, "GERMANY", renamed.Name)
}

func TestService_CommentTextBounds(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, text := range []string{"   tiny   ", strings.Repeat("x", 1001)} {
		_, err := s.svc.SaveComment(ctx, ModeCreate, 0, CommentInput{
			Email: ptr("a@example.com"), Car: &s.car.ID, CommentText: ptr(text),
		})
		require.Error(t, err)
	}

	comments, err := s.svc.ListComments(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, comments, "failed writes must not persist rows")

	c, err := s.svc.SaveComment(ctx, ModeCreate, 0, CommentInput{
		Email: ptr(" a@example.com "), Car: &s.car.ID, CommentText: ptr("   a perfectly fine comment   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", c.Email)
	assert.Equal(t, "a perfectly fine comment", c.CommentText)
	assert.False(t, c.CreatedAt.IsZero())
	require.NotNil(t, c.Car)
	assert.Equal(t, "Golf", c.Car.Name)
}

func TestService_CommentValidationCollectsAllFields(t *testing.T) {
	s := newTestService(t)

	_, err := s.svc.SaveComment(context.Background(), ModeCreate, 0, CommentInput{
		Email: ptr(""), Car: ptr(int64(404)), CommentText: ptr("short"),
	})
	requireCode(t, err, "email", domain.CodeEmptyEmail)
	requireCode(t, err, "car", domain.CodeCarNotFound)
	requireCode(t, err, "comment_text", domain.CodeTooShort)
}

func TestService_RequiredFieldsOnCreate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.svc.SaveCar(ctx, ModeCreate, 0, CarInput{})
	requireCode(t, err, "name", domain.CodeRequired)
	requireCode(t, err, "manufacturer", domain.CodeRequired)
	requireCode(t, err, "release_year", domain.CodeRequired)

	_, err = s.svc.SaveManufacturer(ctx, ModeCreate, 0, ManufacturerInput{Name: ptr("Audi"), Country: ptr(int64(77))})
	requireCode(t, err, "country", domain.CodeCountryNotFound)
}

func TestService_EndYear(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	assert.Nil(t, s.car.EndYear)

	_, err := s.svc.SaveCar(ctx, ModePatch, s.car.ID, CarInput{EndYear: NullInt{Set: true, Value: ptr(1970)}})
	requireCode(t, err, "end_year", domain.CodeEndBeforeRelease)

	car, err := s.svc.SaveCar(ctx, ModePatch, s.car.ID, CarInput{EndYear: NullInt{Set: true, Value: ptr(2020)}})
	require.NoError(t, err)
	require.NotNil(t, car.EndYear)
	assert.Equal(t, 2020, *car.EndYear)

	// PATCH без end_year его не трогает
	car, err = s.svc.SaveCar(ctx, ModePatch, s.car.ID, CarInput{Name: ptr("Golf Mk1")})
	require.NoError(t, err)
	require.NotNil(t, car.EndYear)

	// Явный null снова делает модель выпускаемой
	car, err = s.svc.SaveCar(ctx, ModePatch, s.car.ID, CarInput{EndYear: NullInt{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, car.EndYear)
}

func TestService_ReplaceKeepsOmittedEndYear(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.svc.SaveCar(ctx, ModePatch, s.car.ID, CarInput{EndYear: NullInt{Set: true, Value: ptr(2020)}})
	require.NoError(t, err)

	car, err := s.svc.SaveCar(ctx, ModeReplace, s.car.ID, CarInput{
		Name: ptr("Golf"), Manufacturer: &s.manufacturer.ID, ReleaseYear: ptr(1974),
	})
	require.NoError(t, err)
	require.NotNil(t, car.EndYear)
	assert.Equal(t, 2020, *car.EndYear)

	car, err = s.svc.SaveCar(ctx, ModeReplace, s.car.ID, CarInput{
		Name: ptr("Golf"), Manufacturer: &s.manufacturer.ID, ReleaseYear: ptr(1974), EndYear: NullInt{Set: true},
	})
	require.NoError(t, err)
	assert.Nil(t, car.EndYear)
}

func TestService_ReplaceRequiresAllFields(t *testing.T) {
	s := newTestService(t)

	_, err := s.svc.SaveCar(context.Background(), ModeReplace, s.car.ID, CarInput{Name: ptr("Golf")})
	requireCode(t, err, "manufacturer", domain.CodeRequired)
	requireCode(t, err, "release_year", domain.CodeRequired)
}

func TestService_UpdateMissingEntity(t *testing.T) {
	s := newTestService(t)

	_, err := s.svc.SaveCountry(context.Background(), ModePatch, 999, CountryInput{Name: ptr("Italy")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_CommentCreatedAtSurvivesUpdate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	c, err := s.svc.SaveComment(ctx, ModeCreate, 0, CommentInput{
		Email: ptr("a@example.com"), Car: &s.car.ID, CommentText: ptr("original comment text"),
	})
	require.NoError(t, err)

	updated, err := s.svc.SaveComment(ctx, ModePatch, c.ID, CommentInput{CommentText: ptr("edited comment text")})
	require.NoError(t, err)
	assert.Equal(t, "edited comment text", updated.CommentText)
	assert.True(t, c.CreatedAt.Equal(updated.CreatedAt))
}

func TestService_DeleteManufacturerCascades(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	passat, err := s.svc.SaveCar(ctx, ModeCreate, 0, CarInput{Name: ptr("Passat"), Manufacturer: &s.manufacturer.ID, ReleaseYear: ptr(1973)})
	require.NoError(t, err)
	for _, carID := range []int64{s.car.ID, passat.ID} {
		_, err := s.svc.SaveComment(ctx, ModeCreate, 0, CommentInput{
			Email: ptr("a@example.com"), Car: &carID, CommentText: ptr("comment to be removed"),
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.svc.Delete(ctx, domain.KindManufacturer, s.manufacturer.ID))

	cars, err := s.svc.ListCars(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, cars)
	comments, err := s.svc.ListComments(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, s.svc.Delete(ctx, domain.KindManufacturer, s.manufacturer.ID), domain.ErrNotFound)
}

// racingStore имитирует конкурентную запись, которая прошла между проверкой и вставкой.
type racingStore struct {
	*inmemory.Store
}

type racingTx struct {
	storage.Tx
}

func (racingTx) SaveCountry(context.Context, *domain.Country) error {
	return fmt.Errorf("idx_countries_name_lower: %w", storage.ErrConflict)
}

func (racingTx) SaveCar(context.Context, *domain.Car) error {
	return fmt.Errorf("fk_manufacturers_cars: %w", storage.ErrReference)
}

func (s racingStore) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.Atomic(ctx, func(tx storage.Tx) error {
		return fn(racingTx{tx})
	})
}

func TestService_TranslatesIntegrityErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	svc := NewService(racingStore{s.store})

	_, err := svc.SaveCountry(ctx, ModeCreate, 0, CountryInput{Name: ptr("Japan")})
	requireCode(t, err, "name", domain.CodeDuplicateName)

	_, err = svc.SaveCar(ctx, ModeCreate, 0, CarInput{Name: ptr("Polo"), Manufacturer: &s.manufacturer.ID, ReleaseYear: ptr(1975)})
	requireCode(t, err, "manufacturer", domain.CodeManufacturerNotFound)
}

func TestNullInt_Unmarshal(t *testing.T) {
	var in CarInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Golf"}`), &in))
	assert.False(t, in.EndYear.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"end_year":null}`), &in))
	assert.True(t, in.EndYear.Set)
	assert.Nil(t, in.EndYear.Value)

	in = CarInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"end_year":2001}`), &in))
	require.NotNil(t, in.EndYear.Value)
	assert.Equal(t, 2001, *in.EndYear.Value)

	assert.Error(t, json.Unmarshal([]byte(`{"end_year":"soon"}`), &in))
}
