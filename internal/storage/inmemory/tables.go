package inmemory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"
)

// === Assembly ===
// Сборка связей повторяет жадную загрузку postgres-хранилища.

func byName[T any](name func(T) string, id func(T) int64) func(a, b T) int {
	return func(a, b T) int {
		if c := cmp.Compare(name(a), name(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	}
}

var (
	manufacturerOrder = byName(func(m *domain.Manufacturer) string { return m.Name }, func(m *domain.Manufacturer) int64 { return m.ID })
	carOrder          = byName(func(c *domain.Car) string { return c.Name }, func(c *domain.Car) int64 { return c.ID })
	countryOrder      = byName(func(c *domain.Country) string { return c.Name }, func(c *domain.Country) int64 { return c.ID })
)

// newestFirst - порядок комментариев: сначала новые.
func newestFirst(a, b *domain.Comment) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (t *tables) countryRow(id int64) *domain.Country {
	c, ok := t.countries[id]
	if !ok {
		return nil
	}
	return &c
}

func (t *tables) country(c domain.Country) *domain.Country {
	for _, m := range t.manufacturers {
		if m.CountryID == c.ID {
			c.Manufacturers = append(c.Manufacturers, &m)
		}
	}
	slices.SortFunc(c.Manufacturers, manufacturerOrder)
	return &c
}

func (t *tables) manufacturer(m domain.Manufacturer) *domain.Manufacturer {
	m.Country = t.countryRow(m.CountryID)
	for _, car := range t.cars {
		if car.ManufacturerID == m.ID {
			car.Comments = t.carComments(car.ID)
			m.Cars = append(m.Cars, &car)
		}
	}
	slices.SortFunc(m.Cars, carOrder)
	return &m
}

func (t *tables) manufacturerRow(id int64) *domain.Manufacturer {
	m, ok := t.manufacturers[id]
	if !ok {
		return nil
	}
	m.Country = t.countryRow(m.CountryID)
	return &m
}

func (t *tables) carComments(carID int64) []*domain.Comment {
	var out []*domain.Comment
	for _, c := range t.comments {
		if c.CarID == carID {
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out
}

func (t *tables) car(c domain.Car) *domain.Car {
	c.Manufacturer = t.manufacturerRow(c.ManufacturerID)
	c.Comments = t.carComments(c.ID)
	return &c
}

func (t *tables) comment(c domain.Comment) *domain.Comment {
	if car, ok := t.cars[c.CarID]; ok {
		car.Manufacturer = t.manufacturerRow(car.ManufacturerID)
		c.Car = &car
	}
	return &c
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (t *tables) countryName(id int64) string {
	return t.countries[id].Name
}

func (t *tables) manufacturerName(id int64) string {
	return t.manufacturers[id].Name
}

func (t *tables) carName(id int64) string {
	return t.cars[id].Name
}

// === Read Methods ===

func (t *tables) ListCountries(_ context.Context, f storage.Filter) ([]*domain.Country, error) {
	out := make([]*domain.Country, 0, len(t.countries))
	for _, c := range t.countries {
		if f.Search != "" && !contains(c.Name, f.Search) {
			continue
		}
		out = append(out, t.country(c))
	}
	slices.SortFunc(out, countryOrder)
	return out, nil
}

func (t *tables) GetCountry(_ context.Context, id int64) (*domain.Country, error) {
	c, ok := t.countries[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindCountry, ID: id}
	}
	return t.country(c), nil
}

func (t *tables) ListManufacturers(_ context.Context, f storage.Filter) ([]*domain.Manufacturer, error) {
	out := make([]*domain.Manufacturer, 0, len(t.manufacturers))
	for _, m := range t.manufacturers {
		if f.ParentID != 0 && m.CountryID != f.ParentID {
			continue
		}
		if f.Search != "" && !contains(m.Name, f.Search) && !contains(t.countryName(m.CountryID), f.Search) {
			continue
		}
		out = append(out, t.manufacturer(m))
	}
	slices.SortFunc(out, manufacturerOrder)
	return out, nil
}

func (t *tables) GetManufacturer(_ context.Context, id int64) (*domain.Manufacturer, error) {
	m, ok := t.manufacturers[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindManufacturer, ID: id}
	}
	return t.manufacturer(m), nil
}

func (t *tables) ListCars(_ context.Context, f storage.Filter) ([]*domain.Car, error) {
	out := make([]*domain.Car, 0, len(t.cars))
	for _, c := range t.cars {
		if f.ParentID != 0 && c.ManufacturerID != f.ParentID {
			continue
		}
		if f.ReleaseYear != 0 && c.ReleaseYear != f.ReleaseYear {
			continue
		}
		if f.Search != "" && !contains(c.Name, f.Search) && !contains(t.manufacturerName(c.ManufacturerID), f.Search) {
			continue
		}
		out = append(out, t.car(c))
	}
	slices.SortFunc(out, carOrder)
	return out, nil
}

func (t *tables) GetCar(_ context.Context, id int64) (*domain.Car, error) {
	c, ok := t.cars[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindCar, ID: id}
	}
	return t.car(c), nil
}

func (t *tables) ListComments(_ context.Context, f storage.Filter) ([]*domain.Comment, error) {
	out := make([]*domain.Comment, 0, len(t.comments))
	for _, c := range t.comments {
		if f.ParentID != 0 && c.CarID != f.ParentID {
			continue
		}
		if f.Search != "" && !contains(c.Email, f.Search) && !contains(c.CommentText, f.Search) && !contains(t.carName(c.CarID), f.Search) {
			continue
		}
		out = append(out, t.comment(c))
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (t *tables) GetComment(_ context.Context, id int64) (*domain.Comment, error) {
	c, ok := t.comments[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.KindComment, ID: id}
	}
	return t.comment(c), nil
}
