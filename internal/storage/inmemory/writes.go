package inmemory

import (
	"context"
	"fmt"
	"strings"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"
)

// === Lookup Methods ===

func (t *tables) NameTaken(_ context.Context, kind domain.Kind, name string, exceptID int64) (bool, error) {
	return t.nameTaken(kind, name, exceptID), nil
}

func (t *tables) nameTaken(kind domain.Kind, name string, exceptID int64) bool {
	match := func(id int64, other string) bool {
		return id != exceptID && strings.EqualFold(other, name)
	}
	switch kind {
	case domain.KindCountry:
		for id, c := range t.countries {
			if match(id, c.Name) {
				return true
			}
		}
	case domain.KindManufacturer:
		for id, m := range t.manufacturers {
			if match(id, m.Name) {
				return true
			}
		}
	case domain.KindCar:
		for id, c := range t.cars {
			if match(id, c.Name) {
				return true
			}
		}
	}
	return false
}

func (t *tables) Exists(_ context.Context, kind domain.Kind, id int64) (bool, error) {
	var ok bool
	switch kind {
	case domain.KindCountry:
		_, ok = t.countries[id]
	case domain.KindManufacturer:
		_, ok = t.manufacturers[id]
	case domain.KindCar:
		_, ok = t.cars[id]
	case domain.KindComment:
		_, ok = t.comments[id]
	default:
		return false, fmt.Errorf("unknown kind %q", kind)
	}
	return ok, nil
}

// === Write Methods ===
// Ограничения те же, что у схемы postgres: уникальные названия без учёта
// регистра и существующие родители.

// nextID ведёт отдельную последовательность для каждой таблицы, как serial в postgres.
func (t *tables) nextID(kind domain.Kind) int64 {
	t.lastID[kind]++
	return t.lastID[kind]
}

func (t *tables) SaveCountry(_ context.Context, c *domain.Country) error {
	if c.ID != 0 {
		if _, ok := t.countries[c.ID]; !ok {
			return &domain.NotFoundError{Kind: domain.KindCountry, ID: c.ID}
		}
	}
	if t.nameTaken(domain.KindCountry, c.Name, c.ID) {
		return fmt.Errorf("country %q: %w", c.Name, storage.ErrConflict)
	}
	if c.ID == 0 {
		c.ID = t.nextID(domain.KindCountry)
	}
	t.countries[c.ID] = domain.Country{ID: c.ID, Name: c.Name}
	return nil
}

func (t *tables) SaveManufacturer(_ context.Context, m *domain.Manufacturer) error {
	if m.ID != 0 {
		if _, ok := t.manufacturers[m.ID]; !ok {
			return &domain.NotFoundError{Kind: domain.KindManufacturer, ID: m.ID}
		}
	}
	if _, ok := t.countries[m.CountryID]; !ok {
		return fmt.Errorf("country %d: %w", m.CountryID, storage.ErrReference)
	}
	if t.nameTaken(domain.KindManufacturer, m.Name, m.ID) {
		return fmt.Errorf("manufacturer %q: %w", m.Name, storage.ErrConflict)
	}
	if m.ID == 0 {
		m.ID = t.nextID(domain.KindManufacturer)
	}
	t.manufacturers[m.ID] = domain.Manufacturer{ID: m.ID, Name: m.Name, CountryID: m.CountryID}
	return nil
}

func (t *tables) SaveCar(_ context.Context, c *domain.Car) error {
	if c.ID != 0 {
		if _, ok := t.cars[c.ID]; !ok {
			return &domain.NotFoundError{Kind: domain.KindCar, ID: c.ID}
		}
	}
	if _, ok := t.manufacturers[c.ManufacturerID]; !ok {
		return fmt.Errorf("manufacturer %d: %w", c.ManufacturerID, storage.ErrReference)
	}
	if t.nameTaken(domain.KindCar, c.Name, c.ID) {
		return fmt.Errorf("car %q: %w", c.Name, storage.ErrConflict)
	}
	if c.ID == 0 {
		c.ID = t.nextID(domain.KindCar)
	}
	row := domain.Car{ID: c.ID, Name: c.Name, ManufacturerID: c.ManufacturerID, ReleaseYear: c.ReleaseYear}
	if c.EndYear != nil {
		end := *c.EndYear
		row.EndYear = &end
	}
	t.cars[c.ID] = row
	return nil
}

func (t *tables) SaveComment(_ context.Context, c *domain.Comment) error {
	if c.ID != 0 {
		existing, ok := t.comments[c.ID]
		if !ok {
			return &domain.NotFoundError{Kind: domain.KindComment, ID: c.ID}
		}
		// created_at задаётся один раз при создании
		c.CreatedAt = existing.CreatedAt
	}
	if _, ok := t.cars[c.CarID]; !ok {
		return fmt.Errorf("car %d: %w", c.CarID, storage.ErrReference)
	}
	if c.ID == 0 {
		c.ID = t.nextID(domain.KindComment)
		c.CreatedAt = t.now()
	}
	t.comments[c.ID] = domain.Comment{
		ID:          c.ID,
		Email:       c.Email,
		CarID:       c.CarID,
		CreatedAt:   c.CreatedAt,
		CommentText: c.CommentText,
	}
	return nil
}

// Delete удаляет запись и всё, что на неё ссылается.
func (t *tables) Delete(_ context.Context, kind domain.Kind, id int64) error {
	switch kind {
	case domain.KindCountry:
		if _, ok := t.countries[id]; !ok {
			return &domain.NotFoundError{Kind: kind, ID: id}
		}
		delete(t.countries, id)
		for mid, m := range t.manufacturers {
			if m.CountryID == id {
				t.deleteManufacturer(mid)
			}
		}
	case domain.KindManufacturer:
		if _, ok := t.manufacturers[id]; !ok {
			return &domain.NotFoundError{Kind: kind, ID: id}
		}
		t.deleteManufacturer(id)
	case domain.KindCar:
		if _, ok := t.cars[id]; !ok {
			return &domain.NotFoundError{Kind: kind, ID: id}
		}
		t.deleteCar(id)
	case domain.KindComment:
		if _, ok := t.comments[id]; !ok {
			return &domain.NotFoundError{Kind: kind, ID: id}
		}
		delete(t.comments, id)
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
	return nil
}

func (t *tables) deleteManufacturer(id int64) {
	delete(t.manufacturers, id)
	for cid, c := range t.cars {
		if c.ManufacturerID == id {
			t.deleteCar(cid)
		}
	}
}

func (t *tables) deleteCar(id int64) {
	delete(t.cars, id)
	for cid, c := range t.comments {
		if c.CarID == id {
			delete(t.comments, cid)
		}
	}
}
