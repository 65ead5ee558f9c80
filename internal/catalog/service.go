// Package catalog - слой записи каталога. Каждая операция записи выполняется
// в одной транзакции хранилища: правила из validation читают состояние таблиц
// через ту же транзакцию, в которой затем происходит вставка или обновление.
package catalog

import (
	"context"
	"errors"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"
	"github.com/UkralStul/car-reviews-service/internal/validation"
)

// Service объединяет правила валидации и хранилище.
type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

func required(field string) *domain.ValidationError {
	return domain.Invalid(field, domain.CodeRequired, "This field is required.")
}

// integrity переводит нарушения ограничений хранилища в ошибки валидации:
// они возникают, только если конкурентная запись обогнала проверку.
func integrity(err error, kind domain.Kind, parent domain.Kind, parentID int64) error {
	switch {
	case errors.Is(err, storage.ErrConflict):
		return domain.ValidationErrors{validation.DuplicateNameError(kind)}
	case errors.Is(err, storage.ErrReference):
		return domain.ValidationErrors{validation.ReferenceError(parent, parentID)}
	}
	return err
}

// Delete удаляет сущность вместе со всеми зависимыми.
func (s *Service) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	return s.store.Atomic(ctx, func(tx storage.Tx) error {
		return tx.Delete(ctx, kind, id)
	})
}

// === Countries ===

func (s *Service) ListCountries(ctx context.Context, f storage.Filter) ([]*domain.Country, error) {
	return s.store.ListCountries(ctx, f)
}

func (s *Service) GetCountry(ctx context.Context, id int64) (*domain.Country, error) {
	return s.store.GetCountry(ctx, id)
}

// SaveCountry создаёт (id игнорируется) или обновляет страну.
func (s *Service) SaveCountry(ctx context.Context, mode Mode, id int64, in CountryInput) (*domain.Country, error) {
	var out *domain.Country
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		country := &domain.Country{}
		if mode != ModeCreate {
			existing, err := tx.GetCountry(ctx, id)
			if err != nil {
				return err
			}
			country.ID, country.Name = existing.ID, existing.Name
		}

		var verrs domain.ValidationErrors
		if mode.present(in.Name != nil) {
			name, err := validation.Name(ctx, tx, domain.KindCountry, str(in.Name), country.ID)
			if err = verrs.Collect(err); err != nil {
				return err
			}
			country.Name = name
		}
		if err := verrs.Err(); err != nil {
			return err
		}

		if err := tx.SaveCountry(ctx, country); err != nil {
			return integrity(err, domain.KindCountry, "", 0)
		}
		var err error
		out, err = tx.GetCountry(ctx, country.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// === Manufacturers ===

func (s *Service) ListManufacturers(ctx context.Context, f storage.Filter) ([]*domain.Manufacturer, error) {
	return s.store.ListManufacturers(ctx, f)
}

func (s *Service) GetManufacturer(ctx context.Context, id int64) (*domain.Manufacturer, error) {
	return s.store.GetManufacturer(ctx, id)
}

func (s *Service) SaveManufacturer(ctx context.Context, mode Mode, id int64, in ManufacturerInput) (*domain.Manufacturer, error) {
	var out *domain.Manufacturer
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		m := &domain.Manufacturer{}
		if mode != ModeCreate {
			existing, err := tx.GetManufacturer(ctx, id)
			if err != nil {
				return err
			}
			m.ID, m.Name, m.CountryID = existing.ID, existing.Name, existing.CountryID
		}

		var verrs domain.ValidationErrors
		if mode.present(in.Name != nil) {
			name, err := validation.Name(ctx, tx, domain.KindManufacturer, str(in.Name), m.ID)
			if err = verrs.Collect(err); err != nil {
				return err
			}
			m.Name = name
		}
		switch {
		case in.Country != nil:
			if err := verrs.Collect(validation.Reference(ctx, tx, domain.KindCountry, *in.Country)); err != nil {
				return err
			}
			m.CountryID = *in.Country
		case mode != ModePatch:
			verrs = append(verrs, required("country"))
		}
		if err := verrs.Err(); err != nil {
			return err
		}

		if err := tx.SaveManufacturer(ctx, m); err != nil {
			return integrity(err, domain.KindManufacturer, domain.KindCountry, m.CountryID)
		}
		var err error
		out, err = tx.GetManufacturer(ctx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// === Cars ===

func (s *Service) ListCars(ctx context.Context, f storage.Filter) ([]*domain.Car, error) {
	return s.store.ListCars(ctx, f)
}

func (s *Service) GetCar(ctx context.Context, id int64) (*domain.Car, error) {
	return s.store.GetCar(ctx, id)
}

func (s *Service) SaveCar(ctx context.Context, mode Mode, id int64, in CarInput) (*domain.Car, error) {
	var out *domain.Car
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		car := &domain.Car{}
		if mode != ModeCreate {
			existing, err := tx.GetCar(ctx, id)
			if err != nil {
				return err
			}
			car.ID, car.Name, car.ManufacturerID = existing.ID, existing.Name, existing.ManufacturerID
			car.ReleaseYear, car.EndYear = existing.ReleaseYear, existing.EndYear
		}

		var verrs domain.ValidationErrors
		if mode.present(in.Name != nil) {
			name, err := validation.Name(ctx, tx, domain.KindCar, str(in.Name), car.ID)
			if err = verrs.Collect(err); err != nil {
				return err
			}
			car.Name = name
		}
		switch {
		case in.Manufacturer != nil:
			if err := verrs.Collect(validation.Reference(ctx, tx, domain.KindManufacturer, *in.Manufacturer)); err != nil {
				return err
			}
			car.ManufacturerID = *in.Manufacturer
		case mode != ModePatch:
			verrs = append(verrs, required("manufacturer"))
		}

		// Пропущенный end_year сохраняет прежнее значение, явный null его очищает
		if in.EndYear.Set {
			car.EndYear = in.EndYear.Value
		}
		switch {
		case in.ReleaseYear != nil:
			car.ReleaseYear = *in.ReleaseYear
		case mode != ModePatch:
			verrs = append(verrs, required("release_year"))
		}
		if (in.ReleaseYear != nil || in.EndYear.Set) && !verrs.HasCode("release_year", domain.CodeRequired) {
			if err := verrs.Collect(validation.Years(car.ReleaseYear, car.EndYear)); err != nil {
				return err
			}
		}
		if err := verrs.Err(); err != nil {
			return err
		}

		if err := tx.SaveCar(ctx, car); err != nil {
			return integrity(err, domain.KindCar, domain.KindManufacturer, car.ManufacturerID)
		}
		var err error
		out, err = tx.GetCar(ctx, car.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// === Comments ===

func (s *Service) ListComments(ctx context.Context, f storage.Filter) ([]*domain.Comment, error) {
	return s.store.ListComments(ctx, f)
}

func (s *Service) GetComment(ctx context.Context, id int64) (*domain.Comment, error) {
	return s.store.GetComment(ctx, id)
}

func (s *Service) SaveComment(ctx context.Context, mode Mode, id int64, in CommentInput) (*domain.Comment, error) {
	var out *domain.Comment
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		c := &domain.Comment{}
		if mode != ModeCreate {
			existing, err := tx.GetComment(ctx, id)
			if err != nil {
				return err
			}
			c.ID, c.Email, c.CarID = existing.ID, existing.Email, existing.CarID
			c.CreatedAt, c.CommentText = existing.CreatedAt, existing.CommentText
		}

		var verrs domain.ValidationErrors
		if mode.present(in.Email != nil) {
			email, err := validation.Email(str(in.Email))
			if err = verrs.Collect(err); err != nil {
				return err
			}
			c.Email = email
		}
		switch {
		case in.Car != nil:
			if err := verrs.Collect(validation.Reference(ctx, tx, domain.KindCar, *in.Car)); err != nil {
				return err
			}
			c.CarID = *in.Car
		case mode != ModePatch:
			verrs = append(verrs, required("car"))
		}
		if mode.present(in.CommentText != nil) {
			text, err := validation.CommentText(str(in.CommentText))
			if err = verrs.Collect(err); err != nil {
				return err
			}
			c.CommentText = text
		}
		if err := verrs.Err(); err != nil {
			return err
		}

		if err := tx.SaveComment(ctx, c); err != nil {
			return integrity(err, domain.KindComment, domain.KindCar, c.CarID)
		}
		var err error
		out, err = tx.GetComment(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
