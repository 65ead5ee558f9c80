package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/car-reviews-service/internal/domain"
)

var (
	// ErrConflict - нарушение уникальности названия на уровне хранилища.
	ErrConflict = errors.New("unique constraint violated")
	// ErrReference - ссылка на несуществующую родительскую запись.
	ErrReference = errors.New("foreign key constraint violated")
)

// Filter - параметры выборки списков.
type Filter struct {
	// Search - подстрока названия (для комментариев - email или текста), без учёта регистра.
	Search string
	// ParentID - страна для производителей, производитель для автомобилей, автомобиль для комментариев.
	ParentID int64
	// ReleaseYear используется только для автомобилей.
	ReleaseYear int
}

// Reader отдаёт сущности вместе с жадно загруженными связями:
//   - Country: Manufacturers;
//   - Manufacturer: Country, Cars и их Comments;
//   - Car: Manufacturer.Country, Comments (сначала новые);
//   - Comment: Car.Manufacturer.Country.
//
// Списки упорядочены по названию, комментарии - от новых к старым.
// Отсутствующая запись возвращается как *domain.NotFoundError.
type Reader interface {
	ListCountries(ctx context.Context, f Filter) ([]*domain.Country, error)
	GetCountry(ctx context.Context, id int64) (*domain.Country, error)

	ListManufacturers(ctx context.Context, f Filter) ([]*domain.Manufacturer, error)
	GetManufacturer(ctx context.Context, id int64) (*domain.Manufacturer, error)

	ListCars(ctx context.Context, f Filter) ([]*domain.Car, error)
	GetCar(ctx context.Context, id int64) (*domain.Car, error)

	ListComments(ctx context.Context, f Filter) ([]*domain.Comment, error)
	GetComment(ctx context.Context, id int64) (*domain.Comment, error)
}

// Tx - область одной транзакции записи. Проверки через NameTaken/Exists
// и последующая запись выполняются в ней атомарно.
type Tx interface {
	Reader

	NameTaken(ctx context.Context, kind domain.Kind, name string, exceptID int64) (bool, error)
	Exists(ctx context.Context, kind domain.Kind, id int64) (bool, error)

	// Save* вставляют запись при ID == 0, иначе обновляют существующую.
	SaveCountry(ctx context.Context, c *domain.Country) error
	SaveManufacturer(ctx context.Context, m *domain.Manufacturer) error
	SaveCar(ctx context.Context, c *domain.Car) error
	SaveComment(ctx context.Context, c *domain.Comment) error

	// Delete удаляет запись каскадно вместе со всеми зависимыми.
	Delete(ctx context.Context, kind domain.Kind, id int64) error
}

// Storage определяет контракт для хранилищ.
type Storage interface {
	Reader

	// Atomic выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
