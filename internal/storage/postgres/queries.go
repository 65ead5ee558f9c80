package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Коды ошибок postgres, см. https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// queries - общие запросы для пула и для транзакции. Реализует storage.Tx.
type queries struct {
	db *gorm.DB
}

// translate приводит ошибки драйвера к ошибкам хранилища.
func translate(err error, kind domain.Kind, id int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", kind, storage.ErrConflict)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%s: %w", kind, storage.ErrReference)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %s: %w", kind, pgErr.ConstraintName, storage.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", kind, pgErr.ConstraintName, storage.ErrReference)
		}
	}
	return fmt.Errorf("%s: %w", kind, err)
}

func modelOf(kind domain.Kind) (any, error) {
	switch kind {
	case domain.KindCountry:
		return &domain.Country{}, nil
	case domain.KindManufacturer:
		return &domain.Manufacturer{}, nil
	case domain.KindCar:
		return &domain.Car{}, nil
	case domain.KindComment:
		return &domain.Comment{}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

// likePattern экранирует спецсимволы LIKE в пользовательской строке.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// === Eager loading ===

func byName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC, id ASC")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC, id DESC")
}

// Для подсчёта комментариев производителя достаточно ключей.
func commentKeys(db *gorm.DB) *gorm.DB {
	return db.Select("id", "car_id")
}

func (q *queries) countries(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Preload("Manufacturers", byName)
}

func (q *queries) manufacturers(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Preload("Country").
		Preload("Cars", byName).
		Preload("Cars.Comments", commentKeys)
}

func (q *queries) cars(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Preload("Manufacturer.Country").
		Preload("Comments", newestFirst)
}

func (q *queries) comments(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Preload("Car.Manufacturer.Country")
}

// === Read Methods ===

func (q *queries) ListCountries(ctx context.Context, f storage.Filter) ([]*domain.Country, error) {
	var out []*domain.Country
	query := byName(q.countries(ctx))
	if f.Search != "" {
		query = query.Where("name ILIKE ?", likePattern(f.Search))
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, translate(err, domain.KindCountry, 0)
	}
	return out, nil
}

func (q *queries) GetCountry(ctx context.Context, id int64) (*domain.Country, error) {
	var c domain.Country
	if err := q.countries(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.KindCountry, id)
	}
	return &c, nil
}

func (q *queries) ListManufacturers(ctx context.Context, f storage.Filter) ([]*domain.Manufacturer, error) {
	var out []*domain.Manufacturer
	query := byName(q.manufacturers(ctx))
	if f.ParentID != 0 {
		query = query.Where("country_id = ?", f.ParentID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Where("name ILIKE ? OR country_id IN (SELECT id FROM countries WHERE name ILIKE ?)", p, p)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, translate(err, domain.KindManufacturer, 0)
	}
	return out, nil
}

func (q *queries) GetManufacturer(ctx context.Context, id int64) (*domain.Manufacturer, error) {
	var m domain.Manufacturer
	if err := q.manufacturers(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.KindManufacturer, id)
	}
	return &m, nil
}

func (q *queries) ListCars(ctx context.Context, f storage.Filter) ([]*domain.Car, error) {
	var out []*domain.Car
	query := byName(q.cars(ctx))
	if f.ParentID != 0 {
		query = query.Where("manufacturer_id = ?", f.ParentID)
	}
	if f.ReleaseYear != 0 {
		query = query.Where("release_year = ?", f.ReleaseYear)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Where("name ILIKE ? OR manufacturer_id IN (SELECT id FROM manufacturers WHERE name ILIKE ?)", p, p)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, translate(err, domain.KindCar, 0)
	}
	return out, nil
}

func (q *queries) GetCar(ctx context.Context, id int64) (*domain.Car, error) {
	var c domain.Car
	if err := q.cars(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.KindCar, id)
	}
	return &c, nil
}

func (q *queries) ListComments(ctx context.Context, f storage.Filter) ([]*domain.Comment, error) {
	var out []*domain.Comment
	query := newestFirst(q.comments(ctx))
	if f.ParentID != 0 {
		query = query.Where("car_id = ?", f.ParentID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Where("email ILIKE ? OR comment_text ILIKE ? OR car_id IN (SELECT id FROM cars WHERE name ILIKE ?)", p, p, p)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, translate(err, domain.KindComment, 0)
	}
	return out, nil
}

func (q *queries) GetComment(ctx context.Context, id int64) (*domain.Comment, error) {
	var c domain.Comment
	if err := q.comments(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.KindComment, id)
	}
	return &c, nil
}

// === Lookup Methods ===

func (q *queries) NameTaken(ctx context.Context, kind domain.Kind, name string, exceptID int64) (bool, error) {
	model, err := modelOf(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = q.db.WithContext(ctx).Model(model).
		Where("lower(name) = lower(?) AND id <> ?", name, exceptID).
		Count(&n).Error
	if err != nil {
		return false, translate(err, kind, 0)
	}
	return n > 0, nil
}

func (q *queries) Exists(ctx context.Context, kind domain.Kind, id int64) (bool, error) {
	model, err := modelOf(kind)
	if err != nil {
		return false, err
	}
	var n int64
	if err := q.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, translate(err, kind, id)
	}
	return n > 0, nil
}

// === Write Methods ===

// save вставляет или обновляет одну строку без связей.
// Обновление пишет все колонки, кроме перечисленных в omit.
func (q *queries) save(ctx context.Context, kind domain.Kind, id int64, value any, omit ...string) error {
	db := q.db.WithContext(ctx)
	if id == 0 {
		return translate(db.Omit(clause.Associations).Create(value).Error, kind, 0)
	}
	// Omit заменяет список целиком, поэтому связи передаются вместе с omit
	res := db.Select("*").Omit(append([]string{clause.Associations}, omit...)...).Updates(value)
	if res.Error != nil {
		return translate(res.Error, kind, id)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func (q *queries) SaveCountry(ctx context.Context, c *domain.Country) error {
	return q.save(ctx, domain.KindCountry, c.ID, c)
}

func (q *queries) SaveManufacturer(ctx context.Context, m *domain.Manufacturer) error {
	return q.save(ctx, domain.KindManufacturer, m.ID, m)
}

func (q *queries) SaveCar(ctx context.Context, c *domain.Car) error {
	return q.save(ctx, domain.KindCar, c.ID, c)
}

// SaveComment никогда не перезаписывает created_at.
func (q *queries) SaveComment(ctx context.Context, c *domain.Comment) error {
	if err := q.save(ctx, domain.KindComment, c.ID, c, "created_at"); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		return q.db.WithContext(ctx).Select("created_at").First(c, "id = ?", c.ID).Error
	}
	return nil
}

// Delete полагается на ON DELETE CASCADE во внешних ключах.
func (q *queries) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	model, err := modelOf(kind)
	if err != nil {
		return err
	}
	res := q.db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return translate(res.Error, kind, id)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
