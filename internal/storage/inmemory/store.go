package inmemory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Записи хранятся плоско, связи собираются при чтении.
type Store struct {
	mu   sync.RWMutex
	data *tables
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{data: newTables(func() time.Time { return time.Now().UTC() })}
}

// newWithClock нужен тестам, которым важен порядок created_at.
func newWithClock(now func() time.Time) *Store {
	return &Store{data: newTables(now)}
}

// tables - содержимое хранилища. Методы не берут блокировку,
// это делает Store. Реализует storage.Tx.
type tables struct {
	now    func() time.Time
	lastID map[domain.Kind]int64

	countries     map[int64]domain.Country
	manufacturers map[int64]domain.Manufacturer
	cars          map[int64]domain.Car
	comments      map[int64]domain.Comment
}

func newTables(now func() time.Time) *tables {
	return &tables{
		now:           now,
		lastID:        make(map[domain.Kind]int64),
		countries:     make(map[int64]domain.Country),
		manufacturers: make(map[int64]domain.Manufacturer),
		cars:          make(map[int64]domain.Car),
		comments:      make(map[int64]domain.Comment),
	}
}

// clone копирует таблицы для отката. Записи хранятся по значению
// без связей, так что поверхностной копии достаточно.
func (t *tables) clone() *tables {
	return &tables{
		now:           t.now,
		lastID:        maps.Clone(t.lastID),
		countries:     maps.Clone(t.countries),
		manufacturers: maps.Clone(t.manufacturers),
		cars:          maps.Clone(t.cars),
		comments:      maps.Clone(t.comments),
	}
}

// Atomic держит блокировку записи на всё время fn и восстанавливает снимок при ошибке.
func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.data); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// === Read Methods ===

func (s *Store) ListCountries(ctx context.Context, f storage.Filter) ([]*domain.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ListCountries(ctx, f)
}

func (s *Store) GetCountry(ctx context.Context, id int64) (*domain.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetCountry(ctx, id)
}

func (s *Store) ListManufacturers(ctx context.Context, f storage.Filter) ([]*domain.Manufacturer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ListManufacturers(ctx, f)
}

func (s *Store) GetManufacturer(ctx context.Context, id int64) (*domain.Manufacturer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetManufacturer(ctx, id)
}

func (s *Store) ListCars(ctx context.Context, f storage.Filter) ([]*domain.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ListCars(ctx, f)
}

func (s *Store) GetCar(ctx context.Context, id int64) (*domain.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetCar(ctx, id)
}

func (s *Store) ListComments(ctx context.Context, f storage.Filter) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ListComments(ctx, f)
}

func (s *Store) GetComment(ctx context.Context, id int64) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetComment(ctx, id)
}
