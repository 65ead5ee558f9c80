// Package present превращает сущности с загруженными связями в выходные
// записи. Запись строится один раз и служит как JSON-ответом, так и
// строкой экспорта; поля только для выгрузки скрыты из JSON.
package present

import (
	"strings"
	"time"

	"github.com/UkralStul/car-reviews-service/internal/domain"
)

// EndYearPresent - подпись для модели, которая всё ещё выпускается.
const EndYearPresent = "Present"

// TruncateLimit - длина текста комментария в экспорте.
const TruncateLimit = 100

// === Derived fields ===

// ManufacturerNames возвращает имена производителей страны в порядке хранилища.
func ManufacturerNames(c *domain.Country) []string {
	names := make([]string, 0, len(c.Manufacturers))
	for _, m := range c.Manufacturers {
		names = append(names, m.Name)
	}
	return names
}

func CarNames(m *domain.Manufacturer) []string {
	names := make([]string, 0, len(m.Cars))
	for _, car := range m.Cars {
		names = append(names, car.Name)
	}
	return names
}

// CommentsCount - сумма комментариев по всем автомобилям производителя.
func CommentsCount(m *domain.Manufacturer) int {
	total := 0
	for _, car := range m.Cars {
		total += len(car.Comments)
	}
	return total
}

// CommentTexts возвращает тексты комментариев, новые первыми.
func CommentTexts(car *domain.Car) []string {
	texts := make([]string, 0, len(car.Comments))
	for _, c := range car.Comments {
		texts = append(texts, c.CommentText)
	}
	return texts
}

func EndYearLabel(end *int) any {
	if end == nil {
		return EndYearPresent
	}
	return *end
}

// Truncate обрезает s до limit символов и добавляет "...".
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Timestamp - единый формат created_at для JSON и экспорта.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func countryName(c *domain.Country) string {
	if c == nil {
		return ""
	}
	return c.Name
}

func manufacturerName(m *domain.Manufacturer) string {
	if m == nil {
		return ""
	}
	return m.Name
}

func manufacturerCountry(m *domain.Manufacturer) string {
	if m == nil {
		return ""
	}
	return countryName(m.Country)
}

func carName(c *domain.Car) string {
	if c == nil {
		return ""
	}
	return c.Name
}

func carManufacturer(c *domain.Car) *domain.Manufacturer {
	if c == nil {
		return nil
	}
	return c.Manufacturer
}

// === Records ===

type CountryRecord struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Manufacturers []string `json:"manufacturers"`
}

type ManufacturerRecord struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Country       int64    `json:"country"`
	CountryName   string   `json:"country_name"`
	Cars          []string `json:"cars"`
	CommentsCount int      `json:"comments_count"`
}

func (r ManufacturerRecord) CarCount() int { return len(r.Cars) }

// CarRecord. EndYear сериализуется как null, пока модель выпускается.
type CarRecord struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Manufacturer     int64    `json:"manufacturer"`
	ManufacturerName string   `json:"manufacturer_name"`
	ReleaseYear      int      `json:"release_year"`
	EndYear          *int     `json:"end_year"`
	Comments         []string `json:"comments"`
	CommentsCount    int      `json:"comments_count"`
	CountryName      string   `json:"-"`
}

// CommentRecord содержит полный текст комментария, без обрезки.
type CommentRecord struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Car         int64  `json:"car"`
	CarName     string `json:"car_name"`
	CreatedAt   string `json:"created_at"`
	CommentText string `json:"comment_text"`

	ManufacturerName string `json:"-"`
	CountryName      string `json:"-"`
}

func Country(c *domain.Country) CountryRecord {
	return CountryRecord{
		ID:            c.ID,
		Name:          c.Name,
		Manufacturers: ManufacturerNames(c),
	}
}

func Manufacturer(m *domain.Manufacturer) ManufacturerRecord {
	return ManufacturerRecord{
		ID:            m.ID,
		Name:          m.Name,
		Country:       m.CountryID,
		CountryName:   countryName(m.Country),
		Cars:          CarNames(m),
		CommentsCount: CommentsCount(m),
	}
}

func Car(c *domain.Car) CarRecord {
	return CarRecord{
		ID:               c.ID,
		Name:             c.Name,
		Manufacturer:     c.ManufacturerID,
		ManufacturerName: manufacturerName(c.Manufacturer),
		ReleaseYear:      c.ReleaseYear,
		EndYear:          c.EndYear,
		Comments:         CommentTexts(c),
		CommentsCount:    len(c.Comments),
		CountryName:      manufacturerCountry(c.Manufacturer),
	}
}

func Comment(c *domain.Comment) CommentRecord {
	return CommentRecord{
		ID:          c.ID,
		Email:       c.Email,
		Car:         c.CarID,
		CarName:     carName(c.Car),
		CreatedAt:   Timestamp(c.CreatedAt),
		CommentText: c.CommentText,

		ManufacturerName: manufacturerName(carManufacturer(c.Car)),
		CountryName:      manufacturerCountry(carManufacturer(c.Car)),
	}
}

// Map применяет f к каждому элементу списка.
func Map[T, R any](items []T, f func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, f(item))
	}
	return out
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
