package present

import (
	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/export"
)

// Column описывает одну колонку выгрузки поверх записи R.
type Column[R any] struct {
	Header string
	Value  func(R) any
}

// Table - выгрузка сущностей T. Строка берётся из той же записи,
// что отдаётся в JSON, так что производные поля не расходятся.
type Table[T, R any] struct {
	Name    string
	Sheet   string
	Record  func(T) R
	Columns []Column[R]
}

func (t Table[T, R]) Header() []string {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	return header
}

func (t Table[T, R]) Row(item T) []any {
	rec := t.Record(item)
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = c.Value(rec)
	}
	return row
}

// Dataset строит таблицу для export.Render.
func (t Table[T, R]) Dataset(items []T) export.Dataset {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, t.Row(item))
	}
	return export.Dataset{
		Name:   t.Name,
		Sheet:  t.Sheet,
		Header: t.Header(),
		Rows:   rows,
	}
}

// === Export tables ===

var Countries = Table[*domain.Country, CountryRecord]{
	Name:   "countries",
	Sheet:  "Countries",
	Record: Country,
	Columns: []Column[CountryRecord]{
		{"ID", func(r CountryRecord) any { return r.ID }},
		{"Name", func(r CountryRecord) any { return r.Name }},
		{"Manufacturer Count", func(r CountryRecord) any { return len(r.Manufacturers) }},
		{"Manufacturer List", func(r CountryRecord) any { return joinNames(r.Manufacturers) }},
	},
}

var Manufacturers = Table[*domain.Manufacturer, ManufacturerRecord]{
	Name:   "manufacturers",
	Sheet:  "Manufacturers",
	Record: Manufacturer,
	Columns: []Column[ManufacturerRecord]{
		{"ID", func(r ManufacturerRecord) any { return r.ID }},
		{"Name", func(r ManufacturerRecord) any { return r.Name }},
		{"Country", func(r ManufacturerRecord) any { return r.CountryName }},
		{"Car Count", func(r ManufacturerRecord) any { return r.CarCount() }},
		{"Total Comment Count", func(r ManufacturerRecord) any { return r.CommentsCount }},
	},
}

var Cars = Table[*domain.Car, CarRecord]{
	Name:   "cars",
	Sheet:  "Cars",
	Record: Car,
	Columns: []Column[CarRecord]{
		{"ID", func(r CarRecord) any { return r.ID }},
		{"Model", func(r CarRecord) any { return r.Name }},
		{"Manufacturer", func(r CarRecord) any { return r.ManufacturerName }},
		{"Country", func(r CarRecord) any { return r.CountryName }},
		{"Start Year", func(r CarRecord) any { return r.ReleaseYear }},
		{"End Year", func(r CarRecord) any { return EndYearLabel(r.EndYear) }},
		{"Comment Count", func(r CarRecord) any { return r.CommentsCount }},
	},
}

// Comments обрезает текст до TruncateLimit, в отличие от JSON-записи.
var Comments = Table[*domain.Comment, CommentRecord]{
	Name:   "comments",
	Sheet:  "Comments",
	Record: Comment,
	Columns: []Column[CommentRecord]{
		{"ID", func(r CommentRecord) any { return r.ID }},
		{"Email", func(r CommentRecord) any { return r.Email }},
		{"Car", func(r CommentRecord) any { return r.CarName }},
		{"Manufacturer", func(r CommentRecord) any { return r.ManufacturerName }},
		{"Country", func(r CommentRecord) any { return r.CountryName }},
		{"Created At", func(r CommentRecord) any { return r.CreatedAt }},
		{"Comment Text", func(r CommentRecord) any { return Truncate(r.CommentText, TruncateLimit) }},
	},
}
