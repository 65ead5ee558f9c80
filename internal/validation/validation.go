// Package validation содержит правила проверки входных данных каталога.
//
// Каждое правило - функция от кандидата и текущего состояния таблиц,
// доступного через Lookup. Правило возвращает нормализованное значение
// или *domain.ValidationError. Ошибки хранилища возвращаются без изменений.
package validation

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/car-reviews-service/internal/domain"
)

const (
	CommentTextMin = 10
	CommentTextMax = 1000
)

// Lookup - то, что правилам нужно знать о текущем состоянии таблиц.
// Реализуется транзакцией хранилища, поэтому проверка и запись атомарны.
type Lookup interface {
	NameTaken(ctx context.Context, kind domain.Kind, name string, exceptID int64) (bool, error)
	Exists(ctx context.Context, kind domain.Kind, id int64) (bool, error)
}

var nameLimits = map[domain.Kind]int{
	domain.KindCountry:      domain.CountryNameMax,
	domain.KindManufacturer: domain.ManufacturerNameMax,
	domain.KindCar:          domain.CarNameMax,
}

// Name проверяет название страны, производителя или автомобиля.
// exceptID исключает саму сущность при обновлении.
func Name(ctx context.Context, lookup Lookup, kind domain.Kind, value string, exceptID int64) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", domain.Invalid("name", domain.CodeRequired, "This field may not be blank.")
	}
	if limit, ok := nameLimits[kind]; ok && utf8.RuneCountInString(name) > limit {
		return "", domain.Invalid("name", domain.CodeTooLong,
			fmt.Sprintf("Ensure this field has no more than %d characters.", limit))
	}

	taken, err := lookup.NameTaken(ctx, kind, name, exceptID)
	if err != nil {
		return "", fmt.Errorf("check %s name: %w", kind, err)
	}
	if taken {
		return "", DuplicateNameError(kind)
	}
	return name, nil
}

// Email нормализует адрес автора комментария.
func Email(value string) (string, error) {
	email := strings.TrimSpace(value)
	if email == "" {
		return "", domain.Invalid("email", domain.CodeEmptyEmail, "Email may not be empty.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalid("email", domain.CodeInvalidEmail, "Enter a valid email address.")
	}
	return email, nil
}

// CommentText обрезает пробелы и проверяет длину в символах.
func CommentText(value string) (string, error) {
	text := strings.TrimSpace(value)
	n := utf8.RuneCountInString(text)
	if n < CommentTextMin {
		return "", domain.Invalid("comment_text", domain.CodeTooShort,
			fmt.Sprintf("Comment must contain at least %d characters.", CommentTextMin))
	}
	if n > CommentTextMax {
		return "", domain.Invalid("comment_text", domain.CodeTooLong,
			fmt.Sprintf("Comment may not exceed %d characters.", CommentTextMax))
	}
	return text, nil
}

// Years проверяет годы выпуска. Год окончания не может быть раньше года начала.
func Years(release int, end *int) error {
	var errs domain.ValidationErrors
	if release <= 0 {
		errs = append(errs, domain.Invalid("release_year", domain.CodeNotPositive,
			"Ensure this value is greater than zero."))
	}
	if end != nil {
		switch {
		case *end <= 0:
			errs = append(errs, domain.Invalid("end_year", domain.CodeNotPositive,
				"Ensure this value is greater than zero."))
		case release > 0 && *end < release:
			errs = append(errs, domain.Invalid("end_year", domain.CodeEndBeforeRelease,
				"End year may not be earlier than release year."))
		}
	}
	return errs.Err()
}

var references = map[domain.Kind]struct{ field, code string }{
	domain.KindCountry:      {"country", domain.CodeCountryNotFound},
	domain.KindManufacturer: {"manufacturer", domain.CodeManufacturerNotFound},
	domain.KindCar:          {"car", domain.CodeCarNotFound},
}

// Reference проверяет, что родительская сущность существует.
func Reference(ctx context.Context, lookup Lookup, kind domain.Kind, id int64) error {
	if id <= 0 {
		return ReferenceError(kind, id)
	}
	ok, err := lookup.Exists(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("check %s reference: %w", kind, err)
	}
	if !ok {
		return ReferenceError(kind, id)
	}
	return nil
}

// ReferenceError строит ту же ошибку, что и Reference, для нарушения
// внешнего ключа, пойманного самим хранилищем.
func ReferenceError(kind domain.Kind, id int64) *domain.ValidationError {
	ref := references[kind]
	return domain.Invalid(ref.field, ref.code, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}

// DuplicateNameError - то же для нарушения уникального индекса.
func DuplicateNameError(kind domain.Kind) *domain.ValidationError {
	return domain.Invalid("name", domain.CodeDuplicateName,
		fmt.Sprintf("A %s with this name already exists.", kind))
}
