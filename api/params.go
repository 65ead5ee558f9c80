package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"

	"github.com/go-chi/chi/v5"
)

// pathID разбирает {id}. Всё, что не является положительным целым, - 404.
func pathID(r *http.Request, kind domain.Kind) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.NotFoundError{Kind: kind, ID: id}
	}
	return id, nil
}

// filterParams - какие параметры запроса понимает список.
type filterParams struct {
	// parent - имя параметра с id родителя ("country", "manufacturer", "car")
	parent      string
	releaseYear bool
}

func (p filterParams) parse(q url.Values) (storage.Filter, error) {
	f := storage.Filter{Search: strings.TrimSpace(q.Get("search"))}

	var errs domain.ValidationErrors
	if p.parent != "" {
		if raw := q.Get(p.parent); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				errs = append(errs, domain.Invalid(p.parent, domain.CodeInvalid, "A valid positive integer is required."))
			}
			f.ParentID = id
		}
	}
	if p.releaseYear {
		if raw := q.Get("release_year"); raw != "" {
			year, err := strconv.Atoi(raw)
			if err != nil || year <= 0 {
				errs = append(errs, domain.Invalid("release_year", domain.CodeInvalid, "A valid positive integer is required."))
			}
			f.ReleaseYear = year
		}
	}
	if err := errs.Err(); err != nil {
		return storage.Filter{}, err
	}
	return f, nil
}
