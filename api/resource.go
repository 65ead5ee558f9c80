package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	mw "github.com/UkralStul/car-reviews-service/api/middleware"
	"github.com/UkralStul/car-reviews-service/internal/access"
	"github.com/UkralStul/car-reviews-service/internal/catalog"
	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/export"
	"github.com/UkralStul/car-reviews-service/internal/logging"
	"github.com/UkralStul/car-reviews-service/internal/present"
	"github.com/UkralStul/car-reviews-service/internal/storage"

	"github.com/go-chi/chi/v5"
)

// resource - набор CRUD-обработчиков и выгрузки для одного типа сущности.
// T - сущность, In - тело запроса, R - JSON-запись ответа.
type resource[T any, In any, R any] struct {
	kind    domain.Kind
	filters filterParams
	list    func(context.Context, storage.Filter) ([]T, error)
	get     func(context.Context, int64) (T, error)
	save    func(context.Context, catalog.Mode, int64, In) (T, error)
	remove  func(context.Context, domain.Kind, int64) error
	table   present.Table[T, R]
}

func (rs *resource[T, In, R]) routes(policy access.Policy) func(chi.Router) {
	return func(r chi.Router) {
		r.Use(mw.RequireToken(policy))

		r.Get("/", rs.handleList)
		r.Post("/", rs.handleWrite(catalog.ModeCreate))
		r.Get("/export", rs.handleExport)

		r.Get("/{id}", rs.handleRetrieve)
		r.Put("/{id}", rs.handleWrite(catalog.ModeReplace))
		r.Patch("/{id}", rs.handleWrite(catalog.ModePatch))
		r.Delete("/{id}", rs.handleDelete)
	}
}

func (rs *resource[T, In, R]) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := rs.filters.parse(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	items, err := rs.list(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, present.Map(items, rs.table.Record))
}

func (rs *resource[T, In, R]) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, rs.kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	item, err := rs.get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rs.table.Record(item))
}

// handleWrite обслуживает POST, PUT и PATCH.
func (rs *resource[T, In, R]) handleWrite(mode catalog.Mode) http.HandlerFunc {
	status := http.StatusOK
	if mode == catalog.ModeCreate {
		status = http.StatusCreated
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if mode != catalog.ModeCreate {
			var err error
			if id, err = pathID(r, rs.kind); err != nil {
				respondError(w, r, err)
				return
			}
		}

		var in In
		if err := decode(w, r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		item, err := rs.save(r.Context(), mode, id, in)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, status, rs.table.Record(item))
	}
}

func (rs *resource[T, In, R]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, rs.kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rs.remove(r.Context(), rs.kind, id); err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "kind", rs.kind, "id", id).Info("deleted with dependents")
	w.WriteHeader(http.StatusNoContent)
}

// handleExport отдаёт файл для скачивания. Неизвестный format - это CSV.
func (rs *resource[T, In, R]) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := rs.filters.parse(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	items, err := rs.list(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}

	file, err := export.Render(rs.table.Dataset(items), export.ParseFormat(q.Get("format")))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Body); err != nil {
		logging.FromContext(r.Context()).Error("export write error", "file", file.Filename, "error", err)
	}
}
