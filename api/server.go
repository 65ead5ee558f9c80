// Package api - REST-интерфейс каталога: стран, производителей, автомобилей
// и комментариев, с выгрузкой каждого списка в CSV или XLSX.
package api

import (
	"net/http"
	"time"

	mw "github.com/UkralStul/car-reviews-service/api/middleware"
	"github.com/UkralStul/car-reviews-service/internal/access"
	"github.com/UkralStul/car-reviews-service/internal/catalog"
	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/present"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options - настройки HTTP-слоя.
type Options struct {
	Policy access.Policy
	// RequestTimeout - ограничение на обработку одного запроса, 0 - без ограничения
	RequestTimeout time.Duration
}

// Server собирает маршруты поверх catalog.Service.
type Server struct {
	catalog *catalog.Service
	opts    Options
	router  *chi.Mux
}

func NewServer(svc *catalog.Service, opts Options) *Server {
	s := &Server{
		catalog: svc,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	// /cars/1/ и /cars/1 ведут на один и тот же маршрут
	s.router.Use(middleware.StripSlashes)
	s.router.Use(mw.RequestID)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.GetHead)
	if s.opts.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	policy := s.opts.Policy

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "resource not found", Code: "not_found"})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", Code: "method_not_allowed"})
	})

	countries := &resource[*domain.Country, catalog.CountryInput, present.CountryRecord]{
		kind:   domain.KindCountry,
		list:   s.catalog.ListCountries,
		get:    s.catalog.GetCountry,
		save:   s.catalog.SaveCountry,
		remove: s.catalog.Delete,
		table:  present.Countries,
	}
	manufacturers := &resource[*domain.Manufacturer, catalog.ManufacturerInput, present.ManufacturerRecord]{
		kind:    domain.KindManufacturer,
		filters: filterParams{parent: "country"},
		list:    s.catalog.ListManufacturers,
		get:     s.catalog.GetManufacturer,
		save:    s.catalog.SaveManufacturer,
		remove:  s.catalog.Delete,
		table:   present.Manufacturers,
	}
	cars := &resource[*domain.Car, catalog.CarInput, present.CarRecord]{
		kind:    domain.KindCar,
		filters: filterParams{parent: "manufacturer", releaseYear: true},
		list:    s.catalog.ListCars,
		get:     s.catalog.GetCar,
		save:    s.catalog.SaveCar,
		remove:  s.catalog.Delete,
		table:   present.Cars,
	}
	comments := &resource[*domain.Comment, catalog.CommentInput, present.CommentRecord]{
		kind:    domain.KindComment,
		filters: filterParams{parent: "car"},
		list:    s.catalog.ListComments,
		get:     s.catalog.GetComment,
		save:    s.catalog.SaveComment,
		remove:  s.catalog.Delete,
		table:   present.Comments,
	}

	s.router.Get("/", s.handleIndex)
	s.router.Route("/countries", countries.routes(policy))
	s.router.Route("/manufacturers", manufacturers.routes(policy))
	s.router.Route("/cars", cars.routes(policy))
	// Оставить комментарий может любой, изменить или удалить - только с токеном
	s.router.Route("/comments", comments.routes(policy.WithPublic(http.MethodPost)))
}

// handleIndex перечисляет корневые ресурсы API.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"countries":     "/countries/",
		"manufacturers": "/manufacturers/",
		"cars":          "/cars/",
		"comments":      "/comments/",
	})
}
