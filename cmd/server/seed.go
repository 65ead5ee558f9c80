package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UkralStul/car-reviews-service/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

// fillWithMockData заполняет каталог демонстрационными данными.
// Записи проходят ту же валидацию, что и запросы к API.
func fillWithMockData(ctx context.Context, svc *catalog.Service) error {
	// 1. Страны
	germany, err := svc.SaveCountry(ctx, catalog.ModeCreate, 0, catalog.CountryInput{Name: ptr("Germany")})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create country: %w", err)
	}
	japan, err := svc.SaveCountry(ctx, catalog.ModeCreate, 0, catalog.CountryInput{Name: ptr("Japan")})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create country: %w", err)
	}

	// 2. Производители
	vw, err := svc.SaveManufacturer(ctx, catalog.ModeCreate, 0, catalog.ManufacturerInput{Name: ptr("Volkswagen"), Country: &germany.ID})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create manufacturer: %w", err)
	}
	toyota, err := svc.SaveManufacturer(ctx, catalog.ModeCreate, 0, catalog.ManufacturerInput{Name: ptr("Toyota"), Country: &japan.ID})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create manufacturer: %w", err)
	}

	// 3. Автомобили: Beetle снят с производства, остальные выпускаются
	cars := []catalog.CarInput{
		{Name: ptr("Golf"), Manufacturer: &vw.ID, ReleaseYear: ptr(1974)},
		{Name: ptr("Beetle"), Manufacturer: &vw.ID, ReleaseYear: ptr(1938), EndYear: catalog.NullInt{Set: true, Value: ptr(2003)}},
		{Name: ptr("Corolla"), Manufacturer: &toyota.ID, ReleaseYear: ptr(1966)},
	}
	carIDs := make([]int64, 0, len(cars))
	for _, in := range cars {
		car, err := svc.SaveCar(ctx, catalog.ModeCreate, 0, in)
		if err != nil {
			return fmt.Errorf("fillWithMockData: failed to create car %q: %w", *in.Name, err)
		}
		carIDs = append(carIDs, car.ID)
	}

	// 4. Комментарии
	comments := []catalog.CommentInput{
		{Email: ptr("anna@example.com"), Car: &carIDs[0], CommentText: ptr("Reliable daily driver, cheap to maintain.")},
		{Email: ptr("ivan@example.com"), Car: &carIDs[0], CommentText: ptr("The GTI version is a lot of fun on twisty roads.")},
		{Email: ptr("kenji@example.com"), Car: &carIDs[2], CommentText: ptr("Three hundred thousand kilometres and still going.")},
	}
	for _, in := range comments {
		if _, err := svc.SaveComment(ctx, catalog.ModeCreate, 0, in); err != nil {
			return fmt.Errorf("fillWithMockData: failed to create comment: %w", err)
		}
	}

	slog.Info("mock data filled successfully",
		"countries", 2,
		"manufacturers", 2,
		"cars", len(cars),
		"comments", len(comments),
	)
	return nil
}
