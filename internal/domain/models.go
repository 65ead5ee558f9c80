package domain

import "time"

// Kind - тип сущности каталога.
type Kind string

const (
	KindCountry      Kind = "country"
	KindManufacturer Kind = "manufacturer"
	KindCar          Kind = "car"
	KindComment      Kind = "comment"
)

// Максимальные длины названий, как в схеме БД.
const (
	CountryNameMax      = 30
	ManufacturerNameMax = 150
	CarNameMax          = 100
)

// Country представляет страну-производителя.
type Country struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(30);not null;index:idx_countries_name_lower,unique,expression:lower(name)"`
	Manufacturers []*Manufacturer `json:"-" gorm:"foreignKey:CountryID;constraint:OnDelete:CASCADE"`
}

// Manufacturer представляет производителя автомобилей.
type Manufacturer struct {
	ID        int64    `json:"id" gorm:"primaryKey"`
	Name      string   `json:"name" gorm:"type:varchar(150);not null;index:idx_manufacturers_name_lower,unique,expression:lower(name)"`
	CountryID int64    `json:"country" gorm:"not null;index"`
	Country   *Country `json:"-" gorm:"foreignKey:CountryID;constraint:OnDelete:CASCADE"`
	Cars      []*Car   `json:"-" gorm:"foreignKey:ManufacturerID;constraint:OnDelete:CASCADE"`
}

// Car представляет модель автомобиля.
// EndYear == nil означает, что модель всё ещё выпускается.
type Car struct {
	ID             int64         `json:"id" gorm:"primaryKey"`
	Name           string        `json:"name" gorm:"type:varchar(100);not null;index:idx_cars_name_lower,unique,expression:lower(name)"`
	ManufacturerID int64         `json:"manufacturer" gorm:"not null;index"`
	Manufacturer   *Manufacturer `json:"-" gorm:"foreignKey:ManufacturerID;constraint:OnDelete:CASCADE"`
	ReleaseYear    int           `json:"release_year" gorm:"not null;check:release_year > 0"`
	EndYear        *int          `json:"end_year" gorm:"check:end_year > 0"`
	Comments       []*Comment    `json:"-" gorm:"foreignKey:CarID;constraint:OnDelete:CASCADE"`
}

// Comment представляет комментарий к автомобилю.
type Comment struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(254);not null"`
	CarID       int64     `json:"car" gorm:"not null;index"`
	Car         *Car      `json:"-" gorm:"foreignKey:CarID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime;index"`
	CommentText string    `json:"comment_text" gorm:"type:text;not null"`
}
