package catalog

import (
	"bytes"
	"encoding/json"
)

// Mode - вид записи: создание, полная замена (PUT) или частичное обновление (PATCH).
type Mode int

const (
	ModeCreate Mode = iota
	ModeReplace
	ModePatch
)

// NullInt различает отсутствующее поле и явный null в JSON.
type NullInt struct {
	Set   bool
	Value *int
}

func (n *NullInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// CountryInput - тело запроса для страны.
type CountryInput struct {
	Name *string `json:"name"`
}

// ManufacturerInput - тело запроса для производителя.
type ManufacturerInput struct {
	Name    *string `json:"name"`
	Country *int64  `json:"country"`
}

// CarInput - тело запроса для автомобиля.
type CarInput struct {
	Name         *string `json:"name"`
	Manufacturer *int64  `json:"manufacturer"`
	ReleaseYear  *int    `json:"release_year"`
	EndYear      NullInt `json:"end_year"`
}

// CommentInput - тело запроса для комментария. created_at не принимается.
type CommentInput struct {
	Email       *string `json:"email"`
	Car         *int64  `json:"car"`
	CommentText *string `json:"comment_text"`
}

// present сообщает, нужно ли проверять поле в данном режиме.
func (m Mode) present(set bool) bool {
	return set || m != ModePatch
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
