package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// StringList maps a jsonb array column to a []string.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
}

// CarePlan is static reference data: a named, priced bundle of clinical
// service entitlements. Read-only at runtime.
type CarePlan struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Slug       string     `json:"slug" db:"slug"`
	Name       string     `json:"name" db:"name"`
	PriceCents int        `json:"price_cents" db:"price_cents"`
	Features   StringList `json:"features" db:"features"`
}

// CarePlanRef is the trimmed projection embedded in sponsorship resources.
type CarePlanRef struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Slug       string    `json:"slug" db:"slug"`
	Name       string    `json:"name" db:"name"`
	PriceCents int       `json:"price_cents" db:"price_cents"`
}
