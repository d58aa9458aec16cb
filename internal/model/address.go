package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Address is a postal address snapshot stored as a JSON column. Orders keep
// their own copy taken at creation time, not a live user reference.
type Address struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("scan address: unexpected type %T", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, a)
}
