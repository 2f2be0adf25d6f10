package client

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Validate mirrors the server's login checks so obvious mistakes fail
// without a round trip.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

func (d RegisterData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(3, 50)),
		validation.Field(&d.Email, validation.Required, is.Email),
		validation.Field(&d.Password, validation.Required, validation.Length(6, 72)),
	)
}

func (p ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(3, 50)),
		validation.Field(&p.Phone, validation.NilOrNotEmpty, validation.Length(10, 15), is.Digit),
		validation.Field(&p.Password, validation.NilOrNotEmpty, validation.Length(6, 72)),
		validation.Field(&p.Address),
	)
}

func (a Address) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Street, validation.Length(0, 200)),
		validation.Field(&a.City, validation.Length(0, 100)),
		validation.Field(&a.State, validation.Length(0, 100)),
		validation.Field(&a.ZipCode, validation.Length(0, 20)),
		validation.Field(&a.Country, validation.Length(0, 100)),
	)
}
