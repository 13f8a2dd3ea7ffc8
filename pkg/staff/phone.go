// Package staff holds stock value objects shared by entities: phone numbers,
// email addresses and entity keys.
package staff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"neom/pkg/ddd"
)

// Phone is a composed phone number. Country and Area are optional; Number is
// fixed once the value is constructed.
type Phone struct {
	ddd.ValueObject
	Country *int
	Area    *int
	Number  int `ddd:"constant"`
}

var phones = ddd.MustDefine[Phone]()

// NewPhone builds a Phone. Pass nil for unknown country or area codes.
func NewPhone(country, area *int, number int) (*Phone, error) {
	return phones.New(country, area, number)
}

// Equal reports whether both phones carry the same codes and number.
func (p *Phone) Equal(other any) bool {
	o, ok := other.(*Phone)
	return ok && phones.Equal(p, o)
}

// Hash is consistent with Equal.
func (p *Phone) Hash() uint64 { return phones.Hash(p) }

// Mobile is a phone number written as "(+CC) xxx-xxx-xxx".
type Mobile struct {
	Phone
}

var (
	mobiles       = ddd.MustDefine[Mobile]()
	mobilePattern = regexp.MustCompile(`^\(\+(\d{2})\) (\d{3}(?:-\d{3}){2})$`)
)

// ErrInvalidMobile is returned by ParseMobile for input that does not match
// the "(+CC) xxx-xxx-xxx" layout.
var ErrInvalidMobile = errors.New("invalid mobile phone: use (+xx) xxx-xxx-xxx")

// ParseMobile reads a mobile number such as "(+51) 987-654-321". The area
// code is left unset.
func ParseMobile(s string) (*Mobile, error) {
	m := mobilePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMobile, s)
	}
	country, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMobile, s)
	}
	number, err := strconv.Atoi(strings.ReplaceAll(m[2], "-", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMobile, s)
	}
	return mobiles.New(&country, (*int)(nil), number)
}

// MustParseMobile is ParseMobile for fixtures and tests.
func MustParseMobile(s string) *Mobile {
	m, err := ParseMobile(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the number back in the layout accepted by ParseMobile.
func (m *Mobile) String() string {
	country := 0
	if m.Country != nil {
		country = *m.Country
	}
	return fmt.Sprintf("(+%02d) %03d-%03d-%03d",
		country,
		m.Number/1_000_000,
		m.Number%1_000_000/1_000,
		m.Number%1_000,
	)
}

func (m *Mobile) Equal(other any) bool {
	o, ok := other.(*Mobile)
	return ok && mobiles.Equal(m, o)
}

func (m *Mobile) Hash() uint64 { return mobiles.Hash(m) }
