package staff

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"neom/pkg/ddd"
)

var emailPattern = regexp.MustCompile(`^\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b$`)

// ErrInvalidEmail is returned when an address does not look like an email.
var ErrInvalidEmail = errors.New("invalid email address format")

// Email is a syntactically valid email address.
type Email struct {
	ddd.ValueObject
	Address string `ddd:"constant"`
}

var emails = ddd.MustDefine[Email]()

// NewEmail validates and wraps address.
func NewEmail(address string) (*Email, error) {
	return emails.New(address)
}

// Validate runs on every construction path.
func (e *Email) Validate() error {
	if !emailPattern.MatchString(e.Address) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, e.Address)
	}
	return nil
}

func (e *Email) String() string { return e.Address }

func (e *Email) Equal(other any) bool {
	o, ok := other.(*Email)
	return ok && emails.Equal(e, o)
}

func (e *Email) Hash() uint64 { return emails.Hash(e) }

// Names derives a first and last display name from the local part, e.g.
// "ada.lovelace@x.io" gives ("Ada", "Lovelace"). Missing parts default to
// "User".
func (e *Email) Names() (first, last string) {
	local := e.Address
	if at := strings.IndexByte(local, '@'); at > 0 {
		local = local[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	// Casers carry state; one per call.
	title := cases.Title(language.Und, cases.NoLower)
	first, last = title.String(parts[0]), "User"
	if len(parts) > 1 {
		last = title.String(parts[len(parts)-1])
	}
	return first, last
}
