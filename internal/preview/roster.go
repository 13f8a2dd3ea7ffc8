package preview

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"neom/internal/repository"
	"neom/pkg/choices"
	"neom/pkg/ddd"
	dErrors "neom/pkg/domain-errors"
	"neom/pkg/staff"
)

// Role is a staff member's position.
type Role int

const (
	Engineer Role = iota + 1
	Designer
	Manager
)

func (r Role) String() string {
	switch r {
	case Engineer:
		return "Engineer"
	case Designer:
		return "Designer"
	case Manager:
		return "Manager"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Roles lists every Role for forms and validation.
var Roles = choices.Of("Role", Engineer, Designer, Manager)

// Member is one rendered staff card.
type Member struct {
	ID     int
	Name   string
	Email  *staff.Email
	Mobile *staff.Mobile
	Role   string
}

// Roster supplies the members shown on the staff page.
type Roster interface {
	Members(ctx context.Context) ([]Member, error)
}

// MemberSchema declares the stored staff member entity. The email, mobile
// and role fields are validated against their value objects on every
// construction, including when documents are loaded from a store.
func MemberSchema(opts ...ddd.Option) (*ddd.Schema, error) {
	opts = append([]ddd.Option{ddd.WithEntitySupport(), ddd.WithValidation(validateMember)}, opts...)
	return ddd.NewEntity("Member", []ddd.Field{
		ddd.Identity[int]("id"),
		ddd.Attr[string]("email"),
		ddd.Attr[string]("mobile"),
		ddd.Attr[int]("role"),
	}, opts...)
}

func validateMember(m *ddd.Instance) error {
	email, _ := m.Get("email")
	address, _ := email.(string)
	if _, err := staff.NewEmail(address); err != nil {
		return err
	}
	mobile, _ := m.Get("mobile")
	number, _ := mobile.(string)
	if _, err := staff.ParseMobile(number); err != nil {
		return err
	}
	role, _ := m.Get("role")
	if r, ok := role.(int); !ok || !Roles.Contains(r) {
		return fmt.Errorf("unknown role %v", role)
	}
	return nil
}

// StoredRoster keeps members in a repository. The repository has no listing
// operation, so the roster lists only members added through this value: a
// roster over a persistent store starts empty after a restart until members
// are added (or re-seeded) again.
type StoredRoster struct {
	repo   *repository.Service
	schema *ddd.Schema

	mu  sync.Mutex
	ids []int
}

// NewStoredRoster persists members of schema through repo.
func NewStoredRoster(repo *repository.Service, schema *ddd.Schema) *StoredRoster {
	return &StoredRoster{repo: repo, schema: schema}
}

// Add validates and saves one member.
func (r *StoredRoster) Add(ctx context.Context, id int, email, mobile string, role Role) error {
	m, err := r.schema.New(id, email, mobile, int(role))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid member")
	}
	if err := r.repo.Save(ctx, m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.ids, id) {
		r.ids = append(r.ids, id)
		slices.Sort(r.ids)
	}
	return nil
}

// Members loads every member added through r that is still stored, ordered
// by id.
func (r *StoredRoster) Members(ctx context.Context) ([]Member, error) {
	r.mu.Lock()
	ids := slices.Clone(r.ids)
	r.mu.Unlock()

	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		inst, err := r.repo.Find(ctx, r.schema, id)
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m, err := toMember(inst)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func toMember(inst *ddd.Instance) (Member, error) {
	email, err := staff.NewEmail(inst.MustGet("email").(string))
	if err != nil {
		return Member{}, err
	}
	mobile, err := staff.ParseMobile(inst.MustGet("mobile").(string))
	if err != nil {
		return Member{}, err
	}
	role, _ := Roles.Label(inst.MustGet("role").(int))
	first, last := email.Names()

	return Member{
		ID:     inst.MustGet("id").(int),
		Name:   first + " " + last,
		Email:  email,
		Mobile: mobile,
		Role:   role,
	}, nil
}

// Seed adds the demo members shown by kit-preview.
func Seed(ctx context.Context, r *StoredRoster) error {
	seed := []struct {
		id     int
		email  string
		mobile string
		role   Role
	}{
		{1, "ada.lovelace@example.com", "(+44) 700-900-123", Engineer},
		{2, "grace.hopper@example.com", "(+01) 555-010-200", Manager},
		{3, "susan.kare@example.com", "(+01) 555-010-311", Designer},
	}
	for _, m := range seed {
		if err := r.Add(ctx, m.id, m.email, m.mobile, m.role); err != nil {
			return fmt.Errorf("seed member %d: %w", m.id, err)
		}
	}
	return nil
}
