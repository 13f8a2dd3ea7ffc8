package ddd_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"neom/pkg/ddd"
)

var errFoo = errors.New("foo")

type countingObserver struct {
	mu          sync.Mutex
	constructed map[string]int
	failed      map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{constructed: map[string]int{}, failed: map[string]int{}}
}

func (o *countingObserver) Constructed(schema string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.constructed[schema]++
}

func (o *countingObserver) ValidationFailed(schema string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[schema]++
}

type InstanceSuite struct {
	suite.Suite
	foo *ddd.Schema
}

func TestInstanceSuite(t *testing.T) {
	suite.Run(t, new(InstanceSuite))
}

func (s *InstanceSuite) SetupTest() {
	foo, err := ddd.NewEntity("FooEntity", []ddd.Field{
		ddd.Identity[int]("bar"),
		ddd.Attr[string]("name"),
		ddd.Attr[int]("isn"),
	})
	s.Require().NoError(err)
	s.foo = foo
}

func (s *InstanceSuite) TestDefinition() {
	foo, err := s.foo.New(1, "foo", 2)
	s.Require().NoError(err)

	s.Equal(1, foo.MustGet("bar"))
	s.Equal("foo", foo.MustGet("name"))
	s.Equal(2, foo.MustGet("isn"))
	s.Equal(`FooEntity<bar=1, name="foo", isn=2>`, foo.String())
	s.Equal("FooEntity<bar=int, name=string, isn=int>", s.foo.String())
}

func (s *InstanceSuite) TestPositionalAndKeywordAgree() {
	cases := []struct {
		name string
		args []any
	}{
		{"small values", []any{1, "foo", 2}},
		{"zero values", []any{0, "", 0}},
		{"negative values", []any{-7, "neom", -1}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			positional, err := s.foo.New(tc.args...)
			s.Require().NoError(err)

			keyword, err := s.foo.NewKw(map[string]any{
				"bar": tc.args[0], "name": tc.args[1], "isn": tc.args[2],
			})
			s.Require().NoError(err)

			s.Equal(positional.Values(), keyword.Values())
		})
	}
}

func (s *InstanceSuite) TestArguments() {
	s.Run("rejects too few positional arguments", func() {
		inst, err := s.foo.New(1, "foo")
		s.Nil(inst)
		s.ErrorIs(err, ddd.ErrArgument)
	})

	s.Run("rejects too many positional arguments", func() {
		_, err := s.foo.New(1, "foo", 2, 3)
		s.ErrorIs(err, ddd.ErrArgument)
	})

	s.Run("rejects mistyped argument", func() {
		_, err := s.foo.New("1", "foo", 2)
		s.ErrorIs(err, ddd.ErrArgument)
		s.Contains(err.Error(), `field "bar" expects int, got string`)
	})

	s.Run("rejects missing keyword", func() {
		_, err := s.foo.NewKw(map[string]any{"bar": 1, "name": "foo"})
		s.ErrorIs(err, ddd.ErrArgument)
		s.Contains(err.Error(), `missing argument "isn"`)
	})

	s.Run("rejects undeclared keyword", func() {
		_, err := s.foo.NewKw(map[string]any{"bar": 1, "name": "foo", "isn": 2, "extra": true})
		var attrErr ddd.AttributeError
		s.Require().ErrorAs(err, &attrErr)
		s.Equal("extra", attrErr.Name)
	})

	s.Run("untyped field accepts anything including nil", func() {
		loose, err := ddd.NewValueObject("Loose", []ddd.Field{ddd.Any("v")})
		s.Require().NoError(err)
		_, err = loose.New(nil)
		s.NoError(err)
		_, err = loose.New([]int{1})
		s.NoError(err)
	})

	s.Run("nillable typed field accepts nil", func() {
		opt, err := ddd.NewValueObject("Optional", []ddd.Field{ddd.Attr[*int]("area")})
		s.Require().NoError(err)
		inst, err := opt.New(nil)
		s.Require().NoError(err)
		s.Nil(inst.MustGet("area"))
	})
}

func (s *InstanceSuite) TestValidation() {
	s.Run("hook error aborts construction", func() {
		schema, err := ddd.NewEntity("FooEntity", []ddd.Field{ddd.Identity[int]("bar")},
			ddd.WithValidation(func(*ddd.Instance) error { return errFoo }))
		s.Require().NoError(err)

		inst, err := schema.New(1)
		s.Nil(inst)
		s.ErrorIs(err, errFoo)

		inst, err = schema.NewKw(map[string]any{"bar": 1})
		s.Nil(inst)
		s.ErrorIs(err, errFoo)

		inst, err = schema.Make(map[string]any{"bar": 1})
		s.Nil(inst)
		s.ErrorIs(err, errFoo)
	})

	s.Run("hook sees every assigned field", func() {
		var seen map[string]any
		schema, err := ddd.NewEntity("FooEntity", []ddd.Field{ddd.Identity[int]("bar"), ddd.Attr[string]("name")},
			ddd.WithValidation(func(i *ddd.Instance) error {
				seen = i.Map()
				return nil
			}))
		s.Require().NoError(err)

		_, err = schema.New(1, "neom")
		s.Require().NoError(err)
		s.Equal(map[string]any{"bar": 1, "name": "neom"}, seen)
	})

	s.Run("observer counts outcomes", func() {
		obs := newCountingObserver()
		fail := true
		schema, err := ddd.NewEntity("Observed", []ddd.Field{ddd.Attr[int]("n")},
			ddd.WithObserver(obs),
			ddd.WithValidation(func(*ddd.Instance) error {
				if fail {
					return errFoo
				}
				return nil
			}))
		s.Require().NoError(err)

		_, _ = schema.New(1)
		fail = false
		_, _ = schema.New(2)
		_, _ = schema.New(3)

		s.Equal(1, obs.failed["Observed"])
		s.Equal(2, obs.constructed["Observed"])
	})
}

func (s *InstanceSuite) TestIdentity() {
	s.Run("returns identity field value", func() {
		foo, err := s.foo.New(1, "foo", 2)
		s.Require().NoError(err)
		id, err := foo.Identity()
		s.Require().NoError(err)
		s.Equal(1, id)
	})

	s.Run("fails without identity field", func() {
		schema, err := ddd.NewEntity("FooEntity", []ddd.Field{ddd.Attr[int]("bar")})
		s.Require().NoError(err)
		foo, err := schema.New(1)
		s.Require().NoError(err)

		id, err := foo.Identity()
		s.Nil(id)
		s.ErrorIs(err, ddd.ErrNoIdentity)
		var noID ddd.NoIdentityError
		s.Require().ErrorAs(err, &noID)
		s.Equal("FooEntity", noID.Type)
	})

	s.Run("identity can be promoted by option", func() {
		schema, err := ddd.NewEntity("FooEntity", []ddd.Field{ddd.Attr[int]("bar")}, ddd.WithIdentity("bar"))
		s.Require().NoError(err)
		field, ok := schema.IdentityField()
		s.Require().True(ok)
		s.Equal("bar", field.Name)
	})
}

func (s *InstanceSuite) TestMake() {
	s.Run("builds from mapping", func() {
		foo, err := s.foo.Make(map[string]any{"bar": 1, "name": "foo"})
		s.Require().NoError(err)
		s.Equal(1, foo.MustGet("bar"))
		s.Equal("foo", foo.MustGet("name"))
	})

	s.Run("omitted fields stay unassigned", func() {
		foo, err := s.foo.Make(map[string]any{"bar": 1})
		s.Require().NoError(err)
		_, err = foo.Get("isn")
		s.ErrorIs(err, ddd.ErrAttribute)
		s.Contains(err.Error(), "never assigned")
	})

	s.Run("rejects undeclared names", func() {
		_, err := s.foo.Make(map[string]any{"bar": 1, "color": "red"})
		s.ErrorIs(err, ddd.ErrAttribute)
	})
}

func (s *InstanceSuite) TestClosedAttributeSet() {
	vo, err := ddd.NewValueObject("Phone", []ddd.Field{
		ddd.Attr[*int]("country"),
		ddd.Constant[int]("number"),
	})
	s.Require().NoError(err)

	s.Run("entity rejects undeclared attribute", func() {
		foo, err := s.foo.New(1, "foo", 2)
		s.Require().NoError(err)
		s.ErrorIs(foo.Set("color", "red"), ddd.ErrAttribute)
		_, err = foo.Get("color")
		s.ErrorIs(err, ddd.ErrAttribute)
	})

	s.Run("value object rejects undeclared attribute", func() {
		phone, err := vo.New(nil, 5551234)
		s.Require().NoError(err)
		s.ErrorIs(phone.Set("color", "red"), ddd.ErrAttribute)
	})

	s.Run("plain fields stay mutable", func() {
		foo, err := s.foo.New(1, "foo", 2)
		s.Require().NoError(err)
		s.Require().NoError(foo.Set("name", "bar"))
		s.Equal("bar", foo.MustGet("name"))
		s.ErrorIs(foo.Set("name", 3), ddd.ErrArgument)
	})

	s.Run("constant fields are read-only after construction", func() {
		phone, err := vo.New(nil, 5551234)
		s.Require().NoError(err)
		err = phone.Set("number", 1)
		s.ErrorIs(err, ddd.ErrAttribute)
		s.Contains(err.Error(), "read-only")
		s.Equal(5551234, phone.MustGet("number"))
	})

	s.Run("MustGet panics on undeclared attribute", func() {
		foo, err := s.foo.New(1, "foo", 2)
		s.Require().NoError(err)
		s.Panics(func() { foo.MustGet("color") })
	})
}

func (s *InstanceSuite) TestConfiguration() {
	cases := []struct {
		name  string
		build func() error
		field string
	}{
		{"two identity fields", func() error {
			_, err := ddd.NewEntity("Foo", []ddd.Field{ddd.Identity[int]("a"), ddd.Identity[int]("b")})
			return err
		}, "b"},
		{"identity on value object", func() error {
			_, err := ddd.NewValueObject("Foo", []ddd.Field{ddd.Identity[int]("a")})
			return err
		}, "a"},
		{"identity option on value object", func() error {
			_, err := ddd.NewValueObject("Foo", []ddd.Field{ddd.Attr[int]("a")}, ddd.WithIdentity("a"))
			return err
		}, "a"},
		{"duplicate field", func() error {
			_, err := ddd.NewEntity("Foo", []ddd.Field{ddd.Attr[int]("a"), ddd.Attr[string]("a")})
			return err
		}, "a"},
		{"unknown identity option", func() error {
			_, err := ddd.NewEntity("Foo", []ddd.Field{ddd.Attr[int]("a")}, ddd.WithIdentity("zz"))
			return err
		}, "zz"},
		{"entity support without identity", func() error {
			_, err := ddd.NewEntity("Foo", []ddd.Field{ddd.Attr[int]("a")}, ddd.WithEntitySupport())
			return err
		}, ""},
		{"empty field name", func() error {
			_, err := ddd.NewEntity("Foo", []ddd.Field{ddd.Attr[int]("")})
			return err
		}, ""},
		{"empty type name", func() error {
			_, err := ddd.NewEntity("", nil)
			return err
		}, ""},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			err := tc.build()
			s.Require().ErrorIs(err, ddd.ErrConfiguration)
			var cfgErr ddd.ConfigurationError
			s.Require().ErrorAs(err, &cfgErr)
			s.Equal(tc.field, cfgErr.Field)
		})
	}
}

func (s *InstanceSuite) TestBuild() {
	ctor, err := ddd.Build(ddd.KindEntity, "FooEntity", []ddd.Field{ddd.Identity[int]("bar")})
	s.Require().NoError(err)

	foo, err := ctor(7)
	s.Require().NoError(err)
	id, err := foo.Identity()
	s.Require().NoError(err)
	s.Equal(7, id)

	_, err = ddd.Build(ddd.KindValueObject, "FooKey", []ddd.Field{ddd.Identity[int]("bar")})
	s.ErrorIs(err, ddd.ErrConfiguration)
}
