package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"neom/internal/repository/mocks"
	"neom/pkg/ddd"
	"neom/pkg/platform/circuit"
	"neom/pkg/platform/sentinel"
)

// Redis is unreachable in these tests: every call must fall through to the
// wrapped store.
type UnreachableRedisSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	next      *mocks.MockStore
	client    *redis.Client
	store     *RedisStore
	customers *ddd.Schema
}

func TestUnreachableRedisSuite(t *testing.T) {
	suite.Run(t, new(UnreachableRedisSuite))
}

func (s *UnreachableRedisSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.next = mocks.NewMockStore(s.ctrl)
	s.client = redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	s.store = NewRedis(s.next, s.client, time.Minute)

	var err error
	s.customers, err = ddd.NewEntity("Customer",
		[]ddd.Field{ddd.Identity[int]("id"), ddd.Attr[string]("name")}, ddd.WithEntitySupport())
	s.Require().NoError(err)
}

func (s *UnreachableRedisSuite) TearDownTest() {
	_ = s.client.Close()
	s.ctrl.Finish()
}

func (s *UnreachableRedisSuite) TestSaveWritesThroughDespiteCacheFailure() {
	c, err := s.customers.New(1, "ada")
	s.Require().NoError(err)
	s.next.EXPECT().Save(gomock.Any(), c).Return(nil)
	s.NoError(s.store.Save(context.Background(), c))
}

func (s *UnreachableRedisSuite) TestSaveFailureSkipsCache() {
	c, err := s.customers.New(1, "ada")
	s.Require().NoError(err)
	s.next.EXPECT().Save(gomock.Any(), c).Return(sentinel.ErrUnavailable)
	s.ErrorIs(s.store.Save(context.Background(), c), sentinel.ErrUnavailable)
}

func (s *UnreachableRedisSuite) TestFindFallsBack() {
	c, err := s.customers.New(1, "ada")
	s.Require().NoError(err)
	s.next.EXPECT().Find(gomock.Any(), s.customers, 1).Return(c, nil)

	got, err := s.store.Find(context.Background(), s.customers, 1)
	s.Require().NoError(err)
	s.Same(c, got)
}

func (s *UnreachableRedisSuite) TestFindPropagatesNotFound() {
	s.next.EXPECT().Find(gomock.Any(), s.customers, 2).Return(nil, sentinel.ErrNotFound)
	_, err := s.store.Find(context.Background(), s.customers, 2)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *UnreachableRedisSuite) TestDeleteAndCountDelegate() {
	s.next.EXPECT().Delete(gomock.Any(), s.customers, 1).Return(nil)
	s.NoError(s.store.Delete(context.Background(), s.customers, 1))

	s.next.EXPECT().Count(gomock.Any(), s.customers).Return(4, nil)
	n, err := s.store.Count(context.Background(), s.customers)
	s.Require().NoError(err)
	s.Equal(4, n)
}

func (s *UnreachableRedisSuite) TestBreakerOpensAfterRepeatedFailures() {
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	store := NewRedis(s.next, s.client, time.Minute, WithBreaker(breaker))

	s.next.EXPECT().Find(gomock.Any(), s.customers, gomock.Any()).Return(nil, sentinel.ErrNotFound).Times(3)
	for id := 1; id <= 3; id++ {
		_, err := store.Find(context.Background(), s.customers, id)
		s.ErrorIs(err, sentinel.ErrNotFound)
	}
	s.True(breaker.IsOpen())
	s.False(breaker.Allow())
}

func (s *UnreachableRedisSuite) TestWritesSkippedByOpenCircuitMarkKeysStale() {
	breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	store := NewRedis(s.next, s.client, time.Minute, WithBreaker(breaker))
	breaker.RecordFailure()
	s.Require().True(breaker.IsOpen())

	c, err := s.customers.New(1, "ada")
	s.Require().NoError(err)
	s.next.EXPECT().Save(gomock.Any(), c).Return(nil)
	s.Require().NoError(store.Save(context.Background(), c))

	key, err := store.key(s.customers, 1)
	s.Require().NoError(err)
	s.True(store.isStale(key))

	s.next.EXPECT().Delete(gomock.Any(), s.customers, 2).Return(nil)
	s.Require().NoError(store.Delete(context.Background(), s.customers, 2))
	other, err := store.key(s.customers, 2)
	s.Require().NoError(err)
	s.True(store.isStale(other))
}
