package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"carlink/internal/domain"
	"carlink/internal/presence"
	"carlink/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The behavioral contract below runs unchanged against both backends; this is
// the portability guarantee that makes the Gateway interface worth having.

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Keep the single connection alive so the in-memory database survives
	// the whole test.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.Car{}, &domain.OneTimeCode{}))
	return db
}

type gatewayFactory func(t *testing.T, clk *testClock) Gateway

func TestGatewayContract(t *testing.T) {
	backends := map[string]gatewayFactory{
		"sql": func(t *testing.T, clk *testClock) Gateway {
			return NewSQLStoreWithClock(openTestDB(t), clk.Now)
		},
		"hybrid": func(t *testing.T, clk *testClock) Gateway {
			return NewHybridStoreWithClock(openTestDB(t), clk.Now)
		},
	}
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			runGatewayContract(t, factory)
		})
	}
}

func runGatewayContract(t *testing.T, factory gatewayFactory) {
	ctx := context.Background()

	t.Run("record login upserts", func(t *testing.T) {
		clk := newTestClock()
		gw := factory(t, clk)

		acct, err := gw.FetchAccount(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Nil(t, acct, "absent account fetch must be (nil, nil)")

		require.NoError(t, gw.RecordLogin(ctx, "a@b.com"))
		acct, err = gw.FetchAccount(ctx, "a@b.com")
		require.NoError(t, err)
		require.NotNil(t, acct)
		first := clk.Now()
		assert.WithinDuration(t, first, acct.LastSignin, time.Second)

		clk.Advance(48 * time.Hour)
		require.NoError(t, gw.RecordLogin(ctx, "a@b.com"))
		acct, err = gw.FetchAccount(ctx, "a@b.com")
		require.NoError(t, err)
		require.NotNil(t, acct)
		assert.WithinDuration(t, clk.Now(), acct.LastSignin, time.Second)
		assert.WithinDuration(t, first, acct.CreatedAt, time.Second, "creation time must not move on re-login")
	})

	t.Run("one-time codes supersede and delete", func(t *testing.T) {
		clk := newTestClock()
		gw := factory(t, clk)

		code, err := gw.FetchOneTimeCode(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Nil(t, code)

		require.NoError(t, gw.CreateOneTimeCode(ctx, "a@b.com", "11111"))
		clk.Advance(time.Minute)
		require.NoError(t, gw.CreateOneTimeCode(ctx, "a@b.com", "22222"))

		code, err = gw.FetchOneTimeCode(ctx, "a@b.com")
		require.NoError(t, err)
		require.NotNil(t, code)
		assert.Equal(t, "22222", code.Code, "later code must supersede the earlier one")
		assert.WithinDuration(t, clk.Now(), code.Created, time.Second)

		require.NoError(t, gw.DeleteOneTimeCode(ctx, "a@b.com"))
		code, err = gw.FetchOneTimeCode(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Nil(t, code)

		// Deleting an absent code is a successful no-op.
		require.NoError(t, gw.DeleteOneTimeCode(ctx, "a@b.com"))
	})

	t.Run("car crud", func(t *testing.T) {
		clk := newTestClock()
		gw := factory(t, clk)

		id := uuid.New()
		got, err := gw.FetchCar(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)

		car := &domain.Car{
			UUID:         id,
			Name:         "rover",
			SecretHash:   []byte{1, 2, 3},
			SecretSalt:   []byte{4, 5},
			SecretParams: []byte(`{"t":3}`),
			OwnerEmail:   "a@b.com",
		}
		require.NoError(t, gw.PutCar(ctx, car))

		got, err = gw.FetchCar(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "rover", got.Name)
		assert.Equal(t, "a@b.com", got.OwnerEmail)
		assert.Equal(t, []byte{1, 2, 3}, got.SecretHash)

		// Put with an existing uuid is a full update.
		car.Name = "rover-2"
		require.NoError(t, gw.PutCar(ctx, car))
		got, err = gw.FetchCar(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "rover-2", got.Name)

		require.NoError(t, gw.DeleteCar(ctx, id))
		got, err = gw.FetchCar(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)

		// Deleting an absent car is a successful no-op.
		require.NoError(t, gw.DeleteCar(ctx, id))
	})

	t.Run("presence is derived at read time", func(t *testing.T) {
		clk := newTestClock()
		gw := factory(t, clk)

		first := uuid.New()
		second := uuid.New()
		for _, c := range []struct {
			id    domain.CarID
			name  string
			owner string
		}{
			{first, "one", "a@b.com"},
			{second, "two", "a@b.com"},
			{uuid.New(), "other", "x@y.com"},
		} {
			require.NoError(t, gw.PutCar(ctx, &domain.Car{
				UUID: c.id, Name: c.name, OwnerEmail: c.owner,
				SecretHash: []byte{0}, SecretSalt: []byte{0}, SecretParams: []byte(`{}`),
			}))
		}

		statuses := func() map[string]domain.CarStatus {
			list, err := gw.ListCarsFor(ctx, "a@b.com")
			require.NoError(t, err)
			out := make(map[string]domain.CarStatus, len(list))
			for _, c := range list {
				out[c.Name] = c.Status
			}
			return out
		}

		got := statuses()
		require.Len(t, got, 2, "listing must be scoped to the owner")
		assert.Equal(t, domain.CarOffline, got["one"], "no heartbeat yet")
		assert.Equal(t, domain.CarOffline, got["two"])

		require.NoError(t, gw.Heartbeat(ctx, first))
		got = statuses()
		assert.Equal(t, domain.CarOnline, got["one"])
		assert.Equal(t, domain.CarOffline, got["two"])

		clk.Advance(presence.Window + time.Second)
		got = statuses()
		assert.Equal(t, domain.CarOffline, got["one"], "stale heartbeat must read offline")
	})

	t.Run("heartbeat for unknown car", func(t *testing.T) {
		clk := newTestClock()
		gw := factory(t, clk)
		err := gw.Heartbeat(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrDoesNotExist)
	})

	t.Run("car state snapshot", func(t *testing.T) {
		clk := newTestClock()
		gw := factory(t, clk)

		unknown := uuid.New()
		_, err := gw.GetCarState(ctx, unknown)
		assert.ErrorIs(t, err, ErrDoesNotExist)
		assert.ErrorIs(t, gw.PutCarState(ctx, unknown, &domain.Telemetry{}), ErrDoesNotExist)

		id := uuid.New()
		require.NoError(t, gw.PutCar(ctx, &domain.Car{
			UUID: id, Name: "rover", OwnerEmail: "a@b.com",
			SecretHash: []byte{0}, SecretSalt: []byte{0}, SecretParams: []byte(`{}`),
		}))

		state, err := gw.GetCarState(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, state, "no telemetry reported yet")

		reported := &domain.Telemetry{
			GPS:           [2]float32{51.5, -0.12},
			Heading:       270,
			BatteryCharge: 80,
			Speed:         12,
			LatencyMS:     40,
			LastChanged:   clk.Now().Unix(),
		}
		require.NoError(t, gw.PutCarState(ctx, id, reported))

		state, err = gw.GetCarState(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, *reported, *state)
	})
}

func TestSQLStoreSweepExpiredCodes(t *testing.T) {
	clk := newTestClock()
	ss := NewSQLStoreWithClock(openTestDB(t), clk.Now)
	ctx := context.Background()

	require.NoError(t, ss.CreateOneTimeCode(ctx, "a@b.com", "11111"))
	clk.Advance(token.ChallengeTTL + time.Minute)
	require.NoError(t, ss.CreateOneTimeCode(ctx, "c@d.com", "22222"))

	evicted, err := ss.SweepExpiredCodes(ctx, token.ChallengeTTL)
	require.NoError(t, err)
	assert.EqualValues(t, 1, evicted)

	code, err := ss.FetchOneTimeCode(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, code)

	code, err = ss.FetchOneTimeCode(ctx, "c@d.com")
	require.NoError(t, err)
	require.NotNil(t, code)
}
