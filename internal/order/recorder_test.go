package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedcrochet/storefront/internal/cart"
	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/order"
	"github.com/craftedcrochet/storefront/internal/popularity"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/internal/storage/memstore"
)

var buyer = order.Customer{
	Name:    "Maya Chen",
	Email:   "maya@example.com",
	Phone:   "09171234567",
	Address: "12 Mabini St, Quezon City",
}

var rose = catalog.Product{ID: 1, Name: "Crochet Rose", Category: "flowers", Price: 1000, Stock: 10}

type fixture struct {
	chain    *storage.Chain
	hub      *events.Hub
	engine   *popularity.Engine
	recorder *order.Recorder
	cart     *cart.Store
}

func newFixture(t *testing.T, chain *storage.Chain) *fixture {
	t.Helper()
	hub := events.NewHub()
	engine := popularity.NewEngine(chain)
	return &fixture{
		chain:    chain,
		hub:      hub,
		engine:   engine,
		recorder: order.NewRecorder(chain, hub, engine),
		cart:     cart.NewStore(chain, hub, "session-order"),
	}
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(memstore.New(), memstore.New()))
	require.NoError(t, f.cart.AddItem(ctx, rose, 2))

	var placed []events.OrderPlaced
	f.hub.OnOrderPlaced(func(ev events.OrderPlaced) { placed = append(placed, ev) })

	o, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: buyer})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-\d{3}$`), o.ID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, 2000.0, o.Total)
	assert.Equal(t, "bank transfer", o.PaymentMethod)
	assert.Equal(t, order.PaymentProofNotProvided, o.PaymentProof)
	require.Len(t, o.Items, 1)
	assert.Equal(t, rose.ID, o.Items[0].ProductID)

	// The cart empties only after the order is recorded.
	assert.Empty(t, f.cart.Lines())

	// The order counts toward popularity.
	assert.Equal(t, 2, f.engine.Counts()[rose.ID])

	require.Len(t, placed, 1)
	assert.Equal(t, o.ID, placed[0].OrderID)
	assert.Equal(t, buyer.Name, placed[0].CustomerName)
	assert.Equal(t, 2000.0, placed[0].Total)

	got, err := f.recorder.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.Total, got.Total)
}

func TestFinalizeEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(memstore.New(), memstore.New()))

	_, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: buyer})
	assert.ErrorIs(t, err, order.ErrEmptyCart)

	orders, err := f.recorder.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFinalizeValidatesCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(memstore.New(), memstore.New()))
	require.NoError(t, f.cart.AddItem(ctx, rose, 1))

	incomplete := buyer
	incomplete.Phone = " "
	_, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: incomplete})

	var verr *order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)

	// A rejected checkout leaves the cart untouched.
	assert.Len(t, f.cart.Lines(), 1)
}

func TestFinalizeKeepsCartWhenNothingAcceptsTheWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(downBackend{}, downBackend{}))
	require.NoError(t, f.cart.AddItem(ctx, rose, 2))

	_, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: buyer})
	require.ErrorIs(t, err, storage.ErrUnavailable)

	// The customer keeps the cart and can retry.
	assert.Len(t, f.cart.Lines(), 1)
	assert.Equal(t, 0, f.engine.TotalOrders())
}

func TestFinalizeProceedsWhenOnlyCacheAccepts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(memstore.New(), downBackend{}))
	require.NoError(t, f.cart.AddItem(ctx, rose, 1))

	o, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: buyer})
	require.NoError(t, err)
	assert.Empty(t, f.cart.Lines())

	got, err := f.recorder.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(memstore.New(), memstore.New()))
	require.NoError(t, f.cart.AddItem(ctx, rose, 1))

	o, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: buyer})
	require.NoError(t, err)

	updated, err := f.recorder.UpdateStatus(ctx, o.ID, order.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, updated.Status)

	// Any status string is accepted, not just the known three.
	updated, err = f.recorder.UpdateStatus(ctx, o.ID, "on hold")
	require.NoError(t, err)
	assert.Equal(t, order.Status("on hold"), updated.Status)

	got, err := f.recorder.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Status("on hold"), got.Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t, storage.NewChain(memstore.New(), memstore.New()))

	_, err := f.recorder.UpdateStatus(context.Background(), "ORD-0-000", order.StatusConfirmed)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewChain(memstore.New(), memstore.New()))

	for i := 0; i < 3; i++ {
		require.NoError(t, f.cart.AddItem(ctx, rose, 1))
		_, err := f.recorder.Finalize(ctx, f.cart, order.Checkout{Customer: buyer})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	orders, err := f.recorder.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		assert.False(t, orders[i].Timestamp.After(orders[i-1].Timestamp))
	}
}

// downBackend fails every operation.
type downBackend struct{}

var errDown = errors.New("backend down")

func (downBackend) Name() string { return "down" }

func (downBackend) Read(context.Context, string) ([]storage.Document, error) {
	return nil, errDown
}

func (downBackend) Get(context.Context, string, string) (storage.Document, error) {
	return storage.Document{}, errDown
}

func (downBackend) Write(context.Context, string, string, json.RawMessage) error { return errDown }

func (downBackend) Update(context.Context, string, string, json.RawMessage) error { return errDown }

func (downBackend) Remove(context.Context, string, string) error { return errDown }

func (downBackend) Replace(context.Context, string, []storage.Document) error { return errDown }
