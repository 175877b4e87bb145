package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(userID uuid.UUID, createdAt time.Time, key *string) *model.Order {
	return &model.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(50),
		ShippingFee: decimal.NewFromInt(10),
		Address: model.Address{
			Street:  "1 Main St",
			City:    "Springfield",
			Country: "US",
		},
		Status:         model.OrderStatusPlaced,
		Payment:        model.PaymentPending,
		PaymentMethod:  model.PaymentMethodCOD,
		IdempotencyKey: key,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func insertOrder(t *testing.T, repo OrderRepository, order *model.Order, items []model.OrderItem) {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))
}

func itemsFor(order *model.Order, products ...model.Product) []model.OrderItem {
	items := make([]model.OrderItem, len(products))
	for i, p := range products {
		items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: p.ID,
			Name:      p.Name,
			Size:      "M",
			Quantity:  i + 1,
			UnitPrice: p.Price,
		}
	}
	return items
}

func setupOrderFixtures(t *testing.T) (*pgxpool.Pool, OrderRepository, *model.User, []model.Product, func()) {
	pool, cleanup := setupTestDB(t)
	repo := NewOrderRepository(pool, zerolog.Nop())
	user := seedUser(t, pool, "orders@example.com", false)
	now := time.Now().UTC().Truncate(time.Microsecond)
	products := []model.Product{
		newTestProduct("Shirt", "men", 20, now),
		newTestProduct("Dress", "women", 45, now),
	}
	seedProducts(t, pool, products)
	return pool, repo, user, products, cleanup
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, repo, user, products, cleanup := setupOrderFixtures(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder(user.ID, time.Now().UTC().Truncate(time.Microsecond), nil)
	insertOrder(t, repo, order, itemsFor(order, products...))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, user.ID, got.UserID)
	assert.True(t, order.Amount.Equal(got.Amount))
	assert.Equal(t, order.Address, got.Address)
	assert.Equal(t, model.OrderStatusPlaced, got.Status)
	assert.Equal(t, model.PaymentPending, got.Payment)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Shirt", got.Items[0].Name)
	assert.Equal(t, 2, got.Items[1].Quantity)
	assert.True(t, got.Items[0].Available)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, products[0].Images, got.Items[0].Product.Images)

	t.Run("deleted product keeps snapshot and is unavailable", func(t *testing.T) {
		_, err := NewProductRepository(pool, zerolog.Nop()).Delete(ctx, products[1].ID)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.True(t, got.Items[0].Available)
		assert.False(t, got.Items[1].Available)
		assert.Nil(t, got.Items[1].Product)
		assert.Equal(t, "Dress", got.Items[1].Name)
		assert.True(t, products[1].Price.Equal(got.Items[1].UnitPrice))
	})

	t.Run("unknown id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestOrderRepository_TransactionRollback(t *testing.T) {
	_, repo, user, _, cleanup := setupOrderFixtures(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	order := newTestOrder(user.ID, time.Now().UTC(), nil)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Rollback(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_IdempotencyKey(t *testing.T) {
	_, repo, user, products, cleanup := setupOrderFixtures(t)
	defer cleanup()
	ctx := context.Background()

	key := "checkout-123"
	first := newTestOrder(user.ID, time.Now().UTC(), &key)
	insertOrder(t, repo, first, itemsFor(first, products[0]))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	second := newTestOrder(user.ID, time.Now().UTC(), &key)
	err = repo.CreateOrder(ctx, tx, second)
	assert.ErrorIs(t, err, ErrDuplicateIdempotencyKey)

	found, err := repo.FindByIdempotencyKey(ctx, user.ID, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
	assert.Len(t, found.Items, 1)

	none, err := repo.FindByIdempotencyKey(ctx, user.ID, "other-key")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOrderRepository_List(t *testing.T) {
	pool, repo, user, products, cleanup := setupOrderFixtures(t)
	defer cleanup()
	ctx := context.Background()

	other := seedUser(t, pool, "someone@example.com", false)
	base := time.Now().UTC().Truncate(time.Microsecond)

	oldest := newTestOrder(user.ID, base.Add(-2*time.Hour), nil)
	middle := newTestOrder(other.ID, base.Add(-time.Hour), nil)
	newest := newTestOrder(user.ID, base, nil)
	for _, o := range []*model.Order{oldest, middle, newest} {
		insertOrder(t, repo, o, itemsFor(o, products[0]))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, middle.ID, all[1].ID)
	assert.Equal(t, oldest.ID, all[2].ID)
	for _, o := range all {
		assert.Len(t, o.Items, 1)
	}

	mine, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newest.ID, mine[0].ID)

	none, err := repo.ListByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestOrderRepository_UpdateState(t *testing.T) {
	_, repo, user, products, cleanup := setupOrderFixtures(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder(user.ID, time.Now().UTC(), nil)
	insertOrder(t, repo, order, itemsFor(order, products[0]))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	locked, err := repo.LockByID(ctx, tx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)

	locked.Status = model.OrderStatusDelivered
	locked.Payment = model.PaymentPaid
	locked.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateState(ctx, tx, locked))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)
	assert.Equal(t, model.PaymentPaid, got.Payment)

	t.Run("unknown order", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		missing, err := repo.LockByID(ctx, tx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)

		ghost := newTestOrder(user.ID, time.Now().UTC(), nil)
		assert.ErrorIs(t, repo.UpdateState(ctx, tx, ghost), model.ErrOrderNotFound)
	})
}

func TestOrderRepository_ErrorPaths(t *testing.T) {
	pool, repo, _, _, cleanup := setupOrderFixtures(t)
	defer cleanup()
	ctx := context.Background()

	pool.Close()

	t.Run("BeginTx with closed pool", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)

		require.Error(t, err)
		assert.Nil(t, tx)
	})

	t.Run("GetByID with closed pool", func(t *testing.T) {
		order, err := repo.GetByID(ctx, uuid.New())

		require.Error(t, err)
		assert.Nil(t, order)
	})
}
