package order

import (
	"context"
	"sync"
	"testing"

	"github.com/Zephyr-r/Zephyrus/internal/catalog"
	"github.com/Zephyr-r/Zephyrus/internal/market"
	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db     *gorm.DB
	engine *Engine
	buyer  models.User
	seller models.User
	other  models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}))

	f := &fixture{db: db, engine: NewEngine(db, zaptest.NewLogger(t))}
	f.buyer = models.User{Username: "buyer", Email: "buyer@example.com", Password: "x"}
	f.seller = models.User{Username: "seller", Email: "seller@example.com", Password: "x"}
	f.other = models.User{Username: "other", Email: "other@example.com", Password: "x"}
	require.NoError(t, db.Create(&f.buyer).Error)
	require.NoError(t, db.Create(&f.seller).Error)
	require.NoError(t, db.Create(&f.other).Error)
	return f
}

func (f *fixture) newProduct(t *testing.T, price float64) *models.Product {
	t.Helper()
	product := models.Product{
		SellerID: f.seller.ID,
		Title:    "Camera",
		Price:    price,
		Category: "electronics",
		Images:   []string{"/uploads/products/camera.jpg"},
		Status:   models.ProductAvailable,
	}
	require.NoError(t, f.db.Create(&product).Error)
	return &product
}

func (f *fixture) productStatus(t *testing.T, id uint) string {
	t.Helper()
	status, err := catalog.New(f.db).Availability(context.Background(), id)
	require.NoError(t, err)
	return status
}

func TestCreateReservesProductAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 100)

	o, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, float64(100), o.Price)
	assert.False(t, o.Confirmations.Buyer)
	assert.False(t, o.Confirmations.Seller)
	assert.Equal(t, f.seller.ID, o.SellerID)
	assert.Equal(t, models.ProductReserved, f.productStatus(t, product.ID))

	// A later price edit must not reach the historical order.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("price", 250).Error)
	reloaded, err := f.engine.Get(ctx, o.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), reloaded.Price)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 50)

	_, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID})
	assert.ErrorIs(t, err, market.ErrInvalidInput)

	_, err = f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "barter"})
	assert.ErrorIs(t, err, market.ErrInvalidInput)

	_, err = f.engine.Create(ctx, f.seller.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	assert.ErrorIs(t, err, market.ErrSelfTransaction)

	_, err = f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: 999, PaymentMethod: "face_to_face"})
	assert.ErrorIs(t, err, market.ErrNotFound)

	// None of the failures may have reserved the product.
	assert.Equal(t, models.ProductAvailable, f.productStatus(t, product.ID))
}

func TestSecondBuyerGetsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 50)

	_, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	_, err = f.engine.Create(ctx, f.other.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	assert.ErrorIs(t, err, market.ErrConflict)
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 50)

	buyers := []uint{f.buyer.ID, f.other.ID}
	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, id := range buyers {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = f.engine.Create(ctx, id, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
		}(i, id)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, market.ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, models.ProductReserved, f.productStatus(t, product.ID))
}

func TestDualConfirmationCompletesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 100)

	o, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	// Buyer confirms: still pending, one flag set.
	o, err = f.engine.Confirm(ctx, o.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.True(t, o.Confirmations.Buyer)
	assert.False(t, o.Confirmations.Seller)
	assert.Equal(t, models.ProductReserved, f.productStatus(t, product.ID))

	// Seller confirms: completed, product sold.
	o, err = f.engine.Confirm(ctx, o.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)
	assert.True(t, o.Confirmations.Buyer)
	assert.True(t, o.Confirmations.Seller)
	assert.Equal(t, models.ProductSold, f.productStatus(t, product.ID))

	// Terminal: no further transitions.
	_, err = f.engine.Cancel(ctx, o.ID, f.buyer.ID)
	assert.ErrorIs(t, err, market.ErrInvalidState)
	_, err = f.engine.Confirm(ctx, o.ID, f.buyer.ID)
	assert.ErrorIs(t, err, market.ErrInvalidState)
}

func TestConfirmIsIdempotentPerParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 100)

	o, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	first, err := f.engine.Confirm(ctx, o.ID, f.buyer.ID)
	require.NoError(t, err)
	second, err := f.engine.Confirm(ctx, o.ID, f.buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Confirmations, second.Confirmations)
	assert.Equal(t, models.OrderPending, second.Status)
	assert.Equal(t, models.ProductReserved, f.productStatus(t, product.ID))
}

func TestCancelReleasesProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 100)

	o, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	// Seller cancels unilaterally even though the buyer already confirmed.
	_, err = f.engine.Confirm(ctx, o.ID, f.buyer.ID)
	require.NoError(t, err)
	o, err = f.engine.Cancel(ctx, o.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)
	assert.Equal(t, models.ProductAvailable, f.productStatus(t, product.ID))

	// The released product is immediately reservable again.
	_, err = f.engine.Create(ctx, f.other.ID, CreateInput{ProductID: product.ID, PaymentMethod: "paypal"})
	require.NoError(t, err)
	assert.Equal(t, models.ProductReserved, f.productStatus(t, product.ID))
}

func TestOnlyPartiesMayAct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.newProduct(t, 100)

	o, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: product.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	_, err = f.engine.Confirm(ctx, o.ID, f.other.ID)
	assert.ErrorIs(t, err, market.ErrForbidden)
	_, err = f.engine.Cancel(ctx, o.ID, f.other.ID)
	assert.ErrorIs(t, err, market.ErrForbidden)
	_, err = f.engine.Get(ctx, o.ID, f.other.ID)
	assert.ErrorIs(t, err, market.ErrForbidden)

	_, err = f.engine.Get(ctx, 999, f.buyer.ID)
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestListFiltersAndOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.newProduct(t, 10)
	second := f.newProduct(t, 20)

	o1, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: first.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)
	o2, err := f.engine.Create(ctx, f.buyer.ID, CreateInput{ProductID: second.ID, PaymentMethod: "face_to_face"})
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, o1.ID, f.buyer.ID)
	require.NoError(t, err)

	asBuyer, total, err := f.engine.List(ctx, f.buyer.ID, Filter{Role: "buyer"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, asBuyer, 2)
	// Newest first.
	assert.Equal(t, o2.ID, asBuyer[0].ID)

	asSeller, _, err := f.engine.List(ctx, f.seller.ID, Filter{Role: "seller"})
	require.NoError(t, err)
	assert.Len(t, asSeller, 2)

	pending, _, err := f.engine.List(ctx, f.buyer.ID, Filter{Status: models.OrderPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, o2.ID, pending[0].ID)

	none, _, err := f.engine.List(ctx, f.other.ID, Filter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
