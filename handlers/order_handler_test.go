package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zephyr-r/Zephyrus/internal/messaging"
	"github.com/Zephyr-r/Zephyrus/internal/order"
	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/Zephyr-r/Zephyrus/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.Message{}))

	log := zaptest.NewLogger(t)
	orderHandler := NewOrderHandler(order.NewEngine(db, log), log)
	messageHandler := NewMessageHandler(messaging.NewEngine(db, log, false), log)

	app := fiber.New()
	api := app.Group("/api")

	orders := api.Group("/orders", utils.AuthMiddleware)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id/status", orderHandler.UpdateOrderStatus)

	messages := api.Group("/messages", utils.AuthMiddleware)
	messages.Get("/chats", messageHandler.GetChats)
	messages.Get("/history/:userId", messageHandler.GetHistory)
	messages.Post("/send", messageHandler.SendMessage)
	messages.Put("/read/:senderId", messageHandler.MarkRead)

	return &testApp{app: app, db: db}
}

func (ta *testApp) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, ta.db.Create(&u).Error)
	token, err := utils.GenerateToken(u.ID, u.Role, time.Hour)
	require.NoError(t, err)
	return &u, token
}

func (ta *testApp) product(t *testing.T, sellerID uint, price float64) *models.Product {
	t.Helper()
	p := models.Product{
		SellerID: sellerID,
		Title:    "Lamp",
		Price:    price,
		Category: "furniture",
		Images:   []string{"/uploads/products/lamp.jpg"},
		Status:   models.ProductAvailable,
	}
	require.NoError(t, ta.db.Create(&p).Error)
	return &p
}

func (ta *testApp) request(t *testing.T, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	ta := newTestApp(t)
	_, buyerToken := ta.user(t, "buyer")
	seller, sellerToken := ta.user(t, "seller")
	product := ta.product(t, seller.ID, 100)

	// Create
	resp := ta.request(t, http.MethodPost, "/api/orders/", buyerToken, fiber.Map{
		"productId":     product.ID,
		"paymentMethod": "face_to_face",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.Order `json:"data"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, models.OrderPending, created.Data.Status)
	assert.Equal(t, float64(100), created.Data.Price)

	var productRow models.Product
	require.NoError(t, ta.db.First(&productRow, product.ID).Error)
	assert.Equal(t, models.ProductReserved, productRow.Status)

	orderPath := fmt.Sprintf("/api/orders/%d", created.Data.ID)
	statusPath := orderPath + "/status"

	// Buyer confirms: still pending.
	resp = ta.request(t, http.MethodPut, statusPath, buyerToken, fiber.Map{"action": "complete"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Data models.Order `json:"data"`
	}
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.OrderPending, updated.Data.Status)
	assert.True(t, updated.Data.Confirmations.Buyer)
	assert.False(t, updated.Data.Confirmations.Seller)

	// Seller confirms: completed, product sold.
	resp = ta.request(t, http.MethodPut, statusPath, sellerToken, fiber.Map{"action": "complete"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.OrderCompleted, updated.Data.Status)

	require.NoError(t, ta.db.First(&productRow, product.ID).Error)
	assert.Equal(t, models.ProductSold, productRow.Status)

	// Cancelling a completed order is rejected.
	resp = ta.request(t, http.MethodPut, statusPath, buyerToken, fiber.Map{"action": "cancel"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderHTTPFailureModes(t *testing.T) {
	ta := newTestApp(t)
	buyer, buyerToken := ta.user(t, "buyer")
	seller, sellerToken := ta.user(t, "seller")
	_, strangerToken := ta.user(t, "stranger")
	product := ta.product(t, seller.ID, 50)

	// Unauthenticated
	resp := ta.request(t, http.MethodPost, "/api/orders/", "", fiber.Map{"productId": product.ID, "paymentMethod": "face_to_face"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Missing payment method
	resp = ta.request(t, http.MethodPost, "/api/orders/", buyerToken, fiber.Map{"productId": product.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Buying own product
	resp = ta.request(t, http.MethodPost, "/api/orders/", sellerToken, fiber.Map{"productId": product.ID, "paymentMethod": "face_to_face"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown product
	resp = ta.request(t, http.MethodPost, "/api/orders/", buyerToken, fiber.Map{"productId": 999, "paymentMethod": "face_to_face"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Successful create, then a second buyer loses the reservation.
	resp = ta.request(t, http.MethodPost, "/api/orders/", buyerToken, fiber.Map{"productId": product.ID, "paymentMethod": "face_to_face"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data models.Order `json:"data"`
	}
	decodeBody(t, resp, &created)

	resp = ta.request(t, http.MethodPost, "/api/orders/", strangerToken, fiber.Map{"productId": product.ID, "paymentMethod": "face_to_face"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Stranger may not view or act on the order.
	orderPath := fmt.Sprintf("/api/orders/%d", created.Data.ID)
	resp = ta.request(t, http.MethodGet, orderPath, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = ta.request(t, http.MethodPut, orderPath+"/status", strangerToken, fiber.Map{"action": "cancel"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Unknown action
	resp = ta.request(t, http.MethodPut, orderPath+"/status", buyerToken, fiber.Map{"action": "refund"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Role filter: buyer sees it as buyer, not as seller.
	resp = ta.request(t, http.MethodGet, "/api/orders/?role=buyer", buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Data []models.Order `json:"data"`
	}
	decodeBody(t, resp, &listed)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, buyer.ID, listed.Data[0].BuyerID)

	resp = ta.request(t, http.MethodGet, "/api/orders/?role=seller", buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &listed)
	assert.Empty(t, listed.Data)
}
