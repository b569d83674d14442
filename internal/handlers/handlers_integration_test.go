package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"stardewshop/internal/database"
	"stardewshop/internal/handlers"
	"stardewshop/internal/middleware"
	"stardewshop/internal/models"
	"stardewshop/internal/repositories"
	"stardewshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPasscode = "junimo"

// setupApp wires the full application against a fresh in-memory SQLite
// database, mirroring main.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	// A named shared-cache memory database keeps the schema visible across
	// pooled connections while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	if err := database.SeedAdmin(db, "admin123"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	return buildApp(t, db,
		repositories.NewGORMProductRepository(db),
		repositories.NewGORMUserRepository(db),
		repositories.NewGORMOrderRepository(db),
		repositories.NewGORMFeedbackRepository(db))
}

// setupMemoryApp wires the app on the in-memory repositories, the way
// DB_DRIVER=memory runs it. There is no database behind it at all.
func setupMemoryApp(t *testing.T) *fiber.App {
	t.Helper()

	return buildApp(t, nil,
		repositories.NewMockProductRepository(),
		repositories.NewMockUserRepository(),
		repositories.NewMockOrderRepository(),
		repositories.NewMockFeedbackRepository())
}

func buildApp(t *testing.T, db *gorm.DB, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, orderRepo repositories.OrderRepository, feedbackRepo repositories.FeedbackRepository) *fiber.App {
	t.Helper()

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, nil)
	feedbackService := services.NewFeedbackService(feedbackRepo)

	store := session.New()

	authHandler := handlers.NewAuthHandler(authService, store)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, orderService, store)
	orderHandler := handlers.NewOrderHandler(orderService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, authService, store)
	adminHandler := handlers.NewAdminHandler(productService, orderService, feedbackService, store, testPasscode, productHandler, feedbackHandler)
	systemHandler := handlers.NewSystemHandler(db)

	app := fiber.New()

	authHandler.RegisterRoutes(app)
	productHandler.RegisterShopRoutes(app)
	cartHandler.RegisterRoutes(app)
	feedbackHandler.RegisterRoutes(app)
	adminHandler.RegisterRoutes(app)
	systemHandler.RegisterRoutes(app)

	apiV1 := app.Group("/api/v1")
	systemHandler.RegisterAPIRoutes(apiV1)
	authHandler.RegisterAPIRoutes(apiV1)
	apiAdmin := []fiber.Handler{
		middleware.APIAuthRequired(authService),
		middleware.APIAdminRequired(),
	}
	productHandler.RegisterAPIRoutes(apiV1, apiAdmin...)
	orderHandler.RegisterAPIRoutes(apiV1, apiAdmin...)
	feedbackHandler.RegisterAPIRoutes(apiV1, apiAdmin...)

	seedProducts(t, productRepo)
	return app
}

func seedProducts(t *testing.T, repo repositories.ProductRepository) {
	t.Helper()
	products := []models.Product{
		{Name: "Parsnip Seeds", Price: 10.0, Category: "Seeds", Image: "/img/parsnip.png"},
		{Name: "Cauliflower Seeds", Price: 40.0, Category: "Seeds", Image: "/img/cauliflower.png"},
		{Name: "Salmonberry", Price: 5.0, Category: "Forage", Image: "/img/salmonberry.png"},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			t.Fatalf("failed to seed product %s: %v", products[i].Name, err)
		}
	}
}

// doJSON sends a request with an optional JSON body and session cookies.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, cookies []*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	err := json.NewDecoder(resp.Body).Decode(&out)
	assert.NoError(t, err)
	resp.Body.Close()
	return out
}

// registerAndLogin creates an account and returns the session cookies.
func registerAndLogin(t *testing.T, app *fiber.App, username string) []*http.Cookie {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    username + "@stardew.com",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	resp.Body.Close()
	assert.NotEmpty(t, cookies)
	return cookies
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestStatusAndHealth(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/status", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "1.0", status["version"])

	resp = doJSON(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	health := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "healthy", health["status"])
}

func TestShopListingAndSorting(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/shop", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products := decodeBody[[]models.Product](t, resp)
	assert.Len(t, products, 3)

	// Category filter
	resp = doJSON(t, app, http.MethodGet, "/shop?category=Seeds", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products = decodeBody[[]models.Product](t, resp)
	assert.Len(t, products, 2)
	for _, p := range products {
		assert.Equal(t, "Seeds", p.Category)
	}

	// Price descending
	resp = doJSON(t, app, http.MethodGet, "/shop?sort_by=price&order=DESC", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products = decodeBody[[]models.Product](t, resp)
	assert.Len(t, products, 3)
	assert.True(t, products[0].Price >= products[1].Price && products[1].Price >= products[2].Price)

	// Unknown sort keys fall back to id ascending rather than erroring.
	resp = doJSON(t, app, http.MethodGet, "/shop?sort_by=drop+table&order=sideways", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products = decodeBody[[]models.Product](t, resp)
	assert.Len(t, products, 3)
	assert.Equal(t, uint(1), products[0].ID)
}

func TestCartLifecycleAndCheckout(t *testing.T) {
	app := setupApp(t)
	cookies := registerAndLogin(t, app, "haley")

	// Two units of product 1, one of product 3.
	for _, path := range []string{"/add_to_cart/1", "/add_to_cart/1", "/add_to_cart/3"} {
		resp := doJSON(t, app, http.MethodPost, path, nil, cookies)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, http.MethodGet, "/cart", nil, cookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[services.CartView](t, resp)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 10.0*2+5.0, view.Total)

	// Decrease product 3 from quantity 1: the entry disappears.
	resp = doJSON(t, app, http.MethodPost, "/update_cart_item/3/decrease", nil, cookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/cart", nil, cookies)
	view = decodeBody[services.CartView](t, resp)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, 20.0, view.Total)

	// Checkout persists the order and empties the cart.
	resp = doJSON(t, app, http.MethodPost, "/checkout", nil, cookies)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	checkout := decodeBody[struct {
		Order models.Order `json:"order"`
	}](t, resp)
	assert.Equal(t, 20.0, checkout.Order.TotalPrice)
	assert.Len(t, checkout.Order.Items, 1)
	assert.Equal(t, uint(1), checkout.Order.Items[0].ProductID)
	assert.Equal(t, 2, checkout.Order.Items[0].Quantity)

	resp = doJSON(t, app, http.MethodGet, "/cart", nil, cookies)
	view = decodeBody[services.CartView](t, resp)
	assert.Empty(t, view.Items)

	resp = doJSON(t, app, http.MethodGet, "/orders", nil, cookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decodeBody[[]models.Order](t, resp)
	assert.Len(t, orders, 1)
	assert.Equal(t, 20.0, orders[0].TotalPrice)
}

func TestCheckoutEmptyCart(t *testing.T) {
	app := setupApp(t)
	cookies := registerAndLogin(t, app, "abigail")

	resp := doJSON(t, app, http.MethodPost, "/checkout", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// No order rows were produced.
	resp = doJSON(t, app, http.MethodGet, "/orders", nil, cookies)
	orders := decodeBody[[]models.Order](t, resp)
	assert.Empty(t, orders)
}

func TestCheckoutRequiresLogin(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/add_to_cart/1", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/checkout", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The anonymous cart survives the rejected checkout.
	resp = doJSON(t, app, http.MethodGet, "/cart", nil, cookies)
	view := decodeBody[services.CartView](t, resp)
	assert.Len(t, view.Items, 1)
}

func TestFeedbackValidationAndAdminDelete(t *testing.T) {
	app := setupApp(t)

	// Rating 6 rejected on the open API path.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/feedback", map[string]any{
		"username": "haley",
		"email":    "haley@stardew.com",
		"text":     "Too good!",
		"rating":   6,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Missing email rejected.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/feedback", map[string]any{
		"username": "haley",
		"text":     "Hello",
		"rating":   4,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Rating 5 accepted.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/feedback", map[string]any{
		"username": "haley",
		"email":    "haley@stardew.com",
		"text":     "Lovely shop!",
		"rating":   5,
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Feedback](t, resp)
	assert.Equal(t, 5, created.Rating)

	resp = doJSON(t, app, http.MethodGet, "/feedback", nil, nil)
	feedbacks := decodeBody[[]models.Feedback](t, resp)
	assert.Len(t, feedbacks, 1)

	// Deletion needs the admin token.
	deletePath := fmt.Sprintf("/api/v1/feedback/%d", created.ID)
	resp = doJSON(t, app, http.MethodDelete, deletePath, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token := apiLogin(t, app, "admin", "admin123")
	req := httptest.NewRequest(http.MethodDelete, deletePath, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	deleteResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, deleteResp.StatusCode)
	deleteResp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/feedback", nil, nil)
	feedbacks = decodeBody[[]models.Feedback](t, resp)
	assert.Empty(t, feedbacks)
}

func TestSessionFeedbackRequiresLogin(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/feedback", map[string]any{
		"text":   "Hello",
		"rating": 4,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	cookies := registerAndLogin(t, app, "penny")
	resp = doJSON(t, app, http.MethodPost, "/feedback", map[string]any{
		"text":   "Hello",
		"rating": 4,
	}, cookies)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[models.Feedback](t, resp)
	assert.Equal(t, "penny", created.Username)
}

func TestGuestOrderAPI(t *testing.T) {
	app := setupApp(t)

	// Unknown buyer fails with a validation error regardless of items.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", map[string]any{
		"username": "ghost",
		"email":    "ghost@stardew.com",
		"items":    []map[string]any{{"product_id": 1, "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Register a user, then order as them with only username and email.
	registerAndLogin(t, app, "shane")
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", map[string]any{
		"username": "shane",
		"email":    "shane@stardew.com",
		"items": []map[string]any{
			{"product_id": 1, "quantity": 2},
			{"product_id": 999, "quantity": 5}, // unknown id, contributes zero
		},
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decodeBody[models.Order](t, resp)
	assert.Equal(t, 20.0, order.TotalPrice)
	assert.Len(t, order.Items, 1)
}

func apiLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.NotEmpty(t, body["token"])
	return body["token"]
}

func TestManageGates(t *testing.T) {
	app := setupApp(t)

	// No session capability at all.
	resp := doJSON(t, app, http.MethodGet, "/manage", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// A plain user is rejected too.
	userCookies := registerAndLogin(t, app, "pierre")
	resp = doJSON(t, app, http.MethodGet, "/manage", nil, userCookies)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The passcode grants the weaker capability.
	resp = doJSON(t, app, http.MethodPost, "/manage/passcode", map[string]string{
		"passcode": testPasscode,
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	passcodeCookies := resp.Cookies()
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/manage", nil, passcodeCookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	overview := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "passcode-granted", overview["granted_via"])

	// A wrong passcode grants nothing.
	resp = doJSON(t, app, http.MethodPost, "/manage/passcode", map[string]string{
		"passcode": "wrong",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The seeded admin account passes via its role.
	resp = doJSON(t, app, http.MethodPost, "/login", map[string]string{
		"username": "admin",
		"password": "admin123",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	adminCookies := resp.Cookies()
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/manage", nil, adminCookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	overview = decodeBody[map[string]any](t, resp)
	assert.Equal(t, "role-admin", overview["granted_via"])
}

func TestAPIProductMutationsRequireAdminToken(t *testing.T) {
	app := setupApp(t)

	newProduct := map[string]any{"name": "Starfruit Seeds", "price": 400.0, "category": "Seeds"}

	// No token.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", newProduct, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Non-admin token.
	registerAndLogin(t, app, "sam")
	userToken := apiLogin(t, app, "sam", "password123")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", jsonBody(t, newProduct))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+userToken)
	userResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, userResp.StatusCode)
	userResp.Body.Close()

	// Admin token.
	adminToken := apiLogin(t, app, "admin", "admin123")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", jsonBody(t, newProduct))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	adminResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, adminResp.StatusCode)
	created := decodeBody[models.Product](t, adminResp)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Starfruit Seeds", created.Name)

	// Negative price rejected even with the right capability.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", jsonBody(t, map[string]any{
		"name": "Void Essence", "price": -5.0,
	}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	badResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	badResp.Body.Close()

	// Reads stay public.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products := decodeBody[[]models.Product](t, resp)
	assert.Len(t, products, 4)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestMemoryBackedApp(t *testing.T) {
	app := setupMemoryApp(t)

	// Health reports the store kind instead of pinging a database.
	resp := doJSON(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	health := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "memory", health["store"])

	cookies := registerAndLogin(t, app, "emily")
	for i := 0; i < 2; i++ {
		resp = doJSON(t, app, http.MethodPost, "/add_to_cart/1", nil, cookies)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp = doJSON(t, app, http.MethodPost, "/checkout", nil, cookies)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	checkout := decodeBody[struct {
		Order models.Order `json:"order"`
	}](t, resp)
	assert.Equal(t, 20.0, checkout.Order.TotalPrice)
	assert.Len(t, checkout.Order.Items, 1)

	resp = doJSON(t, app, http.MethodGet, "/orders", nil, cookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decodeBody[[]models.Order](t, resp)
	assert.Len(t, orders, 1)

	resp = doJSON(t, app, http.MethodPost, "/feedback", map[string]any{
		"text":   "Works without a database",
		"rating": 5,
	}, cookies)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/feedback", nil, nil)
	feedbacks := decodeBody[[]models.Feedback](t, resp)
	assert.Len(t, feedbacks, 1)
	assert.Equal(t, "emily", feedbacks[0].Username)
}

func jsonBody(t *testing.T, body any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(body)
	assert.NoError(t, err)
	return bytes.NewReader(raw)
}
