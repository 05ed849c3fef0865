package handler_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	crmapp "github.com/crmhub/backend/internal/application/crm"
	identityapp "github.com/crmhub/backend/internal/application/identity"
	inventoryapp "github.com/crmhub/backend/internal/application/inventory"
	ledgerapp "github.com/crmhub/backend/internal/application/ledger"
	purchasingapp "github.com/crmhub/backend/internal/application/purchasing"
	"github.com/crmhub/backend/internal/infrastructure/auth"
	"github.com/crmhub/backend/internal/infrastructure/config"
	"github.com/crmhub/backend/internal/infrastructure/persistence"
	"github.com/crmhub/backend/internal/infrastructure/store"
	"github.com/crmhub/backend/internal/interfaces/http/handler"
	"github.com/crmhub/backend/internal/interfaces/http/middleware"
	"github.com/crmhub/backend/internal/interfaces/http/router"
)

const webhookSecret = "hook-secret"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type api struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

func newAPI(t *testing.T) *api {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.Item{}))

	itemStore := store.NewGormStore(db)
	productRepo := persistence.NewStoreProductRepository(itemStore)
	transactionRepo := persistence.NewStoreTransactionRepository(itemStore)
	ledgerWriter := persistence.NewStoreLedgerWriter(itemStore)
	tenantRepo := persistence.NewStoreTenantRepository(itemStore)
	userRepo := persistence.NewStoreUserRepository(itemStore)
	purchaseOrderRepo := persistence.NewStorePurchaseOrderRepository(itemStore)
	contactRepo := persistence.NewStoreContactRepository(itemStore)
	messageRepo := persistence.NewStoreMessageRepository(itemStore)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		Issuer:          "crmhub-test",
		ExpirationHours: 1,
	})

	inventoryService := inventoryapp.NewService(productRepo)
	ledgerService := ledgerapp.NewService(transactionRepo, ledgerWriter)
	purchasingService := purchasingapp.NewService(purchaseOrderRepo, productRepo)
	onboardingService := identityapp.NewOnboardingService(tenantRepo, productRepo)
	userService := identityapp.NewUserService(userRepo)
	crmService := crmapp.NewService(contactRepo, messageRepo)

	engine := gin.New()
	r := router.NewRouter(engine, middleware.Auth(jwtService))
	r.Register(handler.NewInventoryHandler(inventoryService)).
		Register(handler.NewTransactionHandler(ledgerService)).
		Register(handler.NewPurchaseOrderHandler(purchasingService)).
		Register(handler.NewOnboardingHandler(onboardingService)).
		Register(handler.NewUserHandler(userService)).
		Register(handler.NewMessageHandler(crmService, config.WebhookConfig{
			Secret:          webhookSecret,
			VerifyChallenge: true,
		}))
	r.Setup()

	return &api{engine: engine, jwt: jwtService}
}

func (a *api) token(t *testing.T, tenantID, role string) string {
	t.Helper()
	token, err := a.jwt.IssueToken(tenantID, "user-1", role)
	require.NoError(t, err)
	return token
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		NextCursor string `json:"next_cursor,omitempty"`
		Count      int    `json:"count"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAuthBoundary(t *testing.T) {
	a := newAPI(t)

	t.Run("missing token rejected", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/inventory", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decode(t, w).Error.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/inventory", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("provisioning needs no token", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/onboarding/provision", "", gin.H{
			"business_name": "Testaurant",
			"business_type": "restaurant",
			"owner_email":   "owner@example.com",
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestInventoryEndpoints(t *testing.T) {
	a := newAPI(t)
	token := a.token(t, "t1", "owner")

	w := a.do(t, http.MethodPost, "/api/v1/inventory", token, gin.H{
		"name":      "Beer Keg",
		"category":  "drinks",
		"quantity":  10,
		"unit_cost": "85.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID       string `json:"id"`
		Quantity int64  `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, int64(10), created.Quantity)

	t.Run("get round-trips", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/inventory/"+created.ID, token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing product is 404", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/inventory/ghost", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		other := a.token(t, "t2", "owner")
		w := a.do(t, http.MethodGet, "/api/v1/inventory/"+created.ID, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = a.do(t, http.MethodGet, "/api/v1/inventory", other, nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Equal(t, 0, env.Meta.Count)
	})

	t.Run("validation failure is 400", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/inventory", token, gin.H{"category": "drinks"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
	})

	t.Run("adjust rejects zero delta", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/inventory/"+created.ID+"/adjust", token, gin.H{"delta": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("adjust cannot drive stock below zero", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/inventory/"+created.ID+"/adjust", token, gin.H{"delta": -25})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, w).Error.Code)

		w = a.do(t, http.MethodGet, "/api/v1/inventory/"+created.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			Quantity int64 `json:"quantity"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
		assert.Equal(t, int64(10), got.Quantity)
	})

	t.Run("adjust within stock applies", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/inventory/"+created.ID+"/adjust", token, gin.H{"delta": -4})
		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			Quantity int64 `json:"quantity"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
		assert.Equal(t, int64(6), got.Quantity)
	})
}

func TestSaleEndpoints(t *testing.T) {
	a := newAPI(t)
	token := a.token(t, "t1", "owner")

	w := a.do(t, http.MethodPost, "/api/v1/inventory", token, gin.H{
		"name":      "Limes",
		"quantity":  5,
		"unit_cost": "3.50",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var product struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &product))

	t.Run("sale decrements stock", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/transactions", token, gin.H{
			"items": []gin.H{{
				"product_id": product.ID,
				"quantity":   3,
				"unit_price": "4.00",
			}},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = a.do(t, http.MethodGet, "/api/v1/inventory/"+product.ID, token, nil)
		var got struct {
			Quantity int64 `json:"quantity"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
		assert.Equal(t, int64(2), got.Quantity)
	})

	t.Run("oversell maps to 422", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/transactions", token, gin.H{
			"items": []gin.H{{
				"product_id": product.ID,
				"quantity":   10,
				"unit_price": "4.00",
			}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, w).Error.Code)
	})

	t.Run("transactions list pages", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/transactions?limit=1", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Equal(t, 1, env.Meta.Count)
	})
}

func TestPurchaseOrderTransitionOverHTTP(t *testing.T) {
	a := newAPI(t)
	token := a.token(t, "t1", "owner")

	w := a.do(t, http.MethodPost, "/api/v1/purchases", token, gin.H{
		"supplier_name": "Acme Foods",
		"items": []gin.H{{
			"product_id": "p1",
			"quantity":   5,
			"unit_cost":  "2.00",
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var po struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &po))

	w = a.do(t, http.MethodPatch, "/api/v1/purchases/"+po.ID, token, gin.H{"status": "received"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, w).Error.Code)
}

func TestUserRoleEnforcementOverHTTP(t *testing.T) {
	a := newAPI(t)
	staff := a.token(t, "t1", "staff")

	w := a.do(t, http.MethodPost, "/api/v1/users", staff, gin.H{
		"email": "new@example.com",
		"role":  "manager",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w).Error.Code)
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestMessageWebhook(t *testing.T) {
	a := newAPI(t)
	token := a.token(t, "t1", "owner")

	w := a.do(t, http.MethodPost, "/api/v1/messages/phone-lines", token, gin.H{"number": "15551234567"})
	require.Equal(t, http.StatusCreated, w.Code)

	payload, err := json.Marshal(gin.H{
		"entry": []gin.H{{
			"changes": []gin.H{{
				"value": gin.H{
					"metadata": gin.H{"display_phone_number": "15551234567"},
					"messages": []gin.H{{
						"id":   "wamid.1",
						"from": "15559876543",
						"text": gin.H{"body": "hi there"},
					}},
				},
			}},
		}},
	})
	require.NoError(t, err)

	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/webhook", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		if sig != "" {
			req.Header.Set("X-Hub-Signature-256", sig)
		}
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, req)
		return w
	}

	t.Run("signed delivery stored", func(t *testing.T) {
		w := post(signBody(payload))
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(t, http.MethodGet, "/api/v1/messages", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, decode(t, w).Meta.Count)
	})

	t.Run("bad signature rejected", func(t *testing.T) {
		w := post("sha256=" + hex.EncodeToString(bytes.Repeat([]byte{0xab}, 32)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		w := post("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("challenge echoes on matching token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/messages/webhook?hub.mode=subscribe&hub.verify_token="+webhookSecret+"&hub.challenge=12345", nil)
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "12345", w.Body.String())
	})

	t.Run("challenge refused on wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/messages/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
