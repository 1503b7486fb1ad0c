package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/notify"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
	"github.com/bitfantasy/nimo-ims/internal/middleware"
	"go.uber.org/zap"
)

func setupIMSTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:             testutil.JWTSecret,
			AccessTokenExpire:  2 * time.Hour,
			RefreshTokenExpire: 168 * time.Hour,
			Issuer:             "nimo-ims",
		},
		Alert: config.AlertConfig{
			CriticalRatio:  0.2,
			SupersedeDelta: 0.10,
			StaleAfter:     24 * time.Hour,
			FallbackEmail:  "ops@example.com",
		},
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, nil, cfg, notify.NoopChannel{}, zap.NewNop())
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1/ims")

	items := api.Group("/items")
	items.GET("", handlers.Item.List)
	items.POST("", handlers.Item.Create)
	items.GET("/lookup", handlers.Item.Lookup)
	items.GET("/:id", handlers.Item.Get)
	items.PUT("/:id", handlers.Item.Update)
	items.POST("/:id/pending", handlers.Inventory.AddPending)
	items.POST("/:id/restock", handlers.Inventory.ConfirmRestock)

	api.GET("/usages", handlers.Inventory.ListUsages)
	api.POST("/usages", handlers.Inventory.RecordUsage)

	pos := api.Group("/purchase-orders")
	pos.GET("", handlers.Procurement.List)
	pos.POST("", handlers.Procurement.Create)
	pos.GET("/:id", handlers.Procurement.Get)
	pos.PUT("/:id", handlers.Procurement.Update)
	pos.POST("/:id/arrive", handlers.Procurement.MarkArrived)

	alerts := api.Group("/alerts")
	alerts.GET("", handlers.Alert.List)
	alerts.GET("/count", handlers.Alert.CountUnresolved)
	alerts.POST("/:id/read", handlers.Alert.MarkRead)
	alerts.POST("/:id/ignore", handlers.Alert.MarkIgnored)

	users := api.Group("/users", middleware.RequireRole(entity.RoleAdmin))
	users.GET("", handlers.User.List)
	users.POST("", handlers.User.Create)

	api.GET("/activity-logs", handlers.ActivityLog.List)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestItemCreateLookupAuth(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"code":                   "cable-01",
		"name":                   "网线",
		"barcode":                "BC-CABLE-01",
		"current_inventory":      100,
		"safety_stock_threshold": 20,
	}

	// 未带token被拒
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/items", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/items", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["code"] != "CABLE-01" {
		t.Fatalf("expected normalized code CABLE-01, got %v", data["code"])
	}
	// 可用量为计算字段：在库+在途
	if data["available_quantity"].(float64) != 100 {
		t.Fatalf("expected available_quantity 100, got %v", data["available_quantity"])
	}

	// 重复编码
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/items", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate code, got %d", w.Code)
	}

	// 扫码查询（按条码）
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/items/lookup?code=BC-CABLE-01", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/items/lookup?code=NOPE", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRecordUsageEndpoint(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedTestItem(t, env.DB, "GLOVE-01", 50, 100)

	body := map[string]interface{}{
		"barcode":   item.Barcode,
		"user_name": "张三",
		"quantity":  20,
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/usages", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 库存不足：400，带可用/请求数量
	body["quantity"] = 1000
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/usages", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 10001 {
		t.Fatalf("expected business code 10001, got %v", resp["code"])
	}

	// 领用已经把库存打到阈值之下，预警可查
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/alerts?resolved=false", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Fatalf("expected 1 open alert, got %v", data["total"])
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/alerts/count", nil, token)
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["count"].(float64) != 1 {
		t.Fatalf("expected count 1, got %v", resp["data"])
	}
}

func TestPurchaseOrderArriveEndpoint(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedTestItem(t, env.DB, "SCREW-M3", 10, 100)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/purchase-orders", map[string]interface{}{
		"item_id":  item.ID,
		"quantity": 200,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	poID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/purchase-orders/"+poID+"/arrive", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 重复确认到货：409
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/purchase-orders/"+poID+"/arrive", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// 台账已更新
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/items/"+item.ID, nil, token)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["current_inventory"].(float64) != 210 {
		t.Fatalf("expected current_inventory 210, got %v", data["current_inventory"])
	}
	if data["pending_po"].(float64) != 0 {
		t.Fatalf("expected pending_po 0, got %v", data["pending_po"])
	}
	if data["available_quantity"].(float64) != 210 {
		t.Fatalf("expected available_quantity 210, got %v", data["available_quantity"])
	}
}

func TestAlertMarkReadIgnore(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedTestItem(t, env.DB, "GLOVE-01", 50, 100)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/usages", map[string]interface{}{
		"barcode": item.Barcode, "user_name": "张三", "quantity": 20,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/alerts?resolved=false", nil, token)
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(items))
	}
	alertID := items[0].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/alerts/"+alertID+"/read", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/alerts/"+alertID+"/ignore", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 已读/忽略不影响resolved状态
	var alert entity.Alert
	if err := env.DB.First(&alert, "id = ?", alertID).Error; err != nil {
		t.Fatalf("failed to reload alert: %v", err)
	}
	if !alert.Read || !alert.Ignored || alert.Resolved {
		t.Fatalf("unexpected alert state: read=%v ignored=%v resolved=%v", alert.Read, alert.Ignored, alert.Resolved)
	}
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	env := setupIMSTest(t)

	staffToken := testutil.GenerateTestToken("staff-001", "普通员工", "staff@test.com", []string{entity.RoleStaff})
	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/users", nil, staffToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", w.Code)
	}

	adminToken := testutil.DefaultTestToken()
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/users", map[string]interface{}{
		"username": "zhangsan",
		"password": "secret123",
		"name":     "张三",
		"email":    "zhangsan@example.com",
	}, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["role"] != entity.RoleStaff {
		t.Fatalf("expected default role %s, got %v", entity.RoleStaff, data["role"])
	}
	if _, leaked := data["password_hash"]; leaked {
		t.Fatalf("password hash must not appear in responses")
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/users", nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestActivityLogEndpoint(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedTestItem(t, env.DB, "GLOVE-01", 50, 10)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/ims/usages", map[string]interface{}{
		"barcode": item.Barcode, "user_name": "张三", "quantity": 5,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/ims/activity-logs?entity_id="+item.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["total"].(float64) < 1 {
		t.Fatalf("expected at least one activity log, got %v", data["total"])
	}
}
