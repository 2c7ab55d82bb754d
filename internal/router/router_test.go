package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"back_office/internal/config"
	"back_office/internal/fulfillment"
	"back_office/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	open := func(name string, models ...any) *gorm.DB {
		dsn := filepath.Join(dir, name) + "?_busy_timeout=5000&_txlock=immediate"
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(models...))
		return db
	}
	orderDB := open("orders.db", &model.Order{}, &model.OrderItem{})
	ledgerDB := open("ledger.db", &model.LedgerTransaction{}, &model.LedgerItem{})

	orders := fulfillment.NewOrderStore(orderDB)
	ledger := fulfillment.NewLedgerStore(ledgerDB)
	syncer := fulfillment.NewSynchronizer(orders, ledger, nil, nil)

	r := gin.New()
	Setup(r, Deps{
		Orders: orders,
		Ledger: ledger,
		Syncer: syncer,
		Cfg:    config.AppConfig{AdminToken: "test-admin-token"},
	})
	return r
}

func doReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createOrderReq() map[string]any {
	return map[string]any{
		"order_no":      "ORD-1001",
		"customer_name": "Ayşe Yılmaz",
		"subtotal":      13000,
		"delivery_fee":  2000,
		"total":         15000,
		"items": []map[string]any{
			{"product_ref": "SKU-A", "product_name": "Item A", "quantity": 2, "unit_price": 5000},
			{"product_ref": "SKU-B", "product_name": "Item B", "quantity": 1, "unit_price": 3000},
		},
	}
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestCreateAndGetOrder(t *testing.T) {
	r := newTestRouter(t)

	w := doReq(t, r, http.MethodPost, "/api/orders", createOrderReq(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doReq(t, r, http.MethodGet, "/api/orders/ORD-1001", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doReq(t, r, http.MethodGet, "/api/orders/ORD-9999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrderRejectsBrokenTotals(t *testing.T) {
	r := newTestRouter(t)

	req := createOrderReq()
	req["total"] = 14999
	w := doReq(t, r, http.MethodPost, "/api/orders", req, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatusEndToEnd(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK,
		doReq(t, r, http.MethodPost, "/api/orders", createOrderReq(), nil).Code)

	// No receipt before the order reaches completed+paid.
	w := doReq(t, r, http.MethodGet, "/api/orders/ORD-1001/receipt", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Below threshold: status moves, nothing mirrored.
	w = doReq(t, r, http.MethodPost, "/api/orders/ORD-1001/status",
		map[string]any{"order_status": "processing", "payment_status": "paid"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataField(t, w)
	assert.Equal(t, false, data["ledger_created"])

	// completed with payment omitted: existing "paid" is retained, mirrored.
	w = doReq(t, r, http.MethodPost, "/api/orders/ORD-1001/status",
		map[string]any{"order_status": "completed"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = dataField(t, w)
	assert.Equal(t, true, data["ledger_created"])
	assert.Equal(t, "POS-ORD-1001", data["receipt_no"])

	// Retry with identical state: success, no duplicate.
	w = doReq(t, r, http.MethodPost, "/api/orders/ORD-1001/status",
		map[string]any{"order_status": "completed", "payment_status": "paid"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = dataField(t, w)
	assert.Equal(t, false, data["ledger_created"])
	assert.Equal(t, true, data["already_synchronized"])

	w = doReq(t, r, http.MethodGet, "/api/orders/ORD-1001/receipt", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = dataField(t, w)
	tx := data["transaction"].(map[string]any)
	assert.Equal(t, float64(15000), tx["total"])
	assert.Len(t, data["items"], 2)
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK,
		doReq(t, r, http.MethodPost, "/api/orders", createOrderReq(), nil).Code)

	w := doReq(t, r, http.MethodPost, "/api/orders/ORD-9999/status",
		map[string]any{"order_status": "completed"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doReq(t, r, http.MethodPost, "/api/orders/ORD-1001/status",
		map[string]any{"order_status": "finished"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doReq(t, r, http.MethodPost, "/api/orders/ORD-1001/status",
		map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPendingSyncRequiresAdminToken(t *testing.T) {
	r := newTestRouter(t)

	w := doReq(t, r, http.MethodGet, "/api/admin/sync/pending", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With a valid token but no marker store the endpoint degrades to 503.
	w = doReq(t, r, http.MethodGet, "/api/admin/sync/pending", nil,
		map[string]string{"X-Admin-Token": "test-admin-token"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
