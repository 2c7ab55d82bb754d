package router

import (
	"errors"
	"net/http"

	"back_office/internal/config"
	"back_office/internal/fulfillment"
	"back_office/internal/middleware"
	"back_office/internal/model"
	rediskey "back_office/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// Deps bundles what the HTTP layer needs. Redis is optional; when absent
// the state cache and reconciliation endpoints degrade gracefully.
type Deps struct {
	Orders  *fulfillment.OrderStore
	Ledger  fulfillment.LedgerStore
	Syncer  *fulfillment.Synchronizer
	Redis   *rd.Client
	Pending *rediskey.PendingMarker
	Cfg     config.AppConfig
}

// Setup registers all HTTP routes.
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	// Orders
	r.POST("/api/orders", createOrder(d))
	r.GET("/api/orders/:order_no", getOrder(d))
	r.GET("/api/orders/:order_no/receipt", getReceipt(d))
	r.GET("/api/orders/:order_no/sync_state", getSyncState(d))

	// The one inbound entry into the fulfillment core.
	statusHandlers := []gin.HandlerFunc{}
	if d.Redis != nil {
		statusHandlers = append(statusHandlers,
			middleware.OrderRateLimit(d.Redis, d.Cfg.SyncRateLimit, d.Cfg.SyncRateWindow))
	}
	statusHandlers = append(statusHandlers, updateOrderStatus(d))
	r.POST("/api/orders/:order_no/status", statusHandlers...)

	// Reconciliation hook for operators.
	r.GET("/api/admin/sync/pending", listPendingSync(d))
}

// createOrder is the minimal catalog order-creation path. Pricing is
// treated as already computed by the caller; only the money invariants
// are enforced here.
func createOrder(d Deps) gin.HandlerFunc {
	type itemReq struct {
		ProductRef  string `json:"product_ref" binding:"required"`
		ProductName string `json:"product_name" binding:"required"`
		Quantity    int    `json:"quantity" binding:"required,min=1"`
		UnitPrice   int64  `json:"unit_price" binding:"min=0"`
	}
	return func(c *gin.Context) {
		var req struct {
			OrderNo       string    `json:"order_no" binding:"required"`
			CustomerName  string    `json:"customer_name" binding:"required"`
			CustomerPhone string    `json:"customer_phone"`
			CustomerEmail string    `json:"customer_email"`
			AddressLine   string    `json:"address_line"`
			City          string    `json:"city"`
			Subtotal      int64     `json:"subtotal" binding:"min=0"`
			DeliveryFee   int64     `json:"delivery_fee" binding:"min=0"`
			Total         int64     `json:"total" binding:"min=0"`
			Items         []itemReq `json:"items" binding:"required,min=1,dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		o := &model.Order{
			OrderNo:       req.OrderNo,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
			AddressLine:   req.AddressLine,
			City:          req.City,
			Subtotal:      req.Subtotal,
			DeliveryFee:   req.DeliveryFee,
			Total:         req.Total,
			OrderStatus:   model.OrderPending,
			PaymentStatus: model.PaymentPending,
		}
		items := make([]model.OrderItem, len(req.Items))
		for i, it := range req.Items {
			items[i] = model.OrderItem{
				ProductRef:  it.ProductRef,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				LineTotal:   int64(it.Quantity) * it.UnitPrice,
			}
		}

		if err := d.Orders.CreateWithItems(c.Request.Context(), o, items); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": o})
	}
}

// getOrder returns an order with its line items.
func getOrder(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, items, err := d.Orders.GetWithItems(c.Request.Context(), c.Param("order_no"))
		if err != nil {
			if errors.Is(err, fulfillment.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"order": o, "items": items}})
	}
}

// updateOrderStatus drives the fulfillment synchronizer.
func updateOrderStatus(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNo := c.Param("order_no")

		var req struct {
			OrderStatus   string  `json:"order_status" binding:"required"`
			PaymentStatus *string `json:"payment_status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		newStatus := model.OrderStatus(req.OrderStatus)
		var newPayment *model.PaymentStatus
		if req.PaymentStatus != nil {
			p := model.PaymentStatus(*req.PaymentStatus)
			newPayment = &p
		}

		res, err := d.Syncer.Synchronize(c.Request.Context(), orderNo, newStatus, newPayment)
		if err != nil {
			cacheSyncState(c, d, orderNo, rediskey.SyncState{
				OrderNo: orderNo,
				Status:  rediskey.SyncFailed,
				Reason:  err.Error(),
			})
			switch {
			case errors.Is(err, fulfillment.ErrOrderNotFound):
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
			case errors.Is(err, fulfillment.ErrInvalidStatus),
				errors.Is(err, fulfillment.ErrInvalidPaymentStatus):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			case errors.Is(err, fulfillment.ErrFulfillmentPropagationFailed):
				// The order was rolled back to its prior state; retryable.
				c.JSON(http.StatusBadGateway, gin.H{"code": 502, "msg": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}

		st := rediskey.SyncState{OrderNo: orderNo, Status: rediskey.SyncBelowThreshold}
		if res.ReceiptNo != "" {
			st.Status = rediskey.SyncMirrored
			st.ReceiptNo = res.ReceiptNo
		}
		cacheSyncState(c, d, orderNo, st)

		c.JSON(http.StatusOK, gin.H{
			"code": 0,
			"data": gin.H{
				"order_no":             res.OrderNo,
				"order_status":         res.OrderStatus,
				"payment_status":       res.PaymentStatus,
				"receipt_no":           res.ReceiptNo,
				"ledger_created":       res.LedgerCreated,
				"already_synchronized": res.AlreadySynchronized,
			},
		})
	}
}

func cacheSyncState(c *gin.Context, d Deps, orderNo string, st rediskey.SyncState) {
	if d.Redis == nil {
		return
	}
	// Cache is advisory; a write failure never fails the request.
	_ = rediskey.PutSyncState(c.Request.Context(), d.Redis, st, d.Cfg.SyncStateTTL)
}

// getReceipt resolves the mirrored POS transaction through the derived label.
func getReceipt(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		receiptNo := fulfillment.DerivedReceiptNo(c.Param("order_no"))
		t, items, err := d.Ledger.GetByReceipt(c.Request.Context(), receiptNo)
		if err != nil {
			if errors.Is(err, fulfillment.ErrReceiptNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "no receipt for this order"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"transaction": t, "items": items}})
	}
}

// getSyncState reports the cached outcome of the last sync attempt.
func getSyncState(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.Redis == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "msg": "state cache unavailable"})
			return
		}
		st, found, err := rediskey.GetSyncState(c.Request.Context(), d.Redis, c.Param("order_no"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "no sync state recorded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": st})
	}
}

// listPendingSync lists orders stuck between ledger commit and order commit
// longer than the grace period. Admin-token protected.
func listPendingSync(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-Token") != d.Cfg.AdminToken {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "invalid admin token"})
			return
		}
		if d.Pending == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "msg": "marker store unavailable"})
			return
		}
		pending, err := d.Pending.ListPending(c.Request.Context(), d.Cfg.PendingMarkerGrace)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"pending": pending}})
	}
}
