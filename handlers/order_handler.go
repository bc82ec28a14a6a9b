package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/logger"
	"storefront/middleware"
	"storefront/services"
)

type checkoutRequest struct {
	UserID        string `json:"userId"`
	PaymentMethod string `json:"paymentMethod"`
}

type orderStateRequest struct {
	State string `json:"state"`
}

// 送出訂單，依目前價格計算總額並刪除購物車
func SendOrderHandler(c *gin.Context, svc *services.OrderService) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := optionalID(c, "userId", req.UserID)
	if !ok {
		return
	}

	order, err := svc.Checkout(c.Request.Context(), middleware.Identity(c), userID, req.PaymentMethod)
	if err != nil {
		respondError(c, "checkout", err)
		return
	}

	logger.Info(c, "checkout", map[string]any{"order": order.ID.Hex(), "total": order.Total})
	c.JSON(http.StatusCreated, gin.H{
		"message": "成功送出訂單",
		"order":   order,
	})
}

// 查詢所有訂單及下單者資料
func GetOrderListHandler(c *gin.Context, svc *services.OrderService) {
	orders, err := svc.List(c.Request.Context())
	if err != nil {
		respondError(c, "list_orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢訂單列表",
		"orders":  orders,
	})
}

func GetOrderStatsHandler(c *gin.Context, svc *services.OrderService) {
	stats, err := svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "order_stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢訂單統計",
		"stats":   stats,
	})
}

func GetUserOrdersHandler(c *gin.Context, svc *services.OrderService) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	orders, err := svc.ListByUser(c.Request.Context(), middleware.Identity(c), userID)
	if err != nil {
		respondError(c, "list_user_orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢訂單列表",
		"orders":  orders,
	})
}

// 查詢訂單詳細資訊
func GetOrderDataHandler(c *gin.Context, svc *services.OrderService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := svc.Get(c.Request.Context(), middleware.Identity(c), id)
	if err != nil {
		respondError(c, "get_order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢訂單",
		"order":   order,
	})
}

// 修改訂單狀態
func UpdateOrderStateHandler(c *gin.Context, svc *services.OrderService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req orderStateRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := svc.UpdateState(c.Request.Context(), middleware.Identity(c), id, req.State)
	if err != nil {
		respondError(c, "update_order_state", err)
		return
	}

	logger.Audit(c, "update_order_state", map[string]any{"order": id.Hex(), "state": order.State})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改訂單狀態",
		"order":   order,
	})
}

func DeleteOrderHandler(c *gin.Context, svc *services.OrderService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "delete_order", err)
		return
	}

	logger.Audit(c, "delete_order", map[string]any{"order": id.Hex()})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除訂單",
	})
}
