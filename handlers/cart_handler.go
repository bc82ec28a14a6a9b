package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/errs"
	"storefront/middleware"
	"storefront/services"
)

type createCartRequest struct {
	UserID string `json:"userId"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// 建立購物車，未指定userId時為目前登入的使用者建立
func CreateCartHandler(c *gin.Context, svc *services.CartService) {
	var req createCartRequest
	//允許空的請求內容
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, "create_cart", errs.Validation("綁定請求資料錯誤"))
		return
	}
	userID, ok := optionalID(c, "userId", req.UserID)
	if !ok {
		return
	}

	cart, err := svc.Create(c.Request.Context(), middleware.Identity(c), userID)
	if err != nil {
		respondError(c, "create_cart", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "成功建立購物車",
		"cart":    cart,
	})
}

// 新增商品至購物車，已存在的商品合併數量
func AddToCartHandler(c *gin.Context, svc *services.CartService) {
	cartID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	productID, ok := optionalID(c, "productId", req.ProductID)
	if !ok {
		return
	}
	if productID == nil {
		respondError(c, "add_to_cart", errProductRequired)
		return
	}

	cart, err := svc.AddItem(c.Request.Context(), middleware.Identity(c), cartID, *productID, req.Quantity)
	if err != nil {
		respondError(c, "add_to_cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功新增商品至購物車",
		"cart":    cart,
	})
}

// 查詢購物車商品
func GetCartHandler(c *gin.Context, svc *services.CartService) {
	cartID, ok := paramID(c, "id")
	if !ok {
		return
	}

	cart, err := svc.Get(c.Request.Context(), middleware.Identity(c), cartID)
	if err != nil {
		respondError(c, "get_cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢購物車",
		"cart":    cart,
	})
}

func GetUserCartHandler(c *gin.Context, svc *services.CartService) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	cart, err := svc.GetByUser(c.Request.Context(), middleware.Identity(c), userID)
	if err != nil {
		respondError(c, "get_user_cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢購物車",
		"cart":    cart,
	})
}

func GetCartListHandler(c *gin.Context, svc *services.CartService) {
	carts, err := svc.List(c.Request.Context())
	if err != nil {
		respondError(c, "list_carts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢購物車列表",
		"carts":   carts,
	})
}

// 以目前商品價格計算購物車總額，:id為使用者ID
func GetCartTotalHandler(c *gin.Context, svc *services.CartService) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	total, err := svc.Total(c.Request.Context(), middleware.Identity(c), userID)
	if err != nil {
		respondError(c, "cart_total", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功計算購物車總額",
		"total":   total,
	})
}

// 清除購物車
func DeleteCartHandler(c *gin.Context, svc *services.CartService) {
	cartID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), middleware.Identity(c), cartID); err != nil {
		respondError(c, "delete_cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除購物車",
	})
}
