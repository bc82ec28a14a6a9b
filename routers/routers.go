package routers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/handlers"
	"storefront/middleware"
	"storefront/services"
)

type Deps struct {
	Services       *services.Services
	Tokens         middleware.TokenVerifier
	UploadDir      string
	AllowedOrigins []string
	// Health 由/healthz呼叫，可為nil
	Health func(ctx context.Context) error
}

func SetupRouters(d Deps) *gin.Engine {
	svc := d.Services

	//建立Gin路由器
	router := gin.Default()
	router.Use(middleware.RequestID(), middleware.CORS(d.AllowedOrigins))
	_ = router.SetTrustedProxies(nil)

	//設定商品圖片靜態資源路徑
	router.Static("/uploads", d.UploadDir)

	router.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	////公開路由，有合法Token時寫入使用者身分
	router.Use(middleware.AuthMiddleware(d.Tokens))

	loginRequired := middleware.CheckLoginMiddleware()
	adminRequired := middleware.CheckAdminPermissionMiddleware()

	users := router.Group("/users")
	{
		//註冊帳號，管理者可建立管理者帳號
		users.POST("", func(context *gin.Context) {
			handlers.RegisterHandler(context, svc.Users)
		})
		//登入帳號
		users.POST("/login", func(context *gin.Context) {
			handlers.LoginHandler(context, svc.Users)
		})
		//登出
		users.POST("/logout", loginRequired, func(context *gin.Context) {
			handlers.LogOutHandler(context, svc.Users)
		})
		//查詢使用者列表
		users.GET("", adminRequired, func(context *gin.Context) {
			handlers.GetUserListHandler(context, svc.Users)
		})
		//查詢使用者資料
		users.GET("/:id", loginRequired, func(context *gin.Context) {
			handlers.GetUserProfileHandler(context, svc.Users)
		})
		//修改使用者資料
		users.PUT("/:id", loginRequired, func(context *gin.Context) {
			handlers.UpdateUserProfileHandler(context, svc.Users)
		})
		//刪除使用者
		users.DELETE("/:id", loginRequired, func(context *gin.Context) {
			handlers.DeleteUserHandler(context, svc.Users)
		})
	}

	products := router.Group("/products")
	{
		//查詢商品列表
		products.GET("", func(context *gin.Context) {
			handlers.GetProductListHandler(context, svc.Products)
		})
		//依價格與品牌篩選
		products.GET("/filtro", func(context *gin.Context) {
			handlers.FilterProductsHandler(context, svc.Products)
		})
		//評論數最多的商品
		products.GET("/top", func(context *gin.Context) {
			handlers.GetTopProductsHandler(context, svc.Products)
		})
		//查詢商品詳細資料
		products.GET("/:id", func(context *gin.Context) {
			handlers.GetProductDataHandler(context, svc.Products)
		})
		//新增商品
		products.POST("", adminRequired, func(context *gin.Context) {
			handlers.CreateProductHandler(context, svc.Products)
		})
		//上傳商品圖片
		products.POST("/images", adminRequired, func(context *gin.Context) {
			handlers.UploadImageHandler(context, d.UploadDir)
		})
		//修改商品
		products.PUT("/:id", adminRequired, func(context *gin.Context) {
			handlers.UpdateProductHandler(context, svc.Products)
		})
		//修改庫存
		products.PATCH("/:id/stock", adminRequired, func(context *gin.Context) {
			handlers.UpdateStockHandler(context, svc.Products)
		})
		//刪除商品
		products.DELETE("/:id", adminRequired, func(context *gin.Context) {
			handlers.DeleteProductHandler(context, svc.Products)
		})
	}

	categories := router.Group("/categories")
	{
		//查詢分類列表
		categories.GET("", func(context *gin.Context) {
			handlers.GetCategoryListHandler(context, svc.Categories)
		})
		//各分類商品數量
		categories.GET("/stats", func(context *gin.Context) {
			handlers.GetCategoryStatsHandler(context, svc.Categories)
		})
		//查詢分類及所屬商品
		categories.GET("/:id", func(context *gin.Context) {
			handlers.GetCategoryHandler(context, svc.Categories)
		})
		categories.POST("", adminRequired, func(context *gin.Context) {
			handlers.CreateCategoryHandler(context, svc.Categories)
		})
		categories.PUT("/:id", adminRequired, func(context *gin.Context) {
			handlers.UpdateCategoryHandler(context, svc.Categories)
		})
		//刪除分類
		categories.DELETE("/:id", adminRequired, func(context *gin.Context) {
			handlers.DeleteCategoryHandler(context, svc.Categories)
		})
	}

	reviews := router.Group("/reviews")
	{
		reviews.GET("/:id", func(context *gin.Context) {
			handlers.GetReviewHandler(context, svc.Reviews)
		})
		reviews.GET("", adminRequired, func(context *gin.Context) {
			handlers.GetReviewListHandler(context, svc.Reviews)
		})
		//新增評論
		reviews.POST("", loginRequired, func(context *gin.Context) {
			handlers.CreateReviewHandler(context, svc.Reviews)
		})
		//本人或管理者可修改、刪除
		reviews.PUT("/:id", loginRequired, func(context *gin.Context) {
			handlers.UpdateReviewHandler(context, svc.Reviews)
		})
		reviews.DELETE("/:id", loginRequired, func(context *gin.Context) {
			handlers.DeleteReviewHandler(context, svc.Reviews)
		})
	}

	////購物車皆需登入，是否為本人由服務層檢查
	cart := router.Group("/cart")
	cart.Use(loginRequired)
	{
		//建立購物車
		cart.POST("", func(context *gin.Context) {
			handlers.CreateCartHandler(context, svc.Carts)
		})
		//新增商品至購物車
		cart.PUT("/:id", func(context *gin.Context) {
			handlers.AddToCartHandler(context, svc.Carts)
		})
		//查詢購物車
		cart.GET("/:id", func(context *gin.Context) {
			handlers.GetCartHandler(context, svc.Carts)
		})
		//查詢使用者的購物車
		cart.GET("/user/:id", func(context *gin.Context) {
			handlers.GetUserCartHandler(context, svc.Carts)
		})
		//計算使用者購物車總額
		cart.GET("/:id/total", func(context *gin.Context) {
			handlers.GetCartTotalHandler(context, svc.Carts)
		})
		//查詢所有購物車
		cart.GET("", adminRequired, func(context *gin.Context) {
			handlers.GetCartListHandler(context, svc.Carts)
		})
		//刪除購物車
		cart.DELETE("/:id", func(context *gin.Context) {
			handlers.DeleteCartHandler(context, svc.Carts)
		})
	}

	orders := router.Group("/orders")
	orders.Use(loginRequired)
	{
		//送出訂單並刪除購物車
		orders.POST("", func(context *gin.Context) {
			handlers.SendOrderHandler(context, svc.Orders)
		})
		//查詢使用者的訂單
		orders.GET("/user/:id", func(context *gin.Context) {
			handlers.GetUserOrdersHandler(context, svc.Orders)
		})
		//查詢訂單詳細資訊
		orders.GET("/:id", func(context *gin.Context) {
			handlers.GetOrderDataHandler(context, svc.Orders)
		})
		//查詢所有訂單
		orders.GET("", adminRequired, func(context *gin.Context) {
			handlers.GetOrderListHandler(context, svc.Orders)
		})
		//各狀態訂單數量
		orders.GET("/stats", adminRequired, func(context *gin.Context) {
			handlers.GetOrderStatsHandler(context, svc.Orders)
		})
		//修改訂單狀態
		orders.PATCH("/:id", adminRequired, func(context *gin.Context) {
			handlers.UpdateOrderStateHandler(context, svc.Orders)
		})
		orders.DELETE("/:id", adminRequired, func(context *gin.Context) {
			handlers.DeleteOrderHandler(context, svc.Orders)
		})
	}

	return router
}
