package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/logger"
	"storefront/services"
	"storefront/store"
)

type productRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Brand       *string  `json:"brand"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"imageUrl"`
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

// 查詢商品列表
func GetProductListHandler(c *gin.Context, svc *services.ProductService) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}

	page, err := svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, "list_products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功查詢商品列表",
		"products":   page.Products,
		"totalCount": page.TotalCount,
	})
}

// 依價格區間與品牌篩選商品
func FilterProductsHandler(c *gin.Context, svc *services.ProductService) {
	minPrice, ok := queryFloat(c, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := queryFloat(c, "maxPrice")
	if !ok {
		return
	}

	products, err := svc.Filter(c.Request.Context(), minPrice, maxPrice, c.Query("brand"))
	if err != nil {
		respondError(c, "filter_products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "成功篩選商品",
		"products": products,
	})
}

// 查詢評論數最多的商品
func GetTopProductsHandler(c *gin.Context, svc *services.ProductService) {
	top, err := svc.Top(c.Request.Context())
	if err != nil {
		respondError(c, "top_products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "成功查詢熱門商品",
		"products": top,
	})
}

// 查詢商品詳細資料
func GetProductDataHandler(c *gin.Context, svc *services.ProductService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get_product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢商品資料",
		"product": product,
	})
}

// 新增商品
func CreateProductHandler(c *gin.Context, svc *services.ProductService) {
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	category, ok := optionalID(c, "category", req.Category)
	if !ok {
		return
	}

	product, err := svc.Create(c.Request.Context(), services.ProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Brand:       req.Brand,
		Stock:       req.Stock,
		Category:    category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, "create_product", err)
		return
	}

	logger.Audit(c, "create_product", map[string]any{"product": product.ID.Hex()})
	c.JSON(http.StatusCreated, gin.H{
		"message": "成功新增商品",
		"product": product,
	})
}

// 修改商品，只更新有傳入的欄位
func UpdateProductHandler(c *gin.Context, svc *services.ProductService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := store.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Brand:       req.Brand,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
	if req.Category != nil {
		category, ok := optionalID(c, "category", *req.Category)
		if !ok {
			return
		}
		patch.Category = category
	}

	product, err := svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, "update_product", err)
		return
	}

	logger.Audit(c, "update_product", map[string]any{"product": id.Hex()})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改商品",
		"product": product,
	})
}

// 設定商品庫存
func UpdateStockHandler(c *gin.Context, svc *services.ProductService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := svc.SetStock(c.Request.Context(), id, req.Stock)
	if err != nil {
		respondError(c, "update_stock", err)
		return
	}

	logger.Audit(c, "update_stock", map[string]any{"product": id.Hex(), "stock": product.Stock})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改庫存",
		"product": product,
	})
}

// 刪除商品及其評論
func DeleteProductHandler(c *gin.Context, svc *services.ProductService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "delete_product", err)
		return
	}

	logger.Audit(c, "delete_product", map[string]any{"product": id.Hex()})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除商品",
	})
}
