package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/logger"
	"storefront/services"
	"storefront/store"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// 查詢分類列表
func GetCategoryListHandler(c *gin.Context, svc *services.CategoryService) {
	categories, err := svc.List(c.Request.Context())
	if err != nil {
		respondError(c, "list_categories", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功查詢分類列表",
		"categories": categories,
	})
}

// 各分類商品數量
func GetCategoryStatsHandler(c *gin.Context, svc *services.CategoryService) {
	stats, err := svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "category_stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢分類統計",
		"stats":   stats,
	})
}

// 查詢分類及所屬商品
func GetCategoryHandler(c *gin.Context, svc *services.CategoryService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	category, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get_category", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "成功查詢分類",
		"category": category,
	})
}

func CreateCategoryHandler(c *gin.Context, svc *services.CategoryService) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := svc.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, "create_category", err)
		return
	}

	logger.Audit(c, "create_category", map[string]any{"category": category.ID.Hex()})
	c.JSON(http.StatusCreated, gin.H{
		"message":  "成功新增分類",
		"category": category,
	})
}

func UpdateCategoryHandler(c *gin.Context, svc *services.CategoryService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := svc.Update(c.Request.Context(), id, store.CategoryPatch{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(c, "update_category", err)
		return
	}

	logger.Audit(c, "update_category", map[string]any{"category": id.Hex()})
	c.JSON(http.StatusOK, gin.H{
		"message":  "成功修改分類",
		"category": category,
	})
}

// 刪除分類，商品保留但移除分類
func DeleteCategoryHandler(c *gin.Context, svc *services.CategoryService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "delete_category", err)
		return
	}

	logger.Audit(c, "delete_category", map[string]any{"category": id.Hex()})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除分類",
	})
}
