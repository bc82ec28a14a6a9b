package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middleware"
	"storefront/services"
	"storefront/store"
)

type reviewRequest struct {
	Product string `json:"product"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// 新增評論，作者為目前登入的使用者
func CreateReviewHandler(c *gin.Context, svc *services.ReviewService) {
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	productID, ok := optionalID(c, "product", req.Product)
	if !ok {
		return
	}
	if productID == nil {
		respondError(c, "create_review", errProductRequired)
		return
	}

	review, err := svc.Create(c.Request.Context(), middleware.Identity(c), *productID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, "create_review", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "成功新增評論",
		"review":  review,
	})
}

func GetReviewHandler(c *gin.Context, svc *services.ReviewService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	review, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get_review", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢評論",
		"review":  review,
	})
}

// 查詢評論列表，可用?product=篩選
func GetReviewListHandler(c *gin.Context, svc *services.ReviewService) {
	productID, ok := optionalID(c, "product", c.Query("product"))
	if !ok {
		return
	}

	reviews, err := svc.List(c.Request.Context(), productID)
	if err != nil {
		respondError(c, "list_reviews", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢評論列表",
		"reviews": reviews,
	})
}

func UpdateReviewHandler(c *gin.Context, svc *services.ReviewService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := svc.Update(c.Request.Context(), middleware.Identity(c), id, store.ReviewPatch{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		respondError(c, "update_review", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改評論",
		"review":  review,
	})
}

func DeleteReviewHandler(c *gin.Context, svc *services.ReviewService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), middleware.Identity(c), id); err != nil {
		respondError(c, "delete_review", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除評論",
	})
}
