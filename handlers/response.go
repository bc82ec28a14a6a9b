package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/errs"
	"storefront/logger"
	"storefront/services"
)

var errProductRequired = errs.Validation("product為必填")

// respondError 依錯誤分類回傳狀態碼，internal錯誤不回傳細節
func respondError(c *gin.Context, action string, err error) {
	kind := errs.KindOf(err)
	body := gin.H{
		"error":   kind,
		"message": errs.MessageOf(err),
	}

	var missing *services.MissingProductsError
	if errors.As(err, &missing) {
		body["missing"] = missing.IDs
	}

	switch kind {
	case errs.KindInternal:
		logger.Error(c, action, err, nil)
	case errs.KindUnauthorized, errs.KindForbidden:
		logger.Security(c, action, map[string]any{"reason": errs.MessageOf(err)})
	}
	c.JSON(errs.Status(kind), body)
}

// bindJSON 綁定失敗時直接回傳400
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": "綁定請求資料錯誤",
		})
		return false
	}
	return true
}

// paramID 解析路徑中的ObjectID
func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": "不合法的" + name,
		})
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalID 空字串視為未指定
func optionalID(c *gin.Context, field, hex string) (*primitive.ObjectID, bool) {
	if hex == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": "不合法的" + field,
		})
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": name + "必須為整數",
		})
		return 0, false
	}
	return n, true
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": name + "必須為數字",
		})
		return nil, false
	}
	return &f, true
}
