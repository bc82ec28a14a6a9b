package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/errs"
	"storefront/logger"
)

func isValidImageExtensions(file *multipart.FileHeader) bool {
	allowExtensions := []string{".jpg", ".jpeg", ".png"}
	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowExt := range allowExtensions {
		if fileExt == allowExt {
			return true
		}
	}
	return false
}

// makeUniqueFileName 只保留原檔名的base，避免路徑穿越
func makeUniqueFileName(file *multipart.FileHeader) string {
	name := filepath.Base(filepath.Clean("/" + file.Filename))
	fileExt := strings.ToLower(filepath.Ext(name))
	fileBase := strings.TrimSuffix(name, filepath.Ext(name))
	return fmt.Sprintf("%s_%d%s", fileBase, time.Now().UnixNano(), fileExt)
}

// 上傳商品圖片，回傳可直接寫入商品imageUrl的路徑
func UploadImageHandler(c *gin.Context, uploadsDir string) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": "綁定圖片失敗",
		})
		return
	}

	if !isValidImageExtensions(file) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errs.KindValidation,
			"message": "圖片檔案格式錯誤",
		})
		return
	}

	//檢查uploads資料夾是否存在，如不存在則創建
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		respondError(c, "create_upload_dir", errs.Internal(err))
		return
	}

	imageName := makeUniqueFileName(file)
	filePath := filepath.Join(uploadsDir, imageName)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, "save_image", errs.Internal(err))
		return
	}

	logger.Audit(c, "upload_image", map[string]any{"file": imageName})
	c.JSON(http.StatusCreated, gin.H{
		"message":  "成功上傳圖片",
		"imageUrl": "/uploads/" + imageName,
	})
}
