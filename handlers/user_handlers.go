package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/logger"
	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

type registerRequest struct {
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Phone     string           `json:"phone"`
	Role      models.Role      `json:"role"`
	Addresses []models.Address `json:"addresses"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name      *string           `json:"name"`
	Email     *string           `json:"email"`
	Phone     *string           `json:"phone"`
	Password  *string           `json:"password"`
	Addresses *[]models.Address `json:"addresses"`
}

// 註冊使用者帳戶
func RegisterHandler(c *gin.Context, svc *services.UserService) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := svc.Register(c.Request.Context(), middleware.Identity(c), services.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Role:      req.Role,
		Addresses: req.Addresses,
	})
	if err != nil {
		respondError(c, "register", err)
		return
	}

	logger.Audit(c, "register", map[string]any{"user": user.ID.Hex(), "role": user.Role})
	c.JSON(http.StatusCreated, gin.H{
		"message": "使用者已成功註冊",
		"user":    user,
	})
}

// 登入帳號，Token同時放在Authorization header
func LoginHandler(c *gin.Context, svc *services.UserService) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}

	c.Set(logger.UserIDKey, result.User.ID.Hex())
	logger.Audit(c, "login", nil)
	c.Header("Authorization", "Bearer "+result.Token)
	c.JSON(http.StatusOK, gin.H{
		"message":   "成功登入",
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      result.User,
	})
}

// 登出，Token在到期前都不可再使用
func LogOutHandler(c *gin.Context, svc *services.UserService) {
	claims, _ := middleware.GetClaims(c)
	if err := svc.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, "logout", err)
		return
	}

	logger.Audit(c, "logout", nil)
	c.Header("Authorization", "")
	c.JSON(http.StatusOK, gin.H{
		"message": "成功登出",
	})
}

// 查詢使用者列表
func GetUserListHandler(c *gin.Context, svc *services.UserService) {
	users, err := svc.List(c.Request.Context())
	if err != nil {
		respondError(c, "list_users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功獲取使用者列表",
		"users":   users,
	})
}

// 查詢使用者資料
func GetUserProfileHandler(c *gin.Context, svc *services.UserService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := svc.Get(c.Request.Context(), middleware.Identity(c), id)
	if err != nil {
		respondError(c, "get_user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢使用者資料",
		"user":    user,
	})
}

// 修改使用者資料
func UpdateUserProfileHandler(c *gin.Context, svc *services.UserService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := svc.Update(c.Request.Context(), middleware.Identity(c), id, services.UpdateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Addresses: req.Addresses,
	})
	if err != nil {
		respondError(c, "update_user", err)
		return
	}

	logger.Audit(c, "update_user", map[string]any{"user": id.Hex(), "passwordChanged": req.Password != nil})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改使用者資料",
		"user":    user,
	})
}

// 刪除使用者，一併刪除購物車
func DeleteUserHandler(c *gin.Context, svc *services.UserService) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), middleware.Identity(c), id); err != nil {
		respondError(c, "delete_user", err)
		return
	}

	logger.Audit(c, "delete_user", map[string]any{"user": id.Hex()})
	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除使用者",
	})
}
