package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/errs"
	"storefront/jwt"
	"storefront/models"
	"storefront/store"
	"storefront/validate"
)

type UserService struct {
	store  store.Store
	hasher PasswordHasher
	tokens TokenIssuer

	dummyOnce   sync.Once
	dummyDigest string
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	Role      models.Role
	Addresses []models.Address
}

type UpdateUserInput struct {
	Name      *string
	Email     *string
	Phone     *string
	Password  *string
	Addresses *[]models.Address
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 註冊帳號，只有admin可以建立admin
func (s *UserService) Register(ctx context.Context, caller models.Identity, in RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleClient
	}
	if !in.Role.Valid() {
		return nil, errs.Validation("role必須為CLIENT或ADMIN")
	}
	if in.Role == models.RoleAdmin && !caller.IsAdmin() {
		return nil, errs.Forbidden("只有管理者可以建立管理者帳號")
	}

	user := &models.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     normalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      in.Role,
		Addresses: in.Addresses,
	}
	if err := validate.Struct(user); err != nil {
		return nil, err
	}
	//檢查密碼是否合法
	if !validate.Password(in.Password) {
		return nil, errs.Validation("密碼需為8-50字元，包含大小寫字母、數字與符號且不可有空白")
	}

	//檢查Email是否重複
	_, err := s.store.GetUserByEmail(ctx, user.Email)
	switch {
	case err == nil:
		return nil, errs.Conflict("信箱已被使用")
	case !errors.Is(err, store.ErrNotFound):
		return nil, errs.Internal(err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, errs.Internal(err)
	}
	user.Password = digest

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errs.Conflict("信箱已被使用")
		}
		return nil, errs.Internal(err)
	}
	return user, nil
}

// Login 信箱不存在與密碼錯誤回傳相同錯誤
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := errs.Unauthorized("信箱或密碼錯誤")
	if email == "" || password == "" {
		return nil, invalid
	}

	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// 仍執行一次比對，避免由回應時間判斷帳號是否存在
			s.hasher.Verify(password, s.dummy())
			return nil, invalid
		}
		return nil, errs.Internal(err)
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.Identity())
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash(primitive.NewObjectID().Hex())
	})
	return s.dummyDigest
}

func (s *UserService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return errs.Unauthorized("尚未登入")
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return errs.Internal(err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, caller models.Identity, id primitive.ObjectID) (*models.User, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(err, "使用者")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, caller models.Identity, id primitive.ObjectID, in UpdateUserInput) (*models.User, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}

	patch := store.UserPatch{Phone: in.Phone}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validate.Var("name", name, "required,max=100"); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validate.Var("email", email, "required,email"); err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if in.Addresses != nil {
		for _, addr := range *in.Addresses {
			if err := validate.Struct(addr); err != nil {
				return nil, err
			}
		}
		patch.Addresses = in.Addresses
	}
	if in.Password != nil {
		if !validate.Password(*in.Password) {
			return nil, errs.Validation("密碼需為8-50字元，包含大小寫字母、數字與符號且不可有空白")
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, errs.Internal(err)
		}
		patch.Password = &digest
	}

	user, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errs.Conflict("信箱已被使用")
		}
		return nil, storeErr(err, "使用者")
	}
	return user, nil
}

// Delete 一併刪除購物車，訂單與評論保留
func (s *UserService) Delete(ctx context.Context, caller models.Identity, id primitive.ObjectID) error {
	if err := authorize(caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return storeErr(err, "使用者")
	}
	if err := s.store.DeleteCartByUser(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		warn(ctx, "delete_user_cart", err)
	}
	return nil
}
