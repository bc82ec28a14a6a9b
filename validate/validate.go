package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"storefront/errs"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		// 錯誤訊息使用json欄位名稱
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return instance
}

// Struct 依validate tag檢查，失敗回傳errs.Validation
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Internal(err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errs.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s為必填", field)
	case "email":
		return fmt.Sprintf("%s格式錯誤", field)
	case "gte", "min":
		return fmt.Sprintf("%s不可小於%s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s不可大於%s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s必須為%s其中之一", field, fe.Param())
	default:
		return fmt.Sprintf("%s不合法(%s)", field, fe.Tag())
	}
}

// Password 檢查密碼是否合法：8-50字元，需含大小寫、數字、符號，不可有空白
func Password(password string) bool {
	if len(password) < 8 || len(password) > 50 {
		return false
	}

	var (
		isUpper   = false
		isLower   = false
		isNumber  = false
		isSpecial = false
		isSpace   = false
	)

	for _, s := range password {
		switch {
		case unicode.IsSpace(s):
			isSpace = true
		case unicode.IsUpper(s):
			isUpper = true
		case unicode.IsLower(s):
			isLower = true
		case unicode.IsDigit(s):
			isNumber = true
		case unicode.IsPunct(s) || unicode.IsSymbol(s):
			isSpecial = true
		}
	}

	return isUpper && isLower && isNumber && isSpecial && !isSpace
}

// Var 檢查單一欄位，field用於錯誤訊息
func Var(field string, value any, tag string) error {
	err := get().Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.Internal(err)
	}
	msg := describe(fieldErrs[0])
	return errs.Validation("%s%s", field, msg)
}
