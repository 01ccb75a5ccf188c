package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"vehicleoffer_go/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,19}$`)
	registerOnce sync.Once
)

// RegisterValidators 将自定义规则注册到gin的绑定验证器
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		configure(v)
	})
}

// NewValidator 创建独立的验证器实例（不依赖gin）
func NewValidator() *validator.Validate {
	v := validator.New()
	configure(v)
	return v
}

func configure(v *validator.Validate) {
	// 错误字段使用json名称
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterValidation("role", validateRole)
	v.RegisterValidation("phone", validatePhone)
}

// ValidationError 验证错误结构
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", ve.Errors)
}

// NewValidationError 单字段验证错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: map[string]string{field: message}}
}

// FormatBindingError 将绑定错误转换为 ValidationError
// 非字段校验错误（如JSON格式错误）原样返回
func FormatBindingError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return formatValidationErrors(validationErrors)
	}
	return err
}

// formatValidationErrors 格式化验证错误信息
func formatValidationErrors(fieldErrors []validator.FieldError) error {
	errorMap := make(map[string]string, len(fieldErrors))
	for _, err := range fieldErrors {
		errorMap[err.Field()] = getErrorMessage(err.Field(), err.Tag(), err.Param())
	}
	return &ValidationError{Errors: errorMap}
}

// getErrorMessage 获取错误消息
func getErrorMessage(field, tag, param string) string {
	errorMessages := map[string]string{
		"required": "%s is required",
		"email":    "%s must be a valid email address",
		"min":      "%s must be at least %s",
		"max":      "%s must be at most %s",
		"gt":       "%s must be greater than %s",
		"gte":      "%s must be greater than or equal to %s",
		"lt":       "%s must be less than %s",
		"lte":      "%s must be less than or equal to %s",
		"oneof":    "%s must be one of: %s",
		"url":      "%s must be a valid URL",
		"role":     "%s must be buyer or seller",
		"phone":    "%s must be a valid phone number",
	}

	template, exists := errorMessages[tag]
	if !exists {
		return fmt.Sprintf("%s is invalid", field)
	}
	if strings.Count(template, "%s") == 1 {
		return fmt.Sprintf(template, field)
	}
	return fmt.Sprintf(template, field, param)
}

// validateRole 角色验证
func validateRole(fl validator.FieldLevel) bool {
	return models.ValidRole(fl.Field().String())
}

// validatePhone 手机号验证
func validatePhone(fl validator.FieldLevel) bool {
	return ValidatePhone(fl.Field().String())
}

// ValidatePhone 验证电话号码格式
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}
