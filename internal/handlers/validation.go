package handlers

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"bus-pricing/internal/apperror"
	"bus-pricing/internal/money"

	"github.com/go-playground/validator/v10"
)

// RequestValidator проверяет тела запросов по тегам validate и собирает все нарушения сразу.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator настраивает validator: имена полей из json-тегов, правило notblank, money.Amount как число.
func NewRequestValidator() *RequestValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if amount, ok := field.Interface().(money.Amount); ok {
			// InexactFloat64 раскрывает экспоненту целиком
			if !money.Bounded(amount.Decimal) {
				return math.Inf(amount.Sign())
			}
			return amount.InexactFloat64()
		}
		return nil
	}, money.Amount{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &RequestValidator{validate: v}
}

// Validate возвращает apperror валидации со списком полей или nil
func (rv *RequestValidator) Validate(payload interface{}) error {
	err := rv.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(errValidationFailed, err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:    fieldPath(fe.Namespace()),
			Message:  fieldMessage(fe),
			Rejected: rejectedValue(fe),
		})
	}
	return apperror.Invalid(errValidationFailed, fields)
}

// fieldPath убирает имя корневой структуры: "DraftPriceRequest.passengers[0].type" -> "passengers[0].type"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// messageOverrides сообщения для конкретных полей, ключ "Поле.тег"
var messageOverrides = map[string]string{
	"Type.required": "Passenger type is required",
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := messageOverrides[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map:
			return "must not be empty"
		case reflect.String:
			return "must not be blank"
		default:
			return "must not be null"
		}
	case "notblank":
		return "must not be blank"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s element(s)", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max", "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

func rejectedValue(fe validator.FieldError) interface{} {
	value := fe.Value()
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil
	}
	// суммы вне диапазона приходят как бесконечность, JSON её не кодирует
	if f, ok := value.(float64); ok && math.IsInf(f, 0) {
		return nil
	}
	return value
}
