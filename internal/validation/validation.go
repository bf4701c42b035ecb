package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iudanet/possync/internal/models"
)

// ErrInvalidPayload возвращается, если payload не прошел проверку
var ErrInvalidPayload = errors.New("invalid payload")

// DeviceIDPattern определяет допустимый формат идентификатора устройства (кассы)
// Латинские буквы, цифры, дефис и нижнее подчеркивание, длина 3-64 символа
var DeviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// имена полей в ошибках берем из json тегов
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	// денежные поля проверяются как числа
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// FieldErrors описывает ошибки валидации по полям (json имя -> сообщение)
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+" "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrInvalidPayload)
func (fe FieldErrors) Unwrap() error { return ErrInvalidPayload }

// ValidatePayload проверяет payload мутации по тегам validate
func ValidatePayload(p models.Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	}
	if err := validate.Struct(p); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// ValidateMutation проверяет маршрутизацию мутации и ее payload
func ValidateMutation(m models.Mutation) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Action == models.ActionDelete {
		return nil
	}
	return ValidatePayload(m.Payload)
}

// ValidateDeviceID проверяет идентификатор устройства, на которое выпускается токен
func ValidateDeviceID(id string) error {
	if id == "" {
		return fmt.Errorf("device id cannot be empty")
	}
	if !DeviceIDPattern.MatchString(id) {
		return fmt.Errorf("device id must be 3-64 characters of letters, numbers, '-' or '_'")
	}
	return nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	details := FieldErrors{}
	for _, fieldErr := range verrs {
		details[fieldPath(fieldErr)] = validationMessage(fieldErr)
	}
	return details
}

// fieldPath возвращает путь без имени корневой структуры: items[0].quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("must not be less than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
