package validation

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/deppfellow/post-gateway/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
//   - Define a request struct with validator tags (`validate:"required,min=4"`)
//   - Implement Validate() error that calls validation.Struct(req)
type Validatable interface {
	Validate() error
}

// Request parts a field error can point at.
const (
	LocationBody   = "body"
	LocationParams = "params"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// instance returns the shared validator. Field names are reported by their
// json (or param) tag so messages match what the client sent.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := strings.Split(f.Tag.Get("json"), ",")[0]; name != "" && name != "-" {
				return name
			}
			if name := f.Tag.Get("param"); name != "" {
				return name
			}
			return f.Name
		})
	})
	return validate
}

// Struct validates s against its `validate` tags using the shared validator.
func Struct(s interface{}) error {
	return instance().Struct(s)
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. Path parameters are bound into `param` fields.
//  2. For POST/PUT/PATCH with a JSON content type, the body is bound into
//     `json` fields. Any other body counts as an empty object.
//  3. payload.Validate() applies validation rules.
//
// Schema violations come back as errs.FieldErrors. Anything else (the
// validator itself failing, a Validate that returns an unrelated error) is
// returned as-is so the caller can answer 500 instead of dropping it.
func BindAndValidate(c echo.Context, payload Validatable) error {
	binder := &echo.DefaultBinder{}

	if err := binder.BindPathParams(c, payload); err != nil {
		return errors.Wrap(err, "failed to bind path parameters")
	}

	if hasJSONBody(c.Request()) {
		if err := binder.BindBody(c, payload); err != nil {
			return bindError(err)
		}
	}

	if err := payload.Validate(); err != nil {
		return extractValidationError(payload, err)
	}

	return nil
}

// hasJSONBody reports whether the request carries a body the gateway reads.
func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}

	if r.ContentLength == 0 {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get(echo.HeaderContentType))
	if err != nil {
		return false
	}

	return mediaType == echo.MIMEApplicationJSON
}

// bindError converts a body decoding failure into field errors.
//
// Echo wraps the encoding/json error as the internal error of an
// *echo.HTTPError; errors.As sees through that.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := []string{LocationBody}
		if typeErr.Field != "" {
			path = append(path, strings.Split(typeErr.Field, ".")...)
		}

		return errs.FieldErrors{{
			Path:    path,
			Message: fmt.Sprintf("Expected %s, received %s", describeKind(typeErr.Type), receivedKind(typeErr.Value)),
		}}
	}

	var syntaxErr *json.SyntaxError
	var echoErr *echo.HTTPError
	if errors.As(err, &syntaxErr) || (errors.As(err, &echoErr) && echoErr.Code == http.StatusBadRequest) {
		return errs.FieldErrors{{
			Path:    []string{LocationBody},
			Message: "Malformed JSON body",
		}}
	}

	return errors.Wrap(err, "failed to bind request body")
}

// extractValidationError converts validator.ValidationErrors into field
// errors, in struct declaration order.
func extractValidationError(payload interface{}, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Already converted, or not a schema violation at all.
		return err
	}

	payloadType := reflect.TypeOf(payload)
	for payloadType.Kind() == reflect.Ptr {
		payloadType = payloadType.Elem()
	}

	fieldErrors := make(errs.FieldErrors, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, errs.FieldError{
			Path:    []string{fieldLocation(payloadType, fe.StructField()), fe.Field()},
			Message: fieldMessage(fe),
		})
	}

	return fieldErrors
}

// fieldLocation returns "params" for fields bound from the path and "body"
// for everything else.
func fieldLocation(t reflect.Type, structField string) string {
	if t.Kind() != reflect.Struct {
		return LocationBody
	}

	if f, ok := t.FieldByName(structField); ok && f.Tag.Get("param") != "" {
		return LocationParams
	}

	return LocationBody
}

// fieldMessage renders the human-readable message for one violated rule.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"

	case "min":
		// min means length for strings and value for numbers.
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", displayName(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())

	case "gte":
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())

	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
	}
}

// displayName capitalizes a field name for messages: "title" -> "Title".
func displayName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func describeKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}

	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.Kind().String()
	}
}

// receivedKind reduces encoding/json's Value ("number 3.5", "string") to the
// JSON kind.
func receivedKind(value string) string {
	if i := strings.IndexByte(value, ' '); i > 0 {
		return value[:i]
	}
	return value
}
