package httpx

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/MikeMC777/agromarket/internal/apperr"
)

type ErrorBody struct {
	Kind    string        `json:"kind"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Fields  []FieldDetail `json:"fields,omitempty"`
}

type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidStateTransition:
		return http.StatusUnprocessableEntity
	case apperr.KindDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, kind, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Kind: kind, Code: code, Message: msg}})
}

// WriteError renders err with the status of its kind. Internal errors keep
// their cause out of the response.
func WriteError(c *gin.Context, err error) {
	_ = c.Error(err)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		abort(c, http.StatusInternalServerError, string(apperr.KindInternal), "INTERNAL", "internal error")
		return
	}
	abort(c, StatusOf(ae.Kind), string(ae.Kind), ae.Code, ae.Message)
}

// BindError renders a request binding failure as 400.
func BindError(c *gin.Context, err error) {
	_ = c.Error(err)
	body := ErrorBody{Kind: string(apperr.KindInvalidArgument), Code: "INVALID_BODY", Message: "invalid request body"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Code = "VALIDATION_FAILED"
		body.Message = "request validation failed"
		for _, e := range verrs {
			body.Fields = append(body.Fields, FieldDetail{Field: e.Field(), Message: fieldMessage(e)})
		}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: body})
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "invalid value"
	}
}

// SetupValidator reports field errors by their json name.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}
