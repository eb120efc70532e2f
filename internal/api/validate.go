package api

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
)

var validatorsOnce sync.Once

// registerValidators adds the status binding tags to gin's validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterValidation("captain_reply", func(fl validator.FieldLevel) bool {
			return models.CaptainReply(fl.Field().String()).Answered()
		})
		v.RegisterValidation("request_delivery", func(fl validator.FieldLevel) bool {
			d := models.RequestDelivery(fl.Field().String())
			return d == models.RequestSent || d == models.RequestFailed
		})
		v.RegisterValidation("dispatch_delivery", func(fl validator.FieldLevel) bool {
			d := models.DispatchDelivery(fl.Field().String())
			return d == models.DispatchSent || d == models.DispatchFailed
		})
	})
}

// bind decodes the JSON body into dst and validates its binding tags.
func bind(c *gin.Context, dst any) error {
	return bindError(c.ShouldBindJSON(dst))
}

// decode is bind for a body that was already read, for handlers that also
// inspect the raw keys.
func decode(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fault.Wrap(fault.ErrInvalidValue, err, "invalid request body")
	}
	return bindError(binding.Validator.ValidateStruct(dst))
}

// bindError turns decoding and binding tag failures into validation errors.
func bindError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fault.Wrap(fault.ErrInvalidValue, err, "invalid request body")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, fe.Field()+" is required")
			continue
		}
		msgs = append(msgs, fe.Field()+" has invalid value "+quote(fe.Value()))
	}
	base := fault.ErrInvalidValue
	if verrs[0].Tag() == "required" {
		base = fault.ErrMissingField
	}
	return fault.New(base, "%s", strings.Join(msgs, "; "))
}

func quote(v any) string {
	switch x := v.(type) {
	case string:
		return `"` + x + `"`
	case *string:
		if x == nil {
			return `""`
		}
		return `"` + *x + `"`
	default:
		return "?"
	}
}
