package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// ValidationError carries per-field messages for inline display. While any
// field fails, submission never reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order form invalid: %d field(s)", len(e.Fields))
}

// CheckoutFlow validates and submits the order form. It keeps the form being
// edited; on success the form resets and the cart mirror is refreshed, since
// the server empties the cart when it creates the order.
type CheckoutFlow struct {
	api      OrderAPI
	cart     Refresher
	validate *validator.Validate
	log      *zap.Logger

	mu   sync.Mutex
	form domain.OrderForm
}

func NewCheckoutFlow(api OrderAPI, cart Refresher, log *zap.Logger) *CheckoutFlow {
	v := validator.New()
	// report fields under their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("twphone", func(fl validator.FieldLevel) bool {
		return IsPhoneNumber(fl.Field().String()) == nil
	})
	return &CheckoutFlow{api: api, cart: cart, validate: v, log: log}
}

// Form returns the form as last submitted or reset.
func (f *CheckoutFlow) Form() domain.OrderForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Validate runs the field rules and returns a field→message map, empty when
// the form passes.
func (f *CheckoutFlow) Validate(form domain.OrderForm) map[string]string {
	err := f.validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

// Submit validates the form and posts the order, returning the server's
// confirmation message on success. A *ValidationError means nothing was sent;
// an *api.Error carries the server's failure message from the response body.
// The attempted form is kept on failure so fields can be corrected inline.
func (f *CheckoutFlow) Submit(ctx context.Context, form domain.OrderForm) (string, error) {
	f.mu.Lock()
	f.form = form
	f.mu.Unlock()

	if fields := f.Validate(form); len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}

	message, err := f.api.SubmitOrder(ctx, form)
	if err != nil {
		return "", err
	}

	// the server emptied the cart with the order; form starts over
	f.mu.Lock()
	f.form = domain.OrderForm{}
	f.mu.Unlock()
	if err := f.cart.Refresh(ctx); err != nil {
		f.log.Warn("cart refresh after order failed", zap.Error(err))
	}
	f.log.Info("order submitted", zap.String("message", message))
	return message, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return ErrEmptyField.Error()
	case "email":
		return "must be a valid email address"
	case "twphone":
		return ErrPhoneFormat.Error()
	default:
		return fmt.Sprintf("fails %s rule", fe.Tag())
	}
}
