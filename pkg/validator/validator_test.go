package validator

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placeOrderForm struct {
	PaymentMethod string `validate:"required,oneof=cod bank_transfer whatsapp"`
	Notes         string `validate:"max=500"`
	Quantity      int    `validate:"gte=1"`
}

func TestValidate_OK(t *testing.T) {
	form := placeOrderForm{PaymentMethod: "cod", Quantity: 2}
	assert.NoError(t, Validate(form))
}

func TestValidate_CollectsFields(t *testing.T) {
	form := placeOrderForm{PaymentMethod: "paypal", Quantity: 0}

	err := Validate(form)
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Contains(t, fields, "PaymentMethod")
	assert.Contains(t, fields, "Quantity")
	assert.Equal(t, "must be one of: cod bank_transfer whatsapp", fields["PaymentMethod"])
	assert.Equal(t, "must be greater than or equal to 1", fields["Quantity"])
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"PaymentMethod":"cod","Quantity":1}`))
	var form placeOrderForm
	require.NoError(t, DecodeAndValidate(r, &form))
	assert.Equal(t, "cod", form.PaymentMethod)

	r = httptest.NewRequest("POST", "/orders", strings.NewReader(`{not json`))
	assert.Error(t, DecodeAndValidate(r, &form))
}
