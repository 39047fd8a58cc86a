package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email  string          `json:"email" validate:"required,email"`
	Level  int             `json:"level" validate:"gte=1,lte=3"`
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sampleRequest{Email: "a@example.com", Level: 2, Amount: decimal.NewFromInt(5)}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sampleRequest{Email: "nope", Level: 4, Amount: decimal.NewFromInt(-1)})
	require.Error(t, err)

	errs, ok := err.(Errors)
	require.True(t, ok)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be less than or equal to 3", fields["level"])
	assert.Equal(t, "must be greater than or equal to 0", fields["amount"])
}
