package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type dealerPayload struct {
	Name   string  `json:"name" validate:"required"`
	Domain string  `json:"domain" validate:"required,domain"`
	Score  float64 `json:"score" validate:"score"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := dealerPayload{Name: "Terry Reid Hyundai", Domain: "terryreidhyundai.com", Score: 88.5}
	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	payload := dealerPayload{Name: "", Domain: "https://example.com/path", Score: 140}

	err := ValidateStruct(payload)
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	fields := map[string]string{}
	for _, v := range vErrs {
		fields[v.Field] = v.Tag
	}
	require.Equal(t, "required", fields["name"])
	require.Equal(t, "domain", fields["domain"])
	require.Equal(t, "score", fields["score"])
}

func TestIsDomain(t *testing.T) {
	require.True(t, IsDomain("dealer.example.co.uk"))
	require.False(t, IsDomain("Dealer.com"))
	require.False(t, IsDomain("dealer"))
	require.False(t, IsDomain("dealer.com:8080"))
}

func TestScoreRuleHandlesIntegers(t *testing.T) {
	type intScore struct {
		Value int `validate:"score"`
	}
	require.NoError(t, ValidateStruct(intScore{Value: 100}))
	require.Error(t, ValidateStruct(intScore{Value: -1}))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("brand_tier", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "luxury"
	})
	require.NoError(t, err)

	type custom struct {
		Tier string `validate:"brand_tier"`
	}

	require.NoError(t, ValidateStruct(custom{Tier: "luxury"}))
	require.Error(t, ValidateStruct(custom{Tier: "economy"}))
}
