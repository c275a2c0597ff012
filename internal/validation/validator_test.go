package validation_test

import (
	"strings"
	"testing"

	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postRequest struct {
	Title    string  `json:"title" validate:"notblank,max=80"`
	Body     string  `json:"body" validate:"required,max=280"`
	Category string  `json:"category" validate:"category"`
	Lat      float64 `json:"lat" validate:"latitude"`
	Lng      float64 `json:"lng" validate:"longitude"`
}

func validRequest() postRequest {
	return postRequest{Title: "Coffee cart", Body: "Outside the library", Category: "Coffee", Lat: 40.7, Lng: -74}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	assert.NoError(t, validation.New().Validate(validRequest()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*postRequest)
		wantField string
	}{
		{"blank title", func(r *postRequest) { r.Title = "   " }, "title"},
		{"missing body", func(r *postRequest) { r.Body = "" }, "body"},
		{"body too long", func(r *postRequest) { r.Body = strings.Repeat("é", 281) }, "body"},
		{"unknown category", func(r *postRequest) { r.Category = "Gossip" }, "category"},
		{"bad latitude", func(r *postRequest) { r.Lat = 91 }, "lat"},
		{"bad longitude", func(r *postRequest) { r.Lng = -181 }, "lng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, 400, domainErr.HTTPStatus())
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_BodyLimitCountsRunes(t *testing.T) {
	req := validRequest()
	req.Body = strings.Repeat("é", 280)
	assert.NoError(t, validation.New().Validate(req))
}

func TestValidator_JSONFieldNames(t *testing.T) {
	req := validRequest()
	req.Category = ""

	err := validation.New().Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
	assert.NotContains(t, err.Error(), "Category")
}
