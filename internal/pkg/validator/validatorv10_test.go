package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyPayload struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"otp" validate:"required"`
}

type sharePayload struct {
	VideoID string `validate:"videoid"`
}

func TestV10Validator_Validate(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, v.Validate(verifyPayload{Phone: "9876543210", Code: "123456"}))
	})

	t.Run("missing fields use json names", func(t *testing.T) {
		t.Parallel()

		// Act
		err := v.Validate(verifyPayload{})

		// Assert
		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "phone is a required field", verr.Values()["phone"])
		assert.Equal(t, "otp is a required field", verr.Values()["otp"])
	})

	t.Run("videoid rule", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, v.Validate(sharePayload{VideoID: "abc_123-X"}))

		err := v.Validate(sharePayload{VideoID: "../etc/passwd"})
		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "video_id")
	})
}
