package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_IssueOTP(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "482913")
	ctx := context.Background()

	// Act
	err := h.uc.IssueOTP(ctx, IssueOTPInput{Phone: "9876543210"})

	// Assert
	require.NoError(t, err)

	rec, err := h.store.Get(ctx, "9876543210")
	require.NoError(t, err)
	assert.NotEqual(t, "482913", rec.Code)
	assert.True(t, h.hmac.Verify(rec.Code, "482913"))
	assert.Equal(t, h.clock.Now(), rec.CreatedAt)

	require.Len(t, h.sms.sent, 1)
	assert.Equal(t, "9876543210", h.sms.sent[0].phone)
	assert.Equal(t,
		"Dear User, your OTP is 482913. Do not share it with anyone. Valid for 5 minutes. -Team Videos Alarm",
		h.sms.sent[0].text)
}

func TestUsecase_IssueOTP_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	err := h.uc.IssueOTP(context.Background(), IssueOTPInput{Phone: "  "})

	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
	assert.Empty(t, h.sms.sent)
}

func TestUsecase_IssueOTP_RateLimited(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t)
	h.limiter.denied = true
	ctx := context.Background()

	// Act
	err := h.uc.IssueOTP(ctx, IssueOTPInput{Phone: "9876543210"})

	// Assert
	assert.Equal(t, goerror.CodeTooManyRequest, goerror.CodeOf(err))
	_, getErr := h.store.Get(ctx, "9876543210")
	assert.ErrorIs(t, getErr, goerror.ErrNotFound)
	assert.Empty(t, h.sms.sent)
}

func TestUsecase_IssueOTP_LimiterError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.limiter.err = errors.New("redis down")

	err := h.uc.IssueOTP(context.Background(), IssueOTPInput{Phone: "9876543210"})

	assert.Equal(t, goerror.CodeInternal, goerror.CodeOf(err))
}

func TestUsecase_IssueOTP_TestIdentity(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "999999")
	ctx := context.Background()

	// Act
	err := h.uc.IssueOTP(ctx, IssueOTPInput{Phone: "9057290632"})

	// Assert
	require.NoError(t, err)
	rec, err := h.store.Get(ctx, "9057290632")
	require.NoError(t, err)
	assert.True(t, h.hmac.Verify(rec.Code, "123456"))
	require.Len(t, h.sms.sent, 1)
	assert.Contains(t, h.sms.sent[0].text, "123456")
}

func TestUsecase_IssueOTP_SendFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sendErr  error
		wantCode goerror.Code
	}{
		{
			name:     "provider rejects",
			sendErr:  &sms.Error{Kind: sms.KindProvider, StatusCode: 500, Message: "gateway error"},
			wantCode: goerror.CodeNotification,
		},
		{
			name:     "gateway timeout",
			sendErr:  &sms.Error{Kind: sms.KindTimeout, Message: "timed out"},
			wantCode: goerror.CodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			h := newHarness(t)
			h.sms.err = tt.sendErr
			ctx := context.Background()

			// Act
			err := h.uc.IssueOTP(ctx, IssueOTPInput{Phone: "9876543210"})

			// Assert
			assert.Equal(t, tt.wantCode, goerror.CodeOf(err))
			assert.ErrorIs(t, err, tt.sendErr)

			_, getErr := h.store.Get(ctx, "9876543210")
			assert.NoError(t, getErr, "stored code is kept after a failed send")
		})
	}
}
