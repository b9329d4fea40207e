package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, h *harness, phone string) {
	t.Helper()
	require.NoError(t, h.uc.IssueOTP(context.Background(), IssueOTPInput{Phone: phone}))
}

func TestUsecase_VerifyOTP(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "111111")
	ctx := context.Background()
	issue(t, h, "9876543210")

	// Act
	out, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, out.UID)
	assert.Equal(t, "token-"+out.UID, out.Token)

	acc, err := h.identity.FindByPhone(ctx, "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, out.UID, acc.UID)
	assert.Equal(t, "9876543210", acc.PhoneRaw)
	assert.True(t, h.identity.directory["9876543210"])

	require.Len(t, h.pub.events, 1)
	assert.Equal(t, AccountCreatedEvent{
		UID:            out.UID,
		Phone:          "9876543210",
		PhoneFormatted: "+919876543210",
		CreatedAt:      h.clock.Now(),
	}, h.pub.events[0])

	_, err = h.store.Get(ctx, "9876543210")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestUsecase_VerifyOTP_ConsumedOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "111111")
	ctx := context.Background()
	issue(t, h, "9876543210")

	_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})
	require.NoError(t, err)

	_, err = h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestUsecase_VerifyOTP_ExistingAccount(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "111111", "222222")
	ctx := context.Background()

	issue(t, h, "9876543210")
	first, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})
	require.NoError(t, err)

	// Act
	issue(t, h, "+919876543210")
	second, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "+919876543210", Code: "222222"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)
	assert.Len(t, h.pub.events, 1)
}

func TestUsecase_VerifyOTP_NeverIssued(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: "111111"})

	assert.ErrorIs(t, err, ErrOTPNotFound)
	assert.Equal(t, goerror.CodeOTPNotFound, goerror.CodeOf(err))
}

func TestUsecase_VerifyOTP_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   VerifyOTPInput
	}{
		{name: "missing phone", in: VerifyOTPInput{Code: "111111"}},
		{name: "missing code", in: VerifyOTPInput{Phone: "9876543210"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)

			_, err := h.uc.VerifyOTP(context.Background(), tt.in)

			assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
		})
	}
}

func TestUsecase_VerifyOTP_ReissueInvalidatesPrevious(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "111111", "222222")
	ctx := context.Background()
	issue(t, h, "9876543210")
	issue(t, h, "9876543210")

	// Act
	_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})

	// Assert
	assert.ErrorIs(t, err, ErrOTPInvalid)

	_, err = h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "222222"})
	assert.NoError(t, err)
}

func TestUsecase_VerifyOTP_WrongCodeKeepsRecord(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "111111")
	ctx := context.Background()
	issue(t, h, "9876543210")

	// Act
	_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "000000"})

	// Assert
	assert.ErrorIs(t, err, ErrOTPInvalid)
	_, getErr := h.store.Get(ctx, "9876543210")
	require.NoError(t, getErr)

	out, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
}

func TestUsecase_VerifyOTP_Expiry(t *testing.T) {
	t.Parallel()

	t.Run("boundary is still valid", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, "111111")
		issue(t, h, "9876543210")
		h.clock.Advance(300 * time.Second)

		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: "111111"})

		assert.NoError(t, err)
	})

	t.Run("expired record is deleted", func(t *testing.T) {
		t.Parallel()

		// Arrange
		h := newHarness(t, "111111")
		ctx := context.Background()
		issue(t, h, "9876543210")
		h.clock.Advance(301 * time.Second)

		// Act
		_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})

		// Assert
		assert.ErrorIs(t, err, ErrOTPExpired)
		assert.Equal(t, goerror.CodeOTPExpired, goerror.CodeOf(err))

		_, err = h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})
		assert.ErrorIs(t, err, ErrOTPNotFound)
		assert.Empty(t, h.pub.events)
	})

	t.Run("wrong code wins over expiry", func(t *testing.T) {
		t.Parallel()

		// Arrange
		h := newHarness(t, "111111")
		ctx := context.Background()
		issue(t, h, "9876543210")
		h.clock.Advance(10 * time.Minute)

		// Act
		_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "000000"})

		// Assert
		assert.ErrorIs(t, err, ErrOTPInvalid)
		_, getErr := h.store.Get(ctx, "9876543210")
		assert.NoError(t, getErr)
	})
}

func TestUsecase_VerifyOTP_TestIdentity(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "555555")
	ctx := context.Background()
	issue(t, h, "9057290632")

	// Act
	_, wrongErr := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9057290632", Code: "555555"})
	out, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9057290632", Code: "123456"})

	// Assert
	assert.ErrorIs(t, wrongErr, ErrOTPInvalid)
	require.NoError(t, err)
	acc, err := h.identity.FindByUID(ctx, out.UID)
	require.NoError(t, err)
	assert.Equal(t, "+919057290632", acc.PhoneFormatted)
}

func TestUsecase_VerifyOTP_ConcurrentCreation(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, "111111")
	ctx := context.Background()
	winner := entity.Account{
		UID:            "winner-uid",
		PhoneFormatted: "+919876543210",
		PhoneRaw:       "9876543210",
		CreatedAt:      h.clock.Now(),
	}
	h.identity.raceWinner = &winner
	issue(t, h, "9876543210")

	// Act
	out, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "winner-uid", out.UID)
	assert.Empty(t, h.pub.events)
}

func TestUsecase_VerifyOTP_IdentityProviderFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		arrange  func(f *fakeIdentity)
		wantCode goerror.Code
	}{
		{
			name:     "lookup fails",
			arrange:  func(f *fakeIdentity) { f.findErr = errors.New("connection refused") },
			wantCode: goerror.CodeIdentityProvider,
		},
		{
			name:     "lookup times out",
			arrange:  func(f *fakeIdentity) { f.findErr = context.DeadlineExceeded },
			wantCode: goerror.CodeTimeout,
		},
		{
			name:     "create fails",
			arrange:  func(f *fakeIdentity) { f.createErr = errors.New("disk full") },
			wantCode: goerror.CodeIdentityProvider,
		},
		{
			name:     "mint fails",
			arrange:  func(f *fakeIdentity) { f.mintErr = errors.New("signing key missing") },
			wantCode: goerror.CodeIdentityProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			h := newHarness(t, "111111")
			ctx := context.Background()
			issue(t, h, "9876543210")
			tt.arrange(h.identity)

			// Act
			_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Phone: "9876543210", Code: "111111"})

			// Assert
			assert.Equal(t, tt.wantCode, goerror.CodeOf(err))
			_, getErr := h.store.Get(ctx, "9876543210")
			assert.NoError(t, getErr, "record survives a provider failure")
		})
	}
}

func TestUsecase_VerifyOTP_PublishFailureIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "111111")
	h.pub.err = errors.New("broker down")
	issue(t, h, "9876543210")

	out, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: "111111"})

	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
}
