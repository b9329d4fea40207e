package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSMS struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent[phone] = text
	return nil
}

// memoryIdempotency mirrors the Redis tracker: completed keys never rerun,
// failed keys are released when retry is allowed.
type memoryIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (m *memoryIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done[key] {
		return idempotency.ErrAlreadyCompleted
	}
	if err := fn(ctx); err != nil {
		return err
	}
	m.done[key] = true
	return nil
}

func newUsecase(t *testing.T, yaml string) (*Usecase, *fakeSMS) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sender := &fakeSMS{sent: map[string]string{}}
	return NewNotification(Dependency{
		RepoSMS:     sender,
		Idempotency: &memoryIdempotency{done: map[string]bool{}},
		Config:      cfg,
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	}), sender
}

const enabledConfig = `
modules:
  notification:
    welcome_sms:
      enabled: true
      template: "Hi from the team"
`

func TestUsecase_ConsumeAccountCreated(t *testing.T) {
	t.Parallel()

	// Arrange
	uc, sender := newUsecase(t, enabledConfig)
	ctx := context.Background()
	in := ConsumeAccountCreatedInput{UID: "u1", Phone: "9876543210"}

	// Act
	err := uc.ConsumeAccountCreated(ctx, in)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"9876543210": "Hi from the team"}, sender.sent)

	sender.sent = map[string]string{}
	require.NoError(t, uc.ConsumeAccountCreated(ctx, in), "redelivery is a no-op")
	assert.Empty(t, sender.sent)
}

func TestUsecase_ConsumeAccountCreated_Disabled(t *testing.T) {
	t.Parallel()

	uc, sender := newUsecase(t, "modules: {}")

	err := uc.ConsumeAccountCreated(context.Background(), ConsumeAccountCreatedInput{UID: "u1", Phone: "9876543210"})

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestUsecase_ConsumeAccountCreated_InvalidDropped(t *testing.T) {
	t.Parallel()

	uc, sender := newUsecase(t, enabledConfig)

	err := uc.ConsumeAccountCreated(context.Background(), ConsumeAccountCreatedInput{UID: "u1"})

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestUsecase_ConsumeAccountCreated_SendFailure(t *testing.T) {
	t.Parallel()

	// Arrange
	uc, sender := newUsecase(t, enabledConfig)
	boom := errors.New("gateway down")
	sender.err = boom
	ctx := context.Background()
	in := ConsumeAccountCreatedInput{UID: "u1", Phone: "9876543210"}

	// Act
	err := uc.ConsumeAccountCreated(ctx, in)

	// Assert
	require.ErrorIs(t, err, boom)

	sender.err = nil
	require.NoError(t, uc.ConsumeAccountCreated(ctx, in))
	assert.Contains(t, sender.sent, "9876543210")
}
