package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/otpstore"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const testConfig = `
modules:
  auth:
    test_identity:
      enabled: true
      phone: "9057290632"
    otp:
      expiry_seconds: 300
`

type seqCode struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (s *seqCode) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code, nil
}

type sentSMS struct {
	phone string
	text  string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSMS) Send(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{phone: phone, text: text})
	return nil
}

type fakeLimiter struct {
	denied bool
	err    error
}

func (f *fakeLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: !f.denied}, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []AccountCreatedEvent
	err    error
}

func (f *fakePublisher) PublishAccountCreated(_ context.Context, msg AccountCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type fakeIdentity struct {
	mu        sync.Mutex
	accounts  map[string]entity.Account
	directory map[string]bool

	findErr   error
	createErr error
	existsErr error
	mintErr   error
	// raceWinner is stored right before CreateAccount reports a conflict.
	raceWinner *entity.Account
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: map[string]entity.Account{}, directory: map[string]bool{}}
}

func (f *fakeIdentity) FindByPhone(_ context.Context, phoneFormatted string) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	acc, ok := f.accounts[phoneFormatted]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

func (f *fakeIdentity) FindByUID(_ context.Context, id string) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.UID == id {
			return &acc, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeIdentity) CreateAccount(_ context.Context, acc entity.NewAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceWinner != nil {
		f.accounts[f.raceWinner.PhoneFormatted] = *f.raceWinner
		return goerror.ErrConflict
	}
	f.accounts[acc.PhoneFormatted] = entity.Account{
		UID:            acc.UID,
		PhoneFormatted: acc.PhoneFormatted,
		PhoneRaw:       acc.PhoneRaw,
		CreatedAt:      acc.CreatedAt,
	}
	f.directory[acc.PhoneRaw] = true
	return nil
}

func (f *fakeIdentity) ExistsByPhone(_ context.Context, phoneRaw string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.directory[phoneRaw], nil
}

func (f *fakeIdentity) MintSessionToken(_ context.Context, acc entity.Account) (string, error) {
	if f.mintErr != nil {
		return "", f.mintErr
	}
	return "token-" + acc.UID, nil
}

type harness struct {
	uc       *Usecase
	store    *otpstore.Memory
	identity *fakeIdentity
	sms      *fakeSMS
	pub      *fakePublisher
	limiter  *fakeLimiter
	clock    *clock.Frozen
	hmac     hash.Hash
}

func newHarness(t *testing.T, codes ...string) *harness {
	t.Helper()

	if len(codes) == 0 {
		codes = []string{"111111", "222222", "333333"}
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflakeNode(1)
	require.NoError(t, err)

	h := &harness{
		identity: newFakeIdentity(),
		sms:      &fakeSMS{},
		pub:      &fakePublisher{},
		limiter:  &fakeLimiter{},
		clock:    clock.NewFrozen(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)),
		hmac:     hash.NewHMACSHA256("test-otp-secret"),
	}
	h.store = otpstore.NewMemory(h.clock)

	h.uc = New(Dependency{
		RepoOTP:       h.store,
		RepoIdentity:  h.identity,
		RepoMessaging: h.pub,
		Limiter:       h.limiter,
		SMS:           h.sms,
		Code:          &seqCode{codes: codes},
		HMAC:          h.hmac,
		UUID:          uid.NewUUID(),
		UID:           sf,
		Clock:         h.clock,
		Validator:     v,
		Config:        cfg,
		Instrument:    instrument.NewNoop(),
	})

	return h
}
