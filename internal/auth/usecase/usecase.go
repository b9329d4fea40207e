package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	testIdentityCode         = "123456"
	defaultTestIdentityPhone = "9057290632"
	defaultOTPExpiry         = 5 * time.Minute
	defaultSMSTemplate       = "Dear User, your OTP is {otp}. Do not share it with anyone. Valid for 5 minutes. -Team Videos Alarm"
)

var (
	// ErrOTPNotFound is returned when the phone has no active code.
	ErrOTPNotFound = goerror.NewBusiness("OTP not found or already used", goerror.CodeOTPNotFound)
	// ErrOTPInvalid is returned when the submitted code does not match the active one.
	ErrOTPInvalid = goerror.NewBusiness("Invalid OTP", goerror.CodeOTPInvalid)
	// ErrOTPExpired is returned when the active code is older than the expiry window.
	ErrOTPExpired = goerror.NewBusiness("OTP expired", goerror.CodeOTPExpired)

	errTooManyOTPRequests = goerror.NewBusiness("Too many OTP requests, please try again later", goerror.CodeTooManyRequest)
	errUnauthenticated    = goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
)

type AccountCreatedEvent struct {
	UID            string
	Phone          string
	PhoneFormatted string
	CreatedAt      time.Time
}

type repoOTP interface {
	Put(ctx context.Context, phone, code string) error
	Get(ctx context.Context, phone string) (*entity.OTP, error)
	Delete(ctx context.Context, phone string) error
}

type repoIdentity interface {
	FindByPhone(ctx context.Context, phoneFormatted string) (*entity.Account, error)
	FindByUID(ctx context.Context, uid string) (*entity.Account, error)
	CreateAccount(ctx context.Context, acc entity.NewAccount) error
	ExistsByPhone(ctx context.Context, phoneRaw string) (bool, error)
	MintSessionToken(ctx context.Context, acc entity.Account) (string, error)
}

type repoMessaging interface {
	PublishAccountCreated(ctx context.Context, msg AccountCreatedEvent) error
}

type Usecase struct {
	repoOTP       repoOTP
	repoIdentity  repoIdentity
	repoMessaging repoMessaging
	limiter       ratelimit.Limiter
	sms           sms.SMS
	code          otp.Generator
	hmac          hash.Hash
	uuid          uid.StringID
	uid           uid.NumberID
	clock         clock.Clocker
	validator     validator.Validator
	cfg           config.Config
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoOTP       repoOTP
	RepoIdentity  repoIdentity
	RepoMessaging repoMessaging
	Limiter       ratelimit.Limiter
	SMS           sms.SMS
	Code          otp.Generator
	HMAC          hash.Hash
	UUID          uid.StringID
	UID           uid.NumberID
	Clock         clock.Clocker
	Validator     validator.Validator
	Config        config.Config
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoOTP:       dep.RepoOTP,
		repoIdentity:  dep.RepoIdentity,
		repoMessaging: dep.RepoMessaging,
		limiter:       dep.Limiter,
		sms:           dep.SMS,
		code:          dep.Code,
		hmac:          dep.HMAC,
		uuid:          dep.UUID,
		uid:           dep.UID,
		clock:         dep.Clock,
		validator:     dep.Validator,
		cfg:           dep.Config,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// isTestIdentity reports whether phone is the store-review demo number, which
// always receives and accepts the fixed code.
func (s *Usecase) isTestIdentity(phone string) bool {
	if !s.cfg.GetBool("modules.auth.test_identity.enabled") {
		return false
	}

	demo := s.cfg.GetString("modules.auth.test_identity.phone")
	if demo == "" {
		demo = defaultTestIdentityPhone
	}

	return phone == demo
}

func (s *Usecase) otpExpiry() time.Duration {
	if d := s.cfg.GetSecond("modules.auth.otp.expiry_seconds"); d > 0 {
		return d
	}
	return defaultOTPExpiry
}

func (s *Usecase) otpMessage(code string) string {
	tmpl := s.cfg.GetString("modules.auth.otp.sms_template")
	if tmpl == "" {
		tmpl = defaultSMSTemplate
	}
	return strings.ReplaceAll(tmpl, "{otp}", code)
}

func identityProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return goerror.NewUpstream(err, "Identity provider timed out", goerror.CodeTimeout)
	}
	return goerror.NewUpstream(err, "Identity provider unavailable", goerror.CodeIdentityProvider)
}
