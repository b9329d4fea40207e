package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/shandysiswandi/otpgate/internal/auth/inbound"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/identity"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/mq"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/otpstore"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

const (
	defaultSweepSchedule = "@every 10m"
	sweepTimeout         = 30 * time.Second
	defaultOTPExpiry     = 5 * time.Minute
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Scheduler  *cron.Cron                 `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Limiter    ratelimit.Limiter          `validate:"required"`
	SMS        sms.SMS                    `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Code       otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store, err := newOTPStore(dep)
	if err != nil {
		return err
	}

	provider := identity.NewProvider(
		dep.DBConn,
		dep.JWT,
		dep.Config.GetSecond("modules.auth.identity.timeout_seconds"),
		dep.Instrument,
	)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoOTP:       store,
		RepoIdentity:  provider,
		RepoMessaging: repoMsg,
		Limiter:       dep.Limiter,
		SMS:           dep.SMS,
		Code:          dep.Code,
		HMAC:          dep.HMAC,
		UUID:          dep.UUID,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func newOTPStore(dep Dependency) (otpstore.Store, error) {
	retention := otpRetention(dep.Config)

	switch driver := dep.Config.GetString("modules.auth.otp.store"); driver {
	case otpstore.DriverRedis:
		return otpstore.NewRedis(dep.CacheConn, dep.Clock, retention, dep.Instrument), nil
	case otpstore.DriverPostgres:
		store := otpstore.NewPostgres(dep.DBConn, dep.Clock, retention, dep.Instrument)
		if err := scheduleSweep(dep, store); err != nil {
			return nil, err
		}
		return store, nil
	case otpstore.DriverMemory, "":
		return otpstore.NewMemory(dep.Clock), nil
	default:
		return nil, fmt.Errorf("auth: unknown otp store driver %q", driver)
	}
}

// otpRetention keeps records past their expiry so an expired code reports as
// expired rather than missing.
func otpRetention(cfg config.Config) time.Duration {
	expiry := cfg.GetSecond("modules.auth.otp.expiry_seconds")
	if expiry <= 0 {
		expiry = defaultOTPExpiry
	}

	retention := cfg.GetSecond("modules.auth.otp.retention_seconds")
	if retention <= 0 {
		retention = otpstore.DefaultRetention
	}
	if retention <= expiry {
		slog.Warn("otp retention raised above expiry", "retention", retention, "expiry", expiry)
		retention = 2 * expiry
	}

	return retention
}

func scheduleSweep(dep Dependency, store *otpstore.Postgres) error {
	schedule := dep.Config.GetString("modules.auth.otp.sweep_schedule")
	if schedule == "" {
		schedule = defaultSweepSchedule
	}

	_, err := dep.Scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		ctx = instrument.SetCorrelationID(ctx, dep.UUID.Generate())

		n, err := store.Sweep(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to sweep stale otp records", "error", err)
			return
		}
		if n > 0 {
			slog.InfoContext(ctx, "swept stale otp records", "count", n)
		}
	})
	return err
}
