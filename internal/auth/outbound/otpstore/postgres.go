package otpstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
)

const (
	queryPutOTP = `INSERT INTO auth_otp_requests (phone, code, created_at) VALUES ($1, $2, $3)
ON CONFLICT (phone) DO UPDATE SET code = EXCLUDED.code, created_at = EXCLUDED.created_at`
	queryGetOTP    = `SELECT phone, code, created_at FROM auth_otp_requests WHERE phone = $1`
	queryDeleteOTP = `DELETE FROM auth_otp_requests WHERE phone = $1`
	querySweepOTP  = `DELETE FROM auth_otp_requests WHERE created_at < $1`
)

// Postgres stores records in auth_otp_requests. Rows past the retention are
// removed by Sweep, which the module schedules.
type Postgres struct {
	conn      *pgxpool.Pool
	clock     clocker
	retention time.Duration
	ins       instrument.Instrumentation
}

func NewPostgres(conn *pgxpool.Pool, clock clocker, retention time.Duration, ins instrument.Instrumentation) *Postgres {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Postgres{conn: conn, clock: clock, retention: retention, ins: ins}
}

// Retention is how long a record is kept after it is written.
func (p *Postgres) Retention() time.Duration {
	return p.retention
}

func (p *Postgres) Put(ctx context.Context, phone, code string) (err error) {
	ctx, span := startSpan(ctx, p.ins, "Postgres.Put")
	defer func() { endSpan(span, err) }()

	_, err = p.conn.Exec(ctx, queryPutOTP, phone, code, p.clock.Now())
	return err
}

func (p *Postgres) Get(ctx context.Context, phone string) (_ *entity.OTP, err error) {
	ctx, span := startSpan(ctx, p.ins, "Postgres.Get")
	defer func() { endSpan(span, err) }()

	var rec entity.OTP
	err = p.conn.QueryRow(ctx, queryGetOTP, phone).Scan(&rec.Phone, &rec.Code, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (p *Postgres) Delete(ctx context.Context, phone string) (err error) {
	ctx, span := startSpan(ctx, p.ins, "Postgres.Delete")
	defer func() { endSpan(span, err) }()

	_, err = p.conn.Exec(ctx, queryDeleteOTP, phone)
	return err
}

// Sweep deletes records older than the retention and returns how many went.
func (p *Postgres) Sweep(ctx context.Context) (_ int64, err error) {
	ctx, span := startSpan(ctx, p.ins, "Postgres.Sweep")
	defer func() { endSpan(span, err) }()

	tag, err := p.conn.Exec(ctx, querySweepOTP, p.clock.Now().Add(-p.retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
