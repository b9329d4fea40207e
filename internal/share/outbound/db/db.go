package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/share/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const queryVideoByID = `SELECT id, title, description, thumbnail_url, category, director,
	duration, release_year, starcast, video_url FROM share_videos WHERE id = $1`

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (d *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return d.ins.Tracer("share.outbound.db").Start(ctx, name)
}

func (d *DB) GetVideo(ctx context.Context, id string) (_ *entity.Video, err error) {
	ctx, span := d.startSpan(ctx, "GetVideo")
	defer func() {
		if err != nil && !errors.Is(err, goerror.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var v entity.Video
	err = d.conn.QueryRow(ctx, queryVideoByID, id).Scan(
		&v.ID, &v.Title, &v.Description, &v.ThumbnailURL, &v.Category, &v.Director,
		&v.Duration, &v.ReleaseYear, &v.Starcast, &v.VideoURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &v, nil
}
