package inbound

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/share/entity"
	"github.com/shandysiswandi/otpgate/internal/share/usecase"
)

type pageData struct {
	Video           entity.Video
	Actors          []string
	ShareURL        string
	AppURL          string
	FallbackURL     string
	StoreName       string
	FallbackDelayMS int
}

func (h *HTTP) SharePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.uc.SharePage(ctx, usecase.SharePageInput{
		VideoID:   httprouter.ParamsFromContext(ctx).ByName("videoId"),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeText(w, err)
		return
	}

	data := pageData{
		Video:           out.Video,
		Actors:          splitStarcast(out.Video.Starcast),
		ShareURL:        shareURL(r),
		AppURL:          out.AppURL,
		FallbackURL:     out.FallbackURL,
		StoreName:       out.StoreName,
		FallbackDelayMS: out.FallbackDelayMS,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		slog.ErrorContext(ctx, "failed to render share page", "error", err)
		writeText(w, goerror.NewServer(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeText(w http.ResponseWriter, err error) {
	if setter, ok := w.(interface{ SetError(error) }); ok {
		setter.SetError(err)
	}

	status, msg := http.StatusInternalServerError, "Something went wrong"
	if goerror.CodeOf(err) == goerror.CodeInvalidInput {
		status, msg = http.StatusBadRequest, "Invalid video id"
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func splitStarcast(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Compact(parts)
}

func shareURL(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
