package inbound

import (
	"context"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/share/usecase"
)

//go:embed page.gohtml
var pageSource string

var pageTemplate = template.Must(template.New("share").Parse(pageSource))

type uc interface {
	SharePage(ctx context.Context, in usecase.SharePageInput) (*usecase.SharePageOutput, error)
}

type HTTP struct {
	uc uc
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	h := &HTTP{uc: uc}

	r.PublicGETRaw("/share/video/:videoId", http.HandlerFunc(h.SharePage))
}
