// Package router wires the HTTP surface of the links page: the page itself,
// its JSON twin, the row action endpoints and the health check.
package router

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/patric-chuzhbe/linkfy/internal/actions"
	"github.com/patric-chuzhbe/linkfy/internal/logger"
	"github.com/patric-chuzhbe/linkfy/internal/models"
	"github.com/patric-chuzhbe/linkfy/internal/service"
	"github.com/patric-chuzhbe/linkfy/internal/session"
	"github.com/patric-chuzhbe/linkfy/internal/table"
)

type linksLoader interface {
	Load(ctx context.Context, sess session.Session) (models.Listing, error)
	FindRow(ctx context.Context, sess session.Session, code string) (models.DisplayRow, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type linksService interface {
	linksLoader
	pinger
}

type sessionReader interface {
	Middleware(h http.Handler) http.Handler
}

//go:embed page.html
var pageTemplateSource string

var pageTemplate = pongo2.Must(pongo2.FromString(pageTemplateSource))

//go:embed qr.svg
var qrIcon []byte

// Router holds the handlers' dependencies.
type Router struct {
	svc        linksService
	renderer   *table.Renderer
	rowActions actions.RowActions
}

// GetIndex renders the page. The links section is left out unless the
// session has at least one link.
func (router *Router) GetIndex(response http.ResponseWriter, request *http.Request) {
	listing := router.load(request)

	var section bytes.Buffer
	if err := router.renderer.Render(&section, listing); err != nil {
		logger.Log.Debugln("Error calling the `router.renderer.Render()`: ", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	var page bytes.Buffer
	err := pageTemplate.ExecuteWriter(pongo2.Context{
		"section":    pongo2.AsSafeValue(section.String()),
		"visibility": listing.Visibility.String(),
	}, &page)
	if err != nil {
		logger.Log.Debugln("Error calling the `pageTemplate.ExecuteWriter()`: ", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(http.StatusOK)
	if _, err := response.Write(page.Bytes()); err != nil {
		logger.Log.Debugln("Error calling the `response.Write()`: ", err)
	}
}

// LinkResponseItem is one row of GET /api/user/links.
type LinkResponseItem struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// GetApiuserlinks returns the rows as JSON, or 204 when the table would not render.
func (router *Router) GetApiuserlinks(response http.ResponseWriter, request *http.Request) {
	listing := router.load(request)
	if listing.Visibility != models.SignInData {
		response.WriteHeader(http.StatusNoContent)
		return
	}

	views := router.renderer.Rows(listing.Rows)
	items := make([]LinkResponseItem, 0, len(views))
	for i, view := range views {
		items = append(items, LinkResponseItem{
			ID:          view.ID,
			Code:        view.Code,
			OriginalURL: view.OriginalURL,
			ShortURL:    view.ShortLink,
			Date:        listing.Rows[i].Date,
			Time:        view.Time,
		})
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(response).Encode(items); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder(response).Encode()`: ", err)
	}
}

// PostLinkqr dispatches the row's QR-Code action.
func (router *Router) PostLinkqr(response http.ResponseWriter, request *http.Request) {
	router.dispatch(response, request, router.rowActions.View)
}

// PostLinkdelete dispatches the row's Delete action.
func (router *Router) PostLinkdelete(response http.ResponseWriter, request *http.Request) {
	router.dispatch(response, request, router.rowActions.Delete)
}

func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.svc.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `router.svc.Ping()`: ", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (router *Router) GetQrsvg(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "image/svg+xml")
	response.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := response.Write(qrIcon); err != nil {
		logger.Log.Debugln("Error calling the `response.Write()`: ", err)
	}
}

func (router *Router) load(request *http.Request) models.Listing {
	listing, err := router.svc.Load(request.Context(), session.FromContext(request.Context()))
	if err != nil {
		logger.Log.Debugln("Error calling the `router.svc.Load()`: ", err)
	}

	return listing
}

func (router *Router) dispatch(
	response http.ResponseWriter,
	request *http.Request,
	action func(ctx context.Context, row models.DisplayRow) error,
) {
	code := chi.URLParam(request, "code")
	row, err := router.svc.FindRow(request.Context(), session.FromContext(request.Context()), code)
	switch {
	case errors.Is(err, service.ErrSignedOut):
		response.WriteHeader(http.StatusUnauthorized)
		return
	case errors.Is(err, service.ErrRowNotFound):
		response.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		logger.Log.Debugln("Error calling the `router.svc.FindRow()`: ", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := action(request.Context(), row); err != nil {
		logger.Log.Debugln("Error calling the row action: ", err)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// sameOrigin refuses row action POSTs sent by another site. The session
// rides in a cookie, so the browser attaches it to cross-site form posts.
// Requests carrying neither Sec-Fetch-Site nor Origin (non-browser clients)
// pass through.
func sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		switch request.Header.Get("Sec-Fetch-Site") {
		case "", "same-origin", "none":
		default:
			response.WriteHeader(http.StatusForbidden)
			return
		}

		if origin := request.Header.Get("Origin"); origin != "" {
			parsed, err := url.Parse(origin)
			if err != nil || parsed.Host != request.Host {
				response.WriteHeader(http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(response, request)
	})
}

// New builds the chi router with its middleware chain.
func New(
	svc linksService,
	renderer *table.Renderer,
	rowActions actions.RowActions,
	sessions sessionReader,
) *chi.Mux {
	if rowActions == nil {
		rowActions = actions.LoggingActions{}
	}

	myRouter := &Router{
		svc:        svc,
		renderer:   renderer,
		rowActions: rowActions,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		middleware.Compress(5, "text/html", "application/json", "image/svg+xml"),
	)

	router.Get(`/ping`, myRouter.GetPing)
	router.Get(`/qr.svg`, myRouter.GetQrsvg)

	router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Get(`/`, myRouter.GetIndex)
		r.Get(`/api/user/links`, myRouter.GetApiuserlinks)
		r.With(sameOrigin).Post(`/links/{code}/qr`, myRouter.PostLinkqr)
		r.With(sameOrigin).Post(`/links/{code}/delete`, myRouter.PostLinkdelete)
	})

	return router
}
