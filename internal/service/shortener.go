package service

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"

	"flashlink/internal/biz"
	"flashlink/internal/conf"
	"flashlink/internal/domain"
	"flashlink/internal/domain/event"
)

type ShortenRequest struct {
	URL      string     `json:"url"`
	ExpiryAt *time.Time `json:"expiryAt,omitempty"`
	OwnerID  string     `json:"ownerId,omitempty"`
}

func (r ShortenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, validation.RuneLength(1, domain.MaxLongURLLength)),
		validation.Field(&r.OwnerID, validation.RuneLength(0, 128)),
	)
}

type ShortenReply struct {
	ShortCode string     `json:"shortCode"`
	ShortURL  string     `json:"shortUrl"`
	LongURL   string     `json:"longUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiryAt  *time.Time `json:"expiryAt,omitempty"`
}

type ExpandReply struct {
	ShortCode     string     `json:"shortCode"`
	LongURL       string     `json:"longUrl"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiryAt      *time.Time `json:"expiryAt,omitempty"`
	Expired       bool       `json:"expired"`
	RedirectCount int64      `json:"redirectCount"`
}

// ShortenerService exposes the link usecase over HTTP.
type ShortenerService struct {
	uc         *biz.LinkUsecase
	landingURL string
	log        *log.Helper
}

// DefaultLandingURL receives unknown and expired codes when no landing page
// is configured.
const DefaultLandingURL = "/"

func NewShortenerService(c *conf.Shortener, uc *biz.LinkUsecase, logger log.Logger) *ShortenerService {
	s := &ShortenerService{
		uc:         uc,
		log:        log.NewHelper(log.With(logger, "module", "service/shortener")),
		landingURL: DefaultLandingURL,
	}
	if c != nil && c.LandingUrl != "" {
		s.landingURL = c.LandingUrl
	}
	return s
}

// RegisterRoutes mounts the API and the redirect route. The redirect pattern
// only matches a single alphanumeric segment, so fixed paths registered
// earlier on the server keep precedence.
func (s *ShortenerService) RegisterRoutes(srv *khttp.Server) {
	api := srv.Route("/api/v1")
	api.POST("/shorten", s.Shorten)
	api.GET("/expand/{shortCode}", s.Expand)
	api.DELETE("/links/{shortCode}", s.Delete)

	srv.Route("/").GET("/{shortCode:[0-9A-Za-z]+}", s.Redirect)
}

func (s *ShortenerService) Shorten(ctx khttp.Context) error {
	rctx := ctx.Request().Context()
	if err := s.uc.Allow(rctx, ClientID(ctx.Request())); err != nil {
		return err
	}

	var req ShortenRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return domain.ErrInvalidURL.WithMetadata(fieldErrors(err))
	}

	link, err := s.uc.Create(rctx, biz.CreateLinkInput{
		LongURL:  req.URL,
		ExpiryAt: req.ExpiryAt,
		OwnerID:  req.OwnerID,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, ShortenReply{
		ShortCode: link.ShortCode.String(),
		ShortURL:  s.uc.ShortURL(link.ShortCode.String()),
		LongURL:   link.LongURL.String(),
		CreatedAt: link.CreatedAt,
		ExpiryAt:  link.ExpiryAt,
	})
}

// Redirect answers 301 for a live link. Unknown and expired codes go to the
// landing page with a 302.
func (s *ShortenerService) Redirect(ctx khttp.Context) error {
	req := ctx.Request()
	if err := s.uc.Allow(req.Context(), ClientID(req)); err != nil {
		return err
	}

	code := ctx.Vars().Get("shortCode")
	link, err := s.uc.Resolve(req.Context(), code, event.RequestInfo{
		ClientIP:  ClientID(req),
		UserAgent: req.UserAgent(),
		Referer:   req.Referer(),
	})
	switch {
	case err == nil:
		http.Redirect(ctx.Response(), req, link.LongURL.String(), http.StatusMovedPermanently)
		return nil
	case errors.Is(err, domain.ErrLinkNotFound):
		http.Redirect(ctx.Response(), req, s.landingURL, http.StatusFound)
		return nil
	default:
		return err
	}
}

func (s *ShortenerService) Expand(ctx khttp.Context) error {
	view, err := s.uc.Expand(ctx.Request().Context(), ctx.Vars().Get("shortCode"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ExpandReply{
		ShortCode:     view.ShortCode.String(),
		LongURL:       view.LongURL.String(),
		CreatedAt:     view.CreatedAt,
		ExpiryAt:      view.ExpiryAt,
		Expired:       view.Expired,
		RedirectCount: view.RedirectCount,
	})
}

func (s *ShortenerService) Delete(ctx khttp.Context) error {
	rctx := ctx.Request().Context()
	if err := s.uc.Allow(rctx, ClientID(ctx.Request())); err != nil {
		return err
	}
	if err := s.uc.Delete(rctx, ctx.Vars().Get("shortCode")); err != nil {
		return err
	}
	ctx.Response().WriteHeader(http.StatusNoContent)
	return nil
}

// ClientID is the first X-Forwarded-For entry, else the remote address host.
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func fieldErrors(err error) map[string]string {
	errs, ok := err.(validation.Errors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	return lo.MapValues(errs, func(e error, _ string) string { return e.Error() })
}
