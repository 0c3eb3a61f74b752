// Package listings fetches motel listings, reviews and reply threads through
// TTL caches.
//
// Each call site keeps its own failure policy: previews degrade to an empty
// list, while detail, reviews and replies return the error to the caller.
// Failed fetches are never cached.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kbukum/sessionkit/cache"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/observability"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/validation"
)

// Cache keys.
const (
	PreviewsCacheKey = "motelPreviewsCache"
	ReviewsPrefix    = "reviews"
	RepliesPrefix    = "replies"
)

// DefaultResource is the listing collection path segment.
const DefaultResource = "motels"

// Requester is the subset of the API client the fetchers need.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Config configures a Service.
type Config struct {
	// Resource is the collection path segment, e.g. "motels".
	Resource string `mapstructure:"resource"`
	// TTL is the lifetime of cached previews, reviews and replies.
	TTL time.Duration `mapstructure:"ttl"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Resource == "" {
		c.Resource = DefaultResource
	}
	if c.TTL == 0 {
		c.TTL = cache.DefaultTTL
	}
}

// Service is the cache-backed listings client.
type Service struct {
	cfg      Config
	api      Requester
	previews *cache.Cache[[]Preview]
	reviews  *cache.Cache[[]Review]
	replies  *cache.Cache[[]Review]
	log      *logger.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	cacheOpts []cache.Option
}

// WithClock replaces time.Now in every cache.
func WithClock(c cache.Clock) Option {
	return func(o *serviceOptions) { o.cacheOpts = append(o.cacheOpts, cache.WithClock(c)) }
}

// WithMetrics records cache lookups on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *serviceOptions) { o.cacheOpts = append(o.cacheOpts, cache.WithMetrics(m)) }
}

// New creates a Service keeping its caches in s.
func New(cfg Config, api Requester, s storage.Storage, log *logger.Logger, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if api == nil {
		return nil, fmt.Errorf("listings: requester is required")
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	o := serviceOptions{cacheOpts: []cache.Option{cache.WithLogger(log)}}
	for _, opt := range opts {
		opt(&o)
	}

	previews, err := cache.New[[]Preview](s, cache.Config{
		Name: "previews", Prefix: PreviewsCacheKey, PayloadField: "motels", TTL: cfg.TTL,
	}, o.cacheOpts...)
	if err != nil {
		return nil, err
	}
	reviews, err := cache.New[[]Review](s, cache.Config{
		Name: "reviews", Prefix: ReviewsPrefix, PayloadField: "reviews", TTL: cfg.TTL,
	}, o.cacheOpts...)
	if err != nil {
		return nil, err
	}
	replies, err := cache.New[[]Review](s, cache.Config{
		Name: "replies", Prefix: RepliesPrefix, PayloadField: "replies", TTL: cfg.TTL,
	}, o.cacheOpts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		api:      api,
		previews: previews,
		reviews:  reviews,
		replies:  replies,
		log:      log.WithComponent("listings"),
	}, nil
}

func (s *Service) path(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, s.cfg.Resource)
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/")
}

// Previews returns the listing previews. Any failure yields an empty list.
func (s *Service) Previews(ctx context.Context) []Preview {
	if cached, ok := s.previews.Get(ctx, ""); ok {
		return cached
	}
	var out []Preview
	if err := s.api.Get(ctx, s.path("previews"), &out); err != nil {
		s.log.Error("failed to fetch listing previews", logger.Fields(logger.FieldError, err.Error()))
		return []Preview{}
	}
	if out == nil {
		out = []Preview{}
	}
	s.previews.Set(ctx, "", out)
	return out
}

// Detail fetches one listing by slug. Not cached.
func (s *Service) Detail(ctx context.Context, slug string) (*Detail, error) {
	if err := validation.Validate(struct {
		Slug string `json:"slug" validate:"required"`
	}{slug}); err != nil {
		return nil, err
	}
	d, err := s.fetchDetail(ctx, s.path("slug", slug))
	if err != nil {
		s.log.Error("failed to fetch listing detail", logger.Fields("slug", slug, logger.FieldError, err.Error()))
		return nil, err
	}
	return d, nil
}

// DetailAt fetches one listing by its location path. A nil hood is sent as
// the "null" segment the backend routes on.
func (s *Service) DetailAt(ctx context.Context, loc Location, name string) (*Detail, error) {
	hood := "null"
	if loc.Hood != nil && *loc.Hood != "" {
		hood = *loc.Hood
	}
	d, err := s.fetchDetail(ctx, s.path(loc.Country, loc.State, loc.City, hood, name))
	if err != nil {
		s.log.Error("failed to fetch listing detail", logger.Fields("name", name, logger.FieldError, err.Error()))
		return nil, err
	}
	return d, nil
}

// wireDetail accepts the legacy stay-slot field names.
type wireDetail struct {
	Detail
	GeneralStaySlots      json.RawMessage `json:"generalStaySlots"`
	GeneralOvernightInfos json.RawMessage `json:"generalOvernightInfos"`
}

func (s *Service) fetchDetail(ctx context.Context, path string) (*Detail, error) {
	var w wireDetail
	if err := s.api.Get(ctx, path, &w); err != nil {
		return nil, err
	}
	d := w.Detail
	d.StaySlots = firstRaw(d.StaySlots, w.GeneralStaySlots)
	d.OvernightInfo = firstRaw(d.OvernightInfo, w.GeneralOvernightInfos)
	d.Telephone = telephone(d.ContactMethods)
	return &d, nil
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return json.RawMessage("[]")
}

var phonePattern = regexp.MustCompile(`^\+?\d[\d\s\-().]+$`)
var nonDial = regexp.MustCompile(`[^\d+]`)

// telephone picks the first phone-like contact and returns it as a tel: URI.
func telephone(contacts []string) string {
	for _, c := range contacts {
		if strings.HasPrefix(c, "tel:") {
			return c
		}
		if phonePattern.MatchString(c) {
			return "tel:" + nonDial.ReplaceAllString(c, "")
		}
	}
	return ""
}

// Reviews returns the reviews of a listing, cached per listing id.
func (s *Service) Reviews(ctx context.Context, motelID string) ([]Review, error) {
	return s.reviews.GetOrFetch(ctx, motelID, func(ctx context.Context) ([]Review, error) {
		var out []Review
		if err := s.api.Get(ctx, s.path(motelID, "reviews"), &out); err != nil {
			return nil, err
		}
		return nonNil(out), nil
	})
}

// Replies returns the reply thread of a review, cached per review id.
func (s *Service) Replies(ctx context.Context, reviewID string) ([]Review, error) {
	return s.replies.GetOrFetch(ctx, reviewID, func(ctx context.Context) ([]Review, error) {
		var out []Review
		if err := s.api.Get(ctx, s.path("review", reviewID, "replies"), &out); err != nil {
			return nil, err
		}
		return nonNil(out), nil
	})
}

// CreateReview posts a review or, with ParentID set, a reply. Caches are
// not touched; callers wanting an optimistic echo use the helpers below.
func (s *Service) CreateReview(ctx context.Context, motelID string, in CreateReviewInput) (CreateReviewResult, error) {
	var out CreateReviewResult
	if err := validation.Validate(in); err != nil {
		return out, err
	}
	if err := s.api.Post(ctx, s.path(motelID, "review"), in, &out); err != nil {
		s.log.Error("failed to create review", logger.Fields("motel_id", motelID, logger.FieldError, err.Error()))
		return out, err
	}
	return out, nil
}

// AddOptimisticReview puts review at the head of the cached reviews of
// motelID, creating the entry when none is cached.
func (s *Service) AddOptimisticReview(ctx context.Context, motelID string, review Review) {
	prepend(ctx, s.reviews, motelID, review)
}

// RemoveOptimisticReview drops reviewID from the cached reviews of motelID.
func (s *Service) RemoveOptimisticReview(ctx context.Context, motelID, reviewID string) {
	remove(ctx, s.reviews, motelID, reviewID)
}

// AddOptimisticReply puts reply at the head of the cached thread of reviewID.
func (s *Service) AddOptimisticReply(ctx context.Context, reviewID string, reply Review) {
	prepend(ctx, s.replies, reviewID, reply)
}

// RemoveOptimisticReply drops replyID from the cached thread of reviewID.
func (s *Service) RemoveOptimisticReply(ctx context.Context, reviewID, replyID string) {
	remove(ctx, s.replies, reviewID, replyID)
}

func prepend(ctx context.Context, c *cache.Cache[[]Review], id string, r Review) {
	cached, _ := c.Get(ctx, id)
	c.Set(ctx, id, append([]Review{r}, cached...))
}

func remove(ctx context.Context, c *cache.Cache[[]Review], id, reviewID string) {
	cached, ok := c.Get(ctx, id)
	if !ok {
		return
	}
	kept := make([]Review, 0, len(cached))
	for _, r := range cached {
		if r.ID != reviewID {
			kept = append(kept, r)
		}
	}
	c.Set(ctx, id, kept)
}

func nonNil(rs []Review) []Review {
	if rs == nil {
		return []Review{}
	}
	return rs
}
