package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/http/response"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/service"
	"github.com/localcircle/localcircle-server/internal/sse"
)

// heartbeatInterval keeps idle feed streams open through proxies.
const heartbeatInterval = 30 * time.Second

func (s *Server) registerFeedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getNearbyFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed",
		Summary:     "Nearby feed",
		Description: "Posts within the radius of the reported position, refreshed from the global recent feed and annotated with the caller's likes and saves",
		Tags:        []string{"Feed"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleNearbyFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGlobalFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed/global",
		Summary:     "Global feed",
		Description: "The most recent posts from every neighborhood",
		Tags:        []string{"Feed"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGlobalFeed)
}

// === DTOs ===

// FeedInput carries the device position as reported. Lat and Lng are strings
// so a missing fix reaches the server as LOCATION_UNAVAILABLE instead of a
// request validation error.
type FeedInput struct {
	Lat    string  `query:"lat" doc:"Latitude in decimal degrees"`
	Lng    string  `query:"lng" doc:"Longitude in decimal degrees"`
	Radius float64 `query:"radius" minimum:"0" doc:"Radius in meters (default from server config)"`
	Query  string  `query:"q" maxLength:"200" doc:"Case-insensitive filter over title and body"`
}

// FeedResponse is a rendered feed.
type FeedResponse struct {
	Posts []domain.FeedPost `json:"posts" doc:"Posts newest first"`
}

// FeedOutput wraps FeedResponse for huma.
type FeedOutput struct {
	Body FeedResponse
}

// === Handlers ===

func (s *Server) handleNearbyFeed(ctx context.Context, input *FeedInput) (*FeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.services.Feed.Nearby(ctx, feedRequest(userID, input))
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: FeedResponse{Posts: nonNil(posts)}}, nil
}

func (s *Server) handleGlobalFeed(ctx context.Context, _ *struct{}) (*FeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.services.Feed.Global(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: FeedResponse{Posts: nonNil(posts)}}, nil
}

// handleFeedStream serves GET /api/v1/feed/stream. It answers with a JSON
// error when the session cannot start (no identity, no location) and
// otherwise switches to an event stream carrying feed.updated frames.
func (s *Server) handleFeedStream(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	q := r.URL.Query()
	input := &FeedInput{Lat: q.Get("lat"), Lng: q.Get("lng"), Query: q.Get("q")}
	if raw := q.Get("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius < 0 {
			response.HandleError(w, errors.Validationf("invalid radius %q", raw), s.logger)
			return
		}
		input.Radius = radius
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	renders := make(chan []domain.FeedPost, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.services.Feed.Stream(ctx, feedRequest(userID, input), nil, renders)
	}()

	var first []domain.FeedPost
	select {
	case first = <-renders:
	case err := <-done:
		response.HandleError(w, err, s.logger)
		return
	case <-ctx.Done():
		return
	}

	sw, err := sse.NewWriter(w, s.logger)
	if err != nil {
		s.logger.Error("failed to start feed stream", slog.String("error", err.Error()))
		return
	}

	logger := s.logger.With(slog.String("user_id", userID))
	send := func(posts []domain.FeedPost) bool {
		event := sse.NewFeedUpdatedEvent(posts)
		if err := sw.Send(string(event.Type), event); err != nil {
			logger.Debug("feed stream client gone", slog.String("error", err.Error()))
			return false
		}
		return true
	}
	if !send(first) {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case posts := <-renders:
			if !send(posts) {
				return
			}
		case <-heartbeat.C:
			event := sse.NewHeartbeatEvent()
			if err := sw.Send(string(event.Type), event); err != nil {
				return
			}
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				logger.Warn("feed session failed", slog.String("error", err.Error()))
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func feedRequest(userID string, input *FeedInput) service.FeedRequest {
	return service.FeedRequest{
		ViewerID:     userID,
		Source:       location.Reported{Lat: input.Lat, Lng: input.Lng},
		RadiusMeters: input.Radius,
		Query:        input.Query,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
