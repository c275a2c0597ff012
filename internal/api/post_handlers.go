package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/search"
	"github.com/localcircle/localcircle-server/internal/service"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createPost",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts",
		Summary:       "Create post",
		Description:   "Publishes a post at the caller's current position. The geohash is derived server-side",
		Tags:          []string{"Posts"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecentPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List recent posts",
		Description: "Newest posts first, annotated for the caller",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecentPosts)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/search",
		Summary:     "Search posts",
		Description: "Full-text search over post titles, bodies and authors",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchPosts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Get post",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Delete post",
		Description: "Deletes a post the caller authored. Deleting someone else's post is a no-op",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/posts",
		Summary:     "List a user's posts",
		Description: "Profile view: posts by one author, newest first",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUserPosts)
}

// === DTOs ===

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string          `json:"title" doc:"Post title"`
	Body     string          `json:"body" doc:"Post body, at most 280 characters"`
	Category domain.Category `json:"category" enum:"Coffee,Food,Services,Parks,Safety" doc:"Neighborhood topic"`
	Lat      string          `json:"lat,omitempty" required:"false" doc:"Device latitude"`
	Lng      string          `json:"lng,omitempty" required:"false" doc:"Device longitude"`
}

// CreatePostInput wraps the create request for huma.
type CreatePostInput struct {
	Body CreatePostRequest
}

// PostOutput wraps one annotated post.
type PostOutput struct {
	Body domain.FeedPost
}

// CreatedPostOutput wraps a newly created post.
type CreatedPostOutput struct {
	Body *domain.Post
}

// PostIDInput identifies a post by path.
type PostIDInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// ListPostsInput pages the recent posts list.
type ListPostsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Maximum posts to return"`
}

// UserPostsInput lists one author's posts.
type UserPostsInput struct {
	ID    string `path:"id" doc:"Author user ID"`
	Limit int    `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Maximum posts to return"`
}

// SearchPostsInput contains search query parameters.
type SearchPostsInput struct {
	Query    string  `query:"q" doc:"Search query"`
	Category string  `query:"category" doc:"Restrict to one category"`
	Lat      float64 `query:"lat" doc:"Restrict to posts near this latitude (requires lng and radius)"`
	Lng      float64 `query:"lng" doc:"Restrict to posts near this longitude"`
	Radius   float64 `query:"radius" minimum:"0" doc:"Radius in meters for the position filter"`
	Sort     string  `query:"sort" doc:"Result order: relevance (default) or recent"`
	Limit    int     `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset   int     `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// DeletePostResponse reports whether anything was deleted.
type DeletePostResponse struct {
	Deleted bool `json:"deleted" doc:"False when the post was missing or not the caller's"`
}

// DeletePostOutput wraps DeletePostResponse for huma.
type DeletePostOutput struct {
	Body DeletePostResponse
}

// SearchPostsOutput wraps search results for huma.
type SearchPostsOutput struct {
	Body *service.SearchResult
}

// === Handlers ===

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*CreatedPostOutput, error) {
	actor, err := GetActor(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Posts.Create(ctx, actor, service.CreatePostInput{
		Title:    input.Body.Title,
		Body:     input.Body.Body,
		Category: input.Body.Category,
	}, location.Reported{Lat: input.Body.Lat, Lng: input.Body.Lng})
	if err != nil {
		return nil, err
	}
	return &CreatedPostOutput{Body: post}, nil
}

func (s *Server) handleListRecentPosts(ctx context.Context, input *ListPostsInput) (*FeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.services.Posts.Recent(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: FeedResponse{Posts: nonNil(posts)}}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *PostIDInput) (*PostOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Posts.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleDeletePost(ctx context.Context, input *PostIDInput) (*DeletePostOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := s.services.Ledger.DeletePost(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeletePostOutput{Body: DeletePostResponse{Deleted: deleted}}, nil
}

func (s *Server) handleListUserPosts(ctx context.Context, input *UserPostsInput) (*FeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.services.Posts.ByAuthor(ctx, userID, input.ID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: FeedResponse{Posts: nonNil(posts)}}, nil
}

func (s *Server) handleSearchPosts(ctx context.Context, input *SearchPostsInput) (*SearchPostsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	switch input.Sort {
	case "":
	case "relevance", "recent":
		params.SortBy = input.Sort
	default:
		return nil, errors.Validationf("unknown sort %q", input.Sort)
	}
	if input.Category != "" {
		if !domain.Category(input.Category).Valid() {
			return nil, errors.Validationf("unknown category %q", input.Category)
		}
		params.Category = input.Category
	}
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.Radius > 0 {
		near := geo.Point{Lat: input.Lat, Lng: input.Lng}
		if !near.Valid() {
			return nil, errors.Validation("lat/lng out of range")
		}
		params.Near = &near
		params.RadiusMeters = input.Radius
	}

	result, err := s.services.Posts.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return &SearchPostsOutput{Body: result}, nil
}
