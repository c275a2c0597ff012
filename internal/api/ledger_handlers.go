package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/service"
)

func (s *Server) registerLedgerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "togglePostLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/like",
		Summary:     "Like or unlike a post",
		Description: "Flips the caller's like. The post counter and the author's alert change in the same commit",
		Tags:        []string{"Ledger"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleTogglePostLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}/comments",
		Summary:     "List comments",
		Description: "A post's comments as two-level threads, with the caller's liked comments",
		Tags:        []string{"Ledger"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts/{id}/comments",
		Summary:       "Add comment",
		Description:   "Adds a root comment, or a reply when parent_id names a root comment on the same post",
		Tags:          []string{"Ledger"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleCommentLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/like",
		Summary:     "Like or unlike a comment",
		Tags:        []string{"Ledger"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleCommentLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSave",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/save",
		Summary:     "Save or unsave a post",
		Description: "Toggles the post in one folder. Omitting folder_id targets the virtual all folder, where unsaving clears every folder",
		Tags:        []string{"Ledger"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleSave)

	huma.Register(s.api, huma.Operation{
		OperationID: "unsavePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}/saves",
		Summary:     "Remove a post from every folder",
		Tags:        []string{"Ledger"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnsavePost)
}

// === DTOs ===

// ToggleLikeResponse reports the caller's like state after the toggle.
type ToggleLikeResponse struct {
	Liked bool `json:"liked" doc:"Whether the caller now likes the target"`
}

// ToggleLikeOutput wraps ToggleLikeResponse for huma.
type ToggleLikeOutput struct {
	Body ToggleLikeResponse
}

// CommentIDInput identifies a comment by path.
type CommentIDInput struct {
	ID string `path:"id" doc:"Comment ID"`
}

// AddCommentRequest is the body for adding a comment.
type AddCommentRequest struct {
	Text     string `json:"text" doc:"Comment text, at most 500 characters"`
	ParentID string `json:"parent_id,omitempty" required:"false" doc:"Root comment being replied to"`
}

// AddCommentInput wraps AddCommentRequest with the post path.
type AddCommentInput struct {
	ID   string `path:"id" doc:"Post ID"`
	Body AddCommentRequest
}

// CommentOutput wraps a comment for huma.
type CommentOutput struct {
	Body *domain.Comment
}

// CommentThreadsOutput wraps a post's threads for huma.
type CommentThreadsOutput struct {
	Body *service.CommentThreads
}

// ToggleSaveRequest names the folder to toggle in.
type ToggleSaveRequest struct {
	FolderID string `json:"folder_id,omitempty" required:"false" doc:"Folder ID, or all (default)"`
}

// ToggleSaveInput wraps ToggleSaveRequest with the post path.
type ToggleSaveInput struct {
	ID   string             `path:"id" doc:"Post ID"`
	Body *ToggleSaveRequest `required:"false"`
}

// ToggleSaveResponse reports the post's save state in the requested folder.
type ToggleSaveResponse struct {
	Saved bool `json:"saved" doc:"Whether the post is now in the folder"`
}

// ToggleSaveOutput wraps ToggleSaveResponse for huma.
type ToggleSaveOutput struct {
	Body ToggleSaveResponse
}

// UnsaveResponse reports how many saved records were removed.
type UnsaveResponse struct {
	Removed int `json:"removed"`
}

// UnsaveOutput wraps UnsaveResponse for huma.
type UnsaveOutput struct {
	Body UnsaveResponse
}

// === Handlers ===

func (s *Server) handleTogglePostLike(ctx context.Context, input *PostIDInput) (*ToggleLikeOutput, error) {
	actor, err := GetActor(ctx)
	if err != nil {
		return nil, err
	}

	liked, err := s.services.Ledger.ToggleLike(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &ToggleLikeOutput{Body: ToggleLikeResponse{Liked: liked}}, nil
}

func (s *Server) handleToggleCommentLike(ctx context.Context, input *CommentIDInput) (*ToggleLikeOutput, error) {
	actor, err := GetActor(ctx)
	if err != nil {
		return nil, err
	}

	liked, err := s.services.Ledger.ToggleCommentLike(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &ToggleLikeOutput{Body: ToggleLikeResponse{Liked: liked}}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *PostIDInput) (*CommentThreadsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	threads, err := s.services.Comments.Threads(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &CommentThreadsOutput{Body: threads}, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	actor, err := GetActor(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Ledger.AddComment(ctx, actor, input.ID, input.Body.Text, input.Body.ParentID)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleToggleSave(ctx context.Context, input *ToggleSaveInput) (*ToggleSaveOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var folderID string
	if input.Body != nil {
		folderID = input.Body.FolderID
	}

	saved, err := s.services.Ledger.ToggleSave(ctx, userID, input.ID, folderID)
	if err != nil {
		return nil, err
	}
	return &ToggleSaveOutput{Body: ToggleSaveResponse{Saved: saved}}, nil
}

func (s *Server) handleUnsavePost(ctx context.Context, input *PostIDInput) (*UnsaveOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Ledger.UnsaveAll(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &UnsaveOutput{Body: UnsaveResponse{Removed: removed}}, nil
}
