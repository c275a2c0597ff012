package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/service"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFolders",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders",
		Summary:     "List folders",
		Description: "The caller's save folders, led by the virtual all folder",
		Tags:        []string{"Folders"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFolders)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createFolder",
		Method:        http.MethodPost,
		Path:          "/api/v1/folders",
		Summary:       "Create folder",
		Tags:          []string{"Folders"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFolder",
		Method:      http.MethodDelete,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Delete folder",
		Description: "Deletes a folder and every saved record filed in it",
		Tags:        []string{"Folders"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFolderPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders/{id}/posts",
		Summary:     "List posts in a folder",
		Description: "Posts saved in the folder, most recently saved first. Use all for every saved post",
		Tags:        []string{"Folders"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFolderPosts)
}

// === DTOs ===

// FolderListResponse lists a user's folders.
type FolderListResponse struct {
	Folders []service.FolderSummary `json:"folders"`
}

// FolderListOutput wraps FolderListResponse for huma.
type FolderListOutput struct {
	Body FolderListResponse
}

// CreateFolderRequest is the body for creating a folder.
type CreateFolderRequest struct {
	Name string `json:"name" doc:"Folder name, at most 40 characters"`
}

// CreateFolderInput wraps CreateFolderRequest for huma.
type CreateFolderInput struct {
	Body CreateFolderRequest
}

// FolderOutput wraps a folder for huma.
type FolderOutput struct {
	Body *domain.Folder
}

// FolderIDInput identifies a folder by path.
type FolderIDInput struct {
	ID string `path:"id" doc:"Folder ID, or all"`
}

// DeleteFolderResponse reports the cascade.
type DeleteFolderResponse struct {
	RemovedSaves int `json:"removed_saves"`
}

// DeleteFolderOutput wraps DeleteFolderResponse for huma.
type DeleteFolderOutput struct {
	Body DeleteFolderResponse
}

// === Handlers ===

func (s *Server) handleListFolders(ctx context.Context, _ *struct{}) (*FolderListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	folders, err := s.services.Collections.ListFolders(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FolderListOutput{Body: FolderListResponse{Folders: folders}}, nil
}

func (s *Server) handleCreateFolder(ctx context.Context, input *CreateFolderInput) (*FolderOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	folder, err := s.services.Collections.CreateFolder(ctx, userID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: folder}, nil
}

func (s *Server) handleDeleteFolder(ctx context.Context, input *FolderIDInput) (*DeleteFolderOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Ledger.DeleteFolder(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteFolderOutput{Body: DeleteFolderResponse{RemovedSaves: removed}}, nil
}

func (s *Server) handleListFolderPosts(ctx context.Context, input *FolderIDInput) (*FeedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.services.Collections.FolderPosts(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: FeedResponse{Posts: nonNil(posts)}}, nil
}
