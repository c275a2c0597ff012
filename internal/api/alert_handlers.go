package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/localcircle/localcircle-server/internal/domain"
)

func (s *Server) registerAlertRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAlerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts",
		Summary:     "List alerts",
		Description: "The caller's alerts newest first with the unread count",
		Tags:        []string{"Alerts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListAlerts)

	huma.Register(s.api, huma.Operation{
		OperationID: "markAlertsRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/alerts/read",
		Summary:     "Mark all alerts read",
		Tags:        []string{"Alerts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkAlertsRead)
}

// AlertInboxOutput wraps the inbox for huma.
type AlertInboxOutput struct {
	Body domain.AlertInbox
}

// MarkReadResponse reports how many alerts flipped to read.
type MarkReadResponse struct {
	Marked int `json:"marked"`
}

// MarkReadOutput wraps MarkReadResponse for huma.
type MarkReadOutput struct {
	Body MarkReadResponse
}

func (s *Server) handleListAlerts(ctx context.Context, _ *struct{}) (*AlertInboxOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	inbox, err := s.services.Alerts.Inbox(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AlertInboxOutput{Body: inbox}, nil
}

func (s *Server) handleMarkAlertsRead(ctx context.Context, _ *struct{}) (*MarkReadOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	marked, err := s.services.Alerts.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MarkReadOutput{Body: MarkReadResponse{Marked: marked}}, nil
}
