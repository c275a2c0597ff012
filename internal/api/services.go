package api

import (
	"github.com/localcircle/localcircle-server/internal/service"
)

// IndexStats reports on the full-text index for health checks.
type IndexStats interface {
	DocumentCount() (uint64, error)
}

// Services groups all business logic services used by the API server.
type Services struct {
	Posts       *service.PostService
	Feed        *service.FeedService
	Ledger      *service.LedgerService
	Collections *service.CollectionService
	Comments    *service.CommentService
	Alerts      *service.AlertService
	Index       IndexStats // optional
}
