package service

import (
	"context"
	"sync"
	"testing"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/localcircle/localcircle-server/internal/location"
	"github.com/localcircle/localcircle-server/internal/logger"
	"github.com/localcircle/localcircle-server/internal/sse"
	"github.com/localcircle/localcircle-server/internal/store"
	"github.com/localcircle/localcircle-server/internal/validation"
	"github.com/stretchr/testify/require"
)

var (
	nyc      = geo.Point{Lat: 40.7128, Lng: -74.0060}
	brooklyn = geo.Point{Lat: 40.6782, Lng: -73.9442}
	london   = geo.Point{Lat: 51.5074, Lng: -0.1278}

	alice = domain.Actor{UserID: "user-alice", Name: "Alice", Locality: "Manhattan"}
	bob   = domain.Actor{UserID: "user-bob", Name: "Bob", Locality: "Brooklyn"}
	carol = domain.Actor{UserID: "user-carol", Name: "Carol"}
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	if e, ok := event.(sse.Event); ok {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingEmitter) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type fixture struct {
	store  *store.Store
	events *recordingEmitter

	posts       *PostService
	ledger      *LedgerService
	collections *CollectionService
	comments    *CommentService
	alerts      *AlertService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	events := &recordingEmitter{}
	st, err := store.NewInMemory(logger.Discard(), events)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logger.Discard()
	return &fixture{
		store:       st,
		events:      events,
		posts:       NewPostService(st, nil, validation.New(), log),
		ledger:      NewLedgerService(st, log),
		collections: NewCollectionService(st, log),
		comments:    NewCommentService(st, log),
		alerts:      NewAlertService(st, log),
	}
}

func (f *fixture) post(t *testing.T, author domain.Actor, title string, at geo.Point) *domain.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), author, CreatePostInput{
		Title:    title,
		Body:     title + " body",
		Category: domain.CategoryCoffee,
	}, location.Fixed(at))
	require.NoError(t, err)
	return p
}

func (f *fixture) reload(t *testing.T, postID string) *domain.Post {
	t.Helper()
	p, err := f.store.GetPost(context.Background(), postID)
	require.NoError(t, err)
	return p
}

func (f *fixture) inbox(t *testing.T, userID string) domain.AlertInbox {
	t.Helper()
	inbox, err := f.alerts.Inbox(context.Background(), userID)
	require.NoError(t, err)
	return inbox
}

func alertTypes(inbox domain.AlertInbox) []domain.AlertType {
	out := make([]domain.AlertType, len(inbox.Alerts))
	for i, a := range inbox.Alerts {
		out[i] = a.Type
	}
	return out
}
