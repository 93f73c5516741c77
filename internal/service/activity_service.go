package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"adminhub/internal/model"
	"adminhub/internal/realtime"
	"adminhub/internal/repository"

	"github.com/google/uuid"
)

// ActivityUser is the expanded acting-user sub-object on feed payloads
type ActivityUser struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type ActivityResponse struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	User       *ActivityUser `json:"user,omitempty"`
	Action     string        `json:"action"`
	Resource   string        `json:"resource"`
	EntityID   string        `json:"entity_id"`
	EntityName string        `json:"entity_name"`
	Details    string        `json:"details"`
	CreatedAt  string        `json:"created_at"`
}

// ActivityRecorder is the write-side surface other services depend on.
type ActivityRecorder interface {
	Record(ctx context.Context, actorID, action, resource, entityID, entityName string, details interface{})
}

// ActivityService is the activity log: paginated history plus the change
// feed the realtime layer subscribes to. It implements realtime.Store.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, page, limit int) ([]ActivityResponse, int64, error)
	SubscribeToCollectionChanges(ctx context.Context, collection string, handler realtime.ChangeHandler) (func(), error)
	GetRecordWithExpansion(ctx context.Context, collection, id string) (map[string]interface{}, error)
}

type activityService struct {
	repo repository.ActivityRepository

	mu      sync.Mutex
	nextSub int
	subs    map[int]*changeSub
}

// changeSub is one registered subscriber: a buffered queue drained by a
// single goroutine, so events reach the handler in commit order even
// when handling one of them is slow.
type changeSub struct {
	events chan realtime.RawEvent
}

const changeQueueSize = 64

// NewActivityService creates a new ActivityService instance
func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{
		repo: repo,
		subs: make(map[int]*changeSub),
	}
}

// Record writes one activity entry and notifies change subscribers.
// Best-effort: a logging failure must never fail the operation being
// logged.
func (s *activityService) Record(ctx context.Context, actorID, action, resource, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.ActivityLog{
		Action:     action,
		Resource:   resource,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	if actorID != "" {
		if parsed, err := uuid.Parse(actorID); err == nil {
			entry.UserID = &parsed
		}
	}

	if err := s.repo.Log(ctx, &entry); err != nil {
		log.Printf("activity: failed to record %s: %v", action, err)
		return
	}

	s.notify(realtime.RawEvent{
		Collection: realtime.ActivityCollection,
		Action:     "create",
		RecordID:   entry.ID.String(),
		Record:     rawRecord(&entry),
	})
}

func (s *activityService) List(ctx context.Context, page, limit int) ([]ActivityResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ActivityResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toActivityResponse(l))
	}
	return res, total, nil
}

// SubscribeToCollectionChanges registers a handler for every change
// committed to the collection. Only the activity collection is watchable.
// The handler runs on a dedicated goroutine fed by a per-subscriber
// queue: invocations are sequential and follow commit order.
func (s *activityService) SubscribeToCollectionChanges(_ context.Context, collection string, handler realtime.ChangeHandler) (func(), error) {
	if collection != realtime.ActivityCollection {
		return nil, fmt.Errorf("unsupported collection %q", collection)
	}

	sub := &changeSub{events: make(chan realtime.RawEvent, changeQueueSize)}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	go func() {
		for evt := range sub.events {
			handler(evt)
		}
	}()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub.events)
		}
		s.mu.Unlock()
	}
	return cancel, nil
}

// GetRecordWithExpansion re-fetches an entry with its acting user loaded.
func (s *activityService) GetRecordWithExpansion(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	if collection != realtime.ActivityCollection {
		return nil, fmt.Errorf("unsupported collection %q", collection)
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	record := rawRecord(entry)
	if entry.User != nil {
		record["user"] = map[string]interface{}{
			"name":       entry.User.Name,
			"avatar_url": entry.User.AvatarURL,
		}
	}
	return record, nil
}

// notify enqueues the event on every subscriber's queue. Enqueue only:
// the handlers re-fetch and broadcast, which must not delay the caller,
// and the per-subscriber drain goroutine keeps delivery in commit order.
// Enqueue and close both happen under the lock, so a cancelled
// subscription can never be written to. A full queue drops the event
// with a log line rather than stalling the write path.
func (s *activityService) notify(evt realtime.RawEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub.events <- evt:
		default:
			log.Printf("activity: subscriber queue full, dropping change event %s", evt.RecordID)
		}
	}
}

// rawRecord is the un-expanded payload shape, also used as the fallback
// when expansion fails.
func rawRecord(entry *model.ActivityLog) map[string]interface{} {
	var details interface{}
	if entry.Details != "" {
		if err := json.Unmarshal([]byte(entry.Details), &details); err != nil {
			details = entry.Details
		}
	}

	record := map[string]interface{}{
		"id":          entry.ID.String(),
		"action":      entry.Action,
		"resource":    entry.Resource,
		"entity_id":   entry.EntityID,
		"entity_name": entry.EntityName,
		"details":     details,
		"created_at":  entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.UserID != nil {
		record["user_id"] = entry.UserID.String()
	}
	return record
}

func toActivityResponse(l model.ActivityLog) ActivityResponse {
	res := ActivityResponse{
		ID:         l.ID.String(),
		Action:     l.Action,
		Resource:   l.Resource,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if l.UserID != nil {
		res.UserID = l.UserID.String()
	}
	if l.User != nil {
		res.User = &ActivityUser{Name: l.User.Name, AvatarURL: l.User.AvatarURL}
	}
	return res
}
