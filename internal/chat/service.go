package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jeffgoval/massage/internal/feed"
	"github.com/jeffgoval/massage/internal/metrics"
	"github.com/jeffgoval/massage/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("chat not found")
	ErrNotPart  = errors.New("not a chat participant")
)

const (
	collectionChats    = "chats"
	collectionMessages = "messages"
)

type Service struct {
	repo     Repository
	feed     feed.Feed
	log      *slog.Logger
	location *time.Location
}

func NewService(repo Repository, feedBus feed.Feed, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		feed:     feedBus,
		log:      log,
		location: location,
	}
}

// GetOrCreate returns the single thread for the pair, creating it on first
// contact. When the create loses a race against a concurrent duplicate, the
// unique index rejects it and the winner is read back; the conflict is the
// expected resolution of the race, not an error.
func (s *Service) GetOrCreate(ctx context.Context, clientID, tenantID string) (Thread, error) {
	thread, err := s.repo.FindThread(ctx, clientID, tenantID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Thread{}, err
	}

	now := time.Now().In(s.location)
	thread = Thread{
		ID:              primitive.NewObjectID().Hex(),
		ClientID:        clientID,
		TenantID:        tenantID,
		LastMessage:     "",
		LastMessageTime: now,
		UnreadCount:     0,
		CreatedAt:       now,
	}

	createErr := s.repo.InsertThread(ctx, thread)
	if createErr == nil {
		s.publish(ctx, collectionChats, thread.ID, feed.ActionCreate, thread)
		return thread, nil
	}
	if !mongo.IsDuplicateKeyError(createErr) {
		return Thread{}, createErr
	}

	metrics.ChatConflictsResolved.Inc()
	winner, err := s.repo.FindThread(ctx, clientID, tenantID)
	if err != nil {
		return Thread{}, createErr
	}
	return winner, nil
}

// Get returns the thread if userID participates in it.
func (s *Service) Get(ctx context.Context, chatID, userID string) (Thread, error) {
	thread, err := s.repo.GetThread(ctx, chatID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Thread{}, ErrNotFound
		}
		return Thread{}, err
	}
	if !thread.Participant(userID) {
		return Thread{}, ErrNotPart
	}
	return thread, nil
}

// Send persists the message, then patches the thread's denormalized preview.
// The two writes have no transaction; a failed patch leaves the preview
// stale, which is tolerable because it is re-derivable from the messages.
func (s *Service) Send(ctx context.Context, chatID, senderID, content string) (Message, error) {
	thread, err := s.Get(ctx, chatID, senderID)
	if err != nil {
		return Message{}, err
	}

	now := time.Now().In(s.location)
	msg := Message{
		ID:        primitive.NewObjectID().Hex(),
		ChatID:    chatID,
		TenantID:  thread.TenantID,
		SenderID:  senderID,
		Content:   content,
		Type:      models.MessageTypeText,
		IsRead:    false,
		CreatedAt: now,
	}

	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return Message{}, err
	}
	metrics.MessagesSent.Inc()
	s.publish(ctx, collectionMessages, msg.ID, feed.ActionCreate, msg)

	if err := s.repo.PatchLastMessage(ctx, chatID, truncate(content, PreviewLen), now); err != nil {
		s.log.Warn("chat send: preview patch failed",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	} else {
		s.publish(ctx, collectionChats, chatID, feed.ActionUpdate, thread)
	}

	return msg, nil
}

// MarkRead flips the reader's unread messages and resets the thread counter.
// Calling it twice is a no-op the second time.
func (s *Service) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	thread, err := s.Get(ctx, chatID, readerID)
	if err != nil {
		return 0, err
	}

	flipped, err := s.repo.MarkRead(ctx, chatID, readerID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ResetUnread(ctx, chatID); err != nil {
		return flipped, err
	}
	if flipped > 0 {
		s.publish(ctx, collectionChats, chatID, feed.ActionUpdate, thread)
	}
	return flipped, nil
}

func (s *Service) Threads(ctx context.Context, userID, role string) ([]Thread, error) {
	return s.repo.ListThreads(ctx, userID, role == models.RoleProfessional)
}

func (s *Service) Messages(ctx context.Context, chatID, userID string, limit, offset int64) ([]Message, error) {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, chatID, limit, offset)
}

// Subscribe opens the message feed filtered to one thread, after checking
// the caller participates. The channel closes with ctx.
func (s *Service) Subscribe(ctx context.Context, chatID, userID string) (<-chan feed.Event, error) {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.feed.Subscribe(ctx, collectionMessages)
}

// Dedupe is the administrative repair for threads that predate the unique
// index: per (client, tenant) pair the earliest-created thread survives and
// the rest are deleted, then the index is re-ensured.
func (s *Service) Dedupe(ctx context.Context) (int, error) {
	threads, err := s.repo.AllThreads(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(threads))
	removed := 0
	for _, thread := range threads {
		key := thread.ClientID + "|" + thread.TenantID
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			continue
		}
		if err := s.repo.DeleteThread(ctx, thread.ID); err != nil {
			return removed, err
		}
		s.publish(ctx, collectionChats, thread.ID, feed.ActionDelete, thread)
		removed++
	}

	if err := s.repo.EnsureUniqueIndex(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *Service) publish(ctx context.Context, collection, docID, action string, payload any) {
	if err := s.feed.Publish(ctx, collection, docID, action, payload); err != nil {
		s.log.Warn("chat feed publish failed",
			slog.String("collection", collection),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
