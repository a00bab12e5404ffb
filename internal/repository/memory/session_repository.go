package memory

import (
	"strconv"

	"github.com/patrickmn/go-cache"

	"ai-tripplanner-bot/pkg/store"
)

// SessionRepository keeps one Session per chat for the process lifetime.
// Sessions never expire; they are discarded only by an explicit Clear
// (the restart command) or process exit.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionRepository{
		cache: c,
	}
}

// GetOrCreate returns the chat's session, creating a fresh idle one on
// first contact.
func (r *SessionRepository) GetOrCreate(chatID int64) *store.Session {
	if x, found := r.cache.Get(key(chatID)); found {
		return x.(*store.Session)
	}
	session := store.NewSession(chatID)
	r.Save(session)
	return session
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(key(session.ChatID), session, cache.NoExpiration)
}

func (r *SessionRepository) Clear(chatID int64) {
	r.cache.Delete(key(chatID))
}

// All returns every live session, for the debug endpoint.
func (r *SessionRepository) All() []*store.Session {
	items := r.cache.Items()
	sessions := make([]*store.Session, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, item.Object.(*store.Session))
	}
	return sessions
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
