package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"technotes-api/internal/model"
)

// MemoryStore keeps every record in process memory. It backs local
// development (DATABASE_DRIVER=memory) and the router tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]model.User
	notes      map[string]model.Note
	tokens     map[string]model.RefreshTokenRecord
	nextTicket int64
	now        func() time.Time

	userRepo  *memoryUsers
	noteRepo  *memoryNotes
	tokenRepo *memoryTokens
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:      map[string]model.User{},
		notes:      map[string]model.Note{},
		tokens:     map[string]model.RefreshTokenRecord{},
		nextTicket: model.FirstTicket,
		now:        time.Now,
	}
	s.userRepo = &memoryUsers{s: s}
	s.noteRepo = &memoryNotes{s: s}
	s.tokenRepo = &memoryTokens{s: s}
	return s
}

func (s *MemoryStore) Users() UserRepository          { return s.userRepo }
func (s *MemoryStore) Notes() NoteRepository          { return s.noteRepo }
func (s *MemoryStore) RefreshTokens() TokenRepository { return s.tokenRepo }

func (s *MemoryStore) Health(context.Context) error { return nil }
func (s *MemoryStore) Close(context.Context) error  { return nil }

type memoryUsers struct{ s *MemoryStore }

func (r *memoryUsers) FindByID(_ context.Context, id string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memoryUsers) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *memoryUsers) ExistsByUsername(_ context.Context, username string, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.existsLocked(username, excludeID), nil
}

func (r *memoryUsers) existsLocked(username string, excludeID string) bool {
	for id, u := range r.s.users {
		if id != excludeID && strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

func (r *memoryUsers) List(context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *memoryUsers) Create(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[u.ID]; exists || r.existsLocked(u.Username, "") {
		return model.ErrDuplicate
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memoryUsers) Update(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[u.ID]; !exists {
		return model.ErrUserNotFound
	}
	if r.existsLocked(u.Username, u.ID) {
		return model.ErrDuplicate
	}
	stored := cloneUser(u)
	stored.CreatedAt = r.s.users[u.ID].CreatedAt
	r.s.users[u.ID] = stored
	return nil
}

func (r *memoryUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[id]; !exists {
		return model.ErrUserNotFound
	}
	delete(r.s.users, id)
	for tokenID, record := range r.s.tokens {
		if record.UserID == id {
			delete(r.s.tokens, tokenID)
		}
	}
	return nil
}

func (r *memoryUsers) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.users), nil
}

type memoryNotes struct{ s *MemoryStore }

func (r *memoryNotes) FindByID(_ context.Context, id string) (model.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notes[id]
	if !ok {
		return model.Note{}, model.ErrNoteNotFound
	}
	return n, nil
}

func (r *memoryNotes) ExistsByTitle(_ context.Context, title string, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.existsLocked(title, excludeID), nil
}

func (r *memoryNotes) existsLocked(title string, excludeID string) bool {
	for id, n := range r.s.notes {
		if id != excludeID && strings.EqualFold(n.Title, title) {
			return true
		}
	}
	return false
}

func (r *memoryNotes) List(_ context.Context, ownerID string) ([]model.NoteView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	views := make([]model.NoteView, 0, len(r.s.notes))
	for _, n := range r.s.notes {
		if ownerID != "" && n.User != ownerID {
			continue
		}
		views = append(views, model.NoteView{Note: n, Username: r.s.users[n.User].Username})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Ticket < views[j].Ticket })
	return views, nil
}

func (r *memoryNotes) Create(_ context.Context, n *model.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.notes[n.ID]; exists || r.existsLocked(n.Title, "") {
		return model.ErrDuplicate
	}
	n.Ticket = r.s.nextTicket
	r.s.nextTicket++
	r.s.notes[n.ID] = *n
	return nil
}

func (r *memoryNotes) Update(_ context.Context, n model.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, exists := r.s.notes[n.ID]
	if !exists {
		return model.ErrNoteNotFound
	}
	if r.existsLocked(n.Title, n.ID) {
		return model.ErrDuplicate
	}
	n.Ticket = existing.Ticket
	n.CreatedAt = existing.CreatedAt
	r.s.notes[n.ID] = n
	return nil
}

func (r *memoryNotes) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.notes[id]; !exists {
		return model.ErrNoteNotFound
	}
	delete(r.s.notes, id)
	return nil
}

func (r *memoryNotes) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, n := range r.s.notes {
		if n.User == userID {
			count++
		}
	}
	return count, nil
}

type memoryTokens struct{ s *MemoryStore }

func (r *memoryTokens) Store(_ context.Context, record model.RefreshTokenRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tokens[record.TokenID] = record
	return nil
}

func (r *memoryTokens) Validate(_ context.Context, tokenID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	record, ok := r.s.tokens[tokenID]
	if !ok || !record.ExpiresAt.After(r.s.now()) {
		return "", model.ErrTokenNotFound
	}
	return record.UserID, nil
}

func (r *memoryTokens) Revoke(_ context.Context, tokenID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[tokenID]; !ok {
		return model.ErrTokenNotFound
	}
	delete(r.s.tokens, tokenID)
	return nil
}

func (r *memoryTokens) RevokeAllForUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for tokenID, record := range r.s.tokens {
		if record.UserID == userID {
			delete(r.s.tokens, tokenID)
		}
	}
	return nil
}

func (r *memoryTokens) CleanExpired(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	now := r.s.now()
	for tokenID, record := range r.s.tokens {
		if !record.ExpiresAt.After(now) {
			delete(r.s.tokens, tokenID)
			removed++
		}
	}
	return removed, nil
}

func cloneUser(u model.User) model.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}
