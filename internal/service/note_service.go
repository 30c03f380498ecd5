package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"technotes-api/internal/event"
	"technotes-api/internal/model"
	"technotes-api/internal/repository"
	"technotes-api/internal/util"
	"technotes-api/pkg/apierror"
)

// NoteService scopes every operation to the caller: managers and admins act
// on all notes, everyone else only on notes assigned to them.
type NoteService struct {
	notes repository.NoteRepository
	users repository.UserRepository
	bus   event.Bus
	now   func() time.Time
}

func NewNoteService(notes repository.NoteRepository, users repository.UserRepository, bus event.Bus) *NoteService {
	return &NoteService{notes: notes, users: users, bus: bus, now: time.Now}
}

func (s *NoteService) List(ctx context.Context, cred model.Credential) ([]model.NoteView, error) {
	owner := cred.UserID
	if cred.IsManager() {
		owner = ""
	}

	notes, err := s.notes.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []model.NoteView{}
	}
	return notes, nil
}

func (s *NoteService) Create(ctx context.Context, cred model.Credential, req model.CreateNoteRequest) (model.Note, error) {
	title := util.SanitizeLine(req.Title, util.MaxTitleRunes)
	text := util.SanitizeText(req.Text, util.MaxTextRunes)
	if title == "" || text == "" {
		return model.Note{}, apierror.Validation("All fields are required", "title, text")
	}

	owner := req.User
	if owner == "" {
		owner = cred.UserID
	}
	if err := s.checkAssignee(ctx, cred, owner); err != nil {
		return model.Note{}, err
	}

	if err := s.ensureUniqueTitle(ctx, title, ""); err != nil {
		return model.Note{}, err
	}

	now := s.now().UTC()
	note := model.Note{
		ID:        uuid.NewString(),
		User:      owner,
		Title:     title,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.notes.Create(ctx, &note); err != nil {
		return model.Note{}, err
	}

	publish(s.bus, event.TypeNoteCreated, cred.UserID, map[string]any{"id": note.ID, "ticket": note.Ticket})
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, cred model.Credential, req model.UpdateNoteRequest) (model.Note, error) {
	title := util.SanitizeLine(req.Title, util.MaxTitleRunes)
	text := util.SanitizeText(req.Text, util.MaxTextRunes)
	if req.ID == "" || req.User == "" || title == "" || text == "" || req.Completed == nil {
		return model.Note{}, apierror.Validation("All fields are required", "id, user, title, text, completed")
	}

	note, err := s.notes.FindByID(ctx, req.ID)
	if err != nil {
		return model.Note{}, err
	}
	if !canAccess(cred, note) {
		return model.Note{}, model.ErrForbidden
	}
	if err := s.checkAssignee(ctx, cred, req.User); err != nil {
		return model.Note{}, err
	}

	if err := s.ensureUniqueTitle(ctx, title, note.ID); err != nil {
		return model.Note{}, err
	}

	note.User = req.User
	note.Title = title
	note.Text = text
	note.Completed = *req.Completed
	note.UpdatedAt = s.now().UTC()

	if err := s.notes.Update(ctx, note); err != nil {
		return model.Note{}, err
	}

	publish(s.bus, event.TypeNoteUpdated, cred.UserID, map[string]any{"id": note.ID, "completed": note.Completed})
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, cred model.Credential, id string) (model.Note, error) {
	if id == "" {
		return model.Note{}, apierror.Validation("Note ID required", "id")
	}

	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return model.Note{}, err
	}
	if !canAccess(cred, note) {
		return model.Note{}, model.ErrForbidden
	}

	if err := s.notes.Delete(ctx, note.ID); err != nil {
		return model.Note{}, err
	}

	publish(s.bus, event.TypeNoteDeleted, cred.UserID, map[string]any{"id": note.ID, "ticket": note.Ticket})
	return note, nil
}

func canAccess(cred model.Credential, note model.Note) bool {
	return cred.IsManager() || note.User == cred.UserID
}

// checkAssignee rejects assigning a note to another user without manager
// rights, and assigning it to a user that does not exist.
func (s *NoteService) checkAssignee(ctx context.Context, cred model.Credential, userID string) error {
	if userID != cred.UserID && !cred.IsManager() {
		return model.ErrForbidden
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.Validation("Assigned user does not exist", userID)
		}
		return err
	}
	return nil
}

func (s *NoteService) ensureUniqueTitle(ctx context.Context, title string, excludeID string) error {
	exists, err := s.notes.ExistsByTitle(ctx, title, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apierror.Conflict("Duplicate note title", title)
	}
	return nil
}
