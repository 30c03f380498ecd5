package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"technotes-api/internal/database"
	"technotes-api/internal/model"
)

const ticketCounterID = "noteTicket"

type MongoNoteRepository struct {
	notes    *mongo.Collection
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoNoteRepository(db *database.MongoDB) *MongoNoteRepository {
	return &MongoNoteRepository{
		notes:    db.Database.Collection(database.NotesCollection),
		users:    db.Database.Collection(database.UsersCollection),
		counters: db.Database.Collection(database.CountersCollection),
	}
}

func (r *MongoNoteRepository) FindByID(ctx context.Context, id string) (model.Note, error) {
	var n model.Note
	err := r.notes.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Note{}, model.ErrNoteNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("find note by id: %w", err)
	}
	return n, nil
}

func (r *MongoNoteRepository) ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error) {
	filter := bson.D{
		{Key: "title", Value: title},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
	}
	count, err := r.notes.CountDocuments(ctx, filter, options.Count().SetCollation(caseInsensitive).SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check note title exists: %w", err)
	}
	return count > 0, nil
}

func (r *MongoNoteRepository) List(ctx context.Context, ownerID string) ([]model.NoteView, error) {
	filter := bson.D{}
	if ownerID != "" {
		filter = bson.D{{Key: "user", Value: ownerID}}
	}

	cursor, err := r.notes.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "ticket", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	var notes []model.Note
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}

	usernames, err := r.usernames(ctx, ownerIDs(notes))
	if err != nil {
		return nil, err
	}
	return noteViews(notes, usernames), nil
}

// ownerIDs returns the distinct owners of notes in first-seen order.
func ownerIDs(notes []model.Note) []string {
	seen := make(map[string]struct{}, len(notes))
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		if _, ok := seen[n.User]; ok {
			continue
		}
		seen[n.User] = struct{}{}
		ids = append(ids, n.User)
	}
	return ids
}

// noteViews pairs notes with their owner's username; owners that no longer
// exist leave Username empty.
func noteViews(notes []model.Note, usernames map[string]string) []model.NoteView {
	views := make([]model.NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, model.NoteView{Note: n, Username: usernames[n.User]})
	}
	return views
}

func (r *MongoNoteRepository) usernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := r.users.Find(ctx,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}},
		options.Find().SetProjection(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("lookup note owners: %w", err)
	}

	var owners []struct {
		ID       string `bson:"_id"`
		Username string `bson:"username"`
	}
	if err := cursor.All(ctx, &owners); err != nil {
		return nil, fmt.Errorf("decode note owners: %w", err)
	}
	for _, o := range owners {
		out[o.ID] = o.Username
	}
	return out, nil
}

func (r *MongoNoteRepository) nextTicket(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: ticketCounterID}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next ticket: %w", err)
	}
	return ticketFromSeq(counter.Seq), nil
}

// ticketFromSeq maps the counter's 1-based sequence onto ticket numbers
// starting at model.FirstTicket.
func ticketFromSeq(seq int64) int64 {
	return model.FirstTicket - 1 + seq
}

func (r *MongoNoteRepository) Create(ctx context.Context, n *model.Note) error {
	ticket, err := r.nextTicket(ctx)
	if err != nil {
		return err
	}
	n.Ticket = ticket

	_, err = r.notes.InsertOne(ctx, n)
	return mongoWriteError("create note", err)
}

func (r *MongoNoteRepository) Update(ctx context.Context, n model.Note) error {
	res, err := r.notes.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: n.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "user", Value: n.User},
			{Key: "title", Value: n.Title},
			{Key: "text", Value: n.Text},
			{Key: "completed", Value: n.Completed},
			{Key: "updatedAt", Value: n.UpdatedAt},
		}}})
	if err != nil {
		return mongoWriteError("update note", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (r *MongoNoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.notes.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (r *MongoNoteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	count, err := r.notes.CountDocuments(ctx, bson.D{{Key: "user", Value: userID}})
	if err != nil {
		return 0, fmt.Errorf("count notes by user: %w", err)
	}
	return int(count), nil
}
