package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/arsalanrobotronics/famaserve-admin-backend/sessions"
)

var _ sessions.Store = (*SessionStore)(nil)

// SessionStore persists sessions and refresh grants in separate collections,
// bound by the grant's accessTokenId back-reference. Deleting a session
// always deletes its grant in the same call so a revoked session cannot be
// rotated back through a dangling grant.
type SessionStore struct {
	sessionsCol *mongo.Collection
	grantsCol   *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{
		sessionsCol: db.Collection(sessionsCollection),
		grantsCol:   db.Collection(refreshGrantsCollection),
	}
}

func (s *SessionStore) CreateSession(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if _, err := s.sessionsCol.InsertOne(ctx, sessionToDoc(session)); err != nil {
		return errors.Wrap(err, "[SessionStore.CreateSession] insert")
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*sessions.Session, error) {
	var doc sessionDoc
	if err := s.sessionsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sessions.ErrNotFound
		}
		return nil, errors.Wrap(err, "[SessionStore.GetSession] find")
	}
	return doc.toDomain(), nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.sessionsCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "[SessionStore.DeleteSession] delete session")
	}
	// Cascade regardless of the session delete outcome: a grant without a
	// session must never survive.
	if _, err := s.grantsCol.DeleteMany(ctx, bson.M{"accessTokenId": id}); err != nil {
		return errors.Wrap(err, "[SessionStore.DeleteSession] delete refresh grants")
	}
	if res.DeletedCount == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func (s *SessionStore) CountActive(ctx context.Context, accountID string) (int, error) {
	count, err := s.sessionsCol.CountDocuments(ctx, bson.M{
		"userId":    accountID,
		"revokedAt": nil,
	})
	if err != nil {
		return 0, errors.Wrap(err, "[SessionStore.CountActive] count")
	}
	return int(count), nil
}

func (s *SessionStore) CountActiveByChannel(ctx context.Context, accountID, channel string) (int, error) {
	count, err := s.sessionsCol.CountDocuments(ctx, bson.M{
		"userId":    accountID,
		"channel":   channel,
		"revokedAt": nil,
	})
	if err != nil {
		return 0, errors.Wrap(err, "[SessionStore.CountActiveByChannel] count")
	}
	return int(count), nil
}

func (s *SessionStore) OldestSession(ctx context.Context, accountID, channel string) (*sessions.Session, error) {
	var doc sessionDoc
	err := s.sessionsCol.FindOne(ctx,
		bson.M{"userId": accountID, "channel": channel, "revokedAt": nil},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[SessionStore.OldestSession] find")
	}
	return doc.toDomain(), nil
}

func (s *SessionStore) CreateRefreshGrant(ctx context.Context, grant *sessions.RefreshGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	if _, err := s.grantsCol.InsertOne(ctx, refreshGrantToDoc(grant)); err != nil {
		return errors.Wrap(err, "[SessionStore.CreateRefreshGrant] insert")
	}
	return nil
}

func (s *SessionStore) GetRefreshGrantByToken(ctx context.Context, token string) (*sessions.RefreshGrant, error) {
	var doc refreshGrantDoc
	if err := s.grantsCol.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sessions.ErrNotFound
		}
		return nil, errors.Wrap(err, "[SessionStore.GetRefreshGrantByToken] find")
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the lookup indexes the limiter and verifier lean on.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.sessionsCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "channel", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "[SessionStore.EnsureIndexes] sessions")
	}
	_, err = s.grantsCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "accessTokenId", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "[SessionStore.EnsureIndexes] refresh grants")
	}
	return nil
}
