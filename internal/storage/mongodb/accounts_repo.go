package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/arsalanrobotronics/famaserve-admin-backend/accounts"
)

var _ accounts.Repo = (*AccountRepo)(nil)

type AccountRepo struct {
	col *mongo.Collection
}

func NewAccountRepo(db *mongo.Database) *AccountRepo {
	return &AccountRepo{col: db.Collection(accountsCollection)}
}

func (r *AccountRepo) Create(ctx context.Context, account *accounts.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, accountToDoc(account)); err != nil {
		return errors.Wrap(err, "[AccountRepo.Create] insert")
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*accounts.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*accounts.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepo) findOne(ctx context.Context, filter bson.M) (*accounts.Account, error) {
	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accounts.ErrNotFound
		}
		return nil, errors.Wrap(err, "[AccountRepo.findOne] find")
	}
	return doc.toDomain(), nil
}

func (r *AccountRepo) List(ctx context.Context, offset, limit int) ([]*accounts.Account, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, errors.Wrap(err, "[AccountRepo.List] find")
	}
	defer cursor.Close(ctx)

	var accountList []*accounts.Account
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "[AccountRepo.List] decode")
		}
		accountList = append(accountList, doc.toDomain())
	}
	return accountList, cursor.Err()
}

func (r *AccountRepo) Update(ctx context.Context, id string, patch accounts.Patch) error {
	set := bson.M{"updatedAt": time.Now()}
	if patch.FullName != nil {
		set["fullName"] = *patch.FullName
	}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.PhoneNumber != nil {
		set["phoneNumber"] = *patch.PhoneNumber
	}
	if patch.RoleID != nil {
		set["roleId"] = *patch.RoleID
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.AvatarURL != nil {
		set["avatarUrl"] = *patch.AvatarURL
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "[AccountRepo.Update] update")
	}
	if res.MatchedCount == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) UpdateSecret(ctx context.Context, id string, hash string, history []string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"password":     hash,
			"oldPasswords": history,
			"updatedAt":    time.Now(),
		},
	})
	if err != nil {
		return errors.Wrap(err, "[AccountRepo.UpdateSecret] update")
	}
	if res.MatchedCount == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) IncrementLoginAttempts(ctx context.Context, id string) (int, error) {
	var doc accountDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"loginAttempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, accounts.ErrNotFound
		}
		return 0, errors.Wrap(err, "[AccountRepo.IncrementLoginAttempts] update")
	}
	return doc.LoginAttempts, nil
}

func (r *AccountRepo) SetLocked(ctx context.Context, id string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"lockedAt": at},
	})
	if err != nil {
		return errors.Wrap(err, "[AccountRepo.SetLocked] update")
	}
	if res.MatchedCount == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) ResetLockout(ctx context.Context, id string, loginAt time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"loginAttempts": 0, "loginAt": loginAt},
		"$unset": bson.M{"lockedAt": 1},
	})
	if err != nil {
		return errors.Wrap(err, "[AccountRepo.ResetLockout] update")
	}
	if res.MatchedCount == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"username": username,
		"_id":      bson.M{"$ne": excludeID},
	})
	if err != nil {
		return false, errors.Wrap(err, "[AccountRepo.UsernameTaken] count")
	}
	return count > 0, nil
}

func (r *AccountRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"email": email,
		"_id":   bson.M{"$ne": excludeID},
	})
	if err != nil {
		return false, errors.Wrap(err, "[AccountRepo.EmailTaken] count")
	}
	return count > 0, nil
}
