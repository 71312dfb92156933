package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/arsalanrobotronics/famaserve-admin-backend/roles"
)

var _ roles.Repo = (*RoleRepo)(nil)

type RoleRepo struct {
	col *mongo.Collection
}

func NewRoleRepo(db *mongo.Database) *RoleRepo {
	return &RoleRepo{col: db.Collection(rolesCollection)}
}

func (r *RoleRepo) Upsert(ctx context.Context, role *roles.Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	now := time.Now()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now

	_, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": role.ID},
		roleToDoc(role),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "[RoleRepo.Upsert] replace")
	}
	return nil
}

func (r *RoleRepo) Get(ctx context.Context, id string) (*roles.Role, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RoleRepo) GetByTitle(ctx context.Context, title string) (*roles.Role, error) {
	return r.findOne(ctx, bson.M{"title": title})
}

func (r *RoleRepo) findOne(ctx context.Context, filter bson.M) (*roles.Role, error) {
	var doc roleDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, roles.ErrNotFound
		}
		return nil, errors.Wrap(err, "[RoleRepo.findOne] find")
	}
	return doc.toDomain(), nil
}

func (r *RoleRepo) List(ctx context.Context, offset, limit int) ([]*roles.Role, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, errors.Wrap(err, "[RoleRepo.List] find")
	}
	defer cursor.Close(ctx)

	var roleList []*roles.Role
	for cursor.Next(ctx) {
		var doc roleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "[RoleRepo.List] decode")
		}
		roleList = append(roleList, doc.toDomain())
	}
	return roleList, cursor.Err()
}
