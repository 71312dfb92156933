package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/arsalanrobotronics/famaserve-admin-backend/audit"
)

var _ audit.Recorder = (*AuditRecorder)(nil)

type AuditRecorder struct {
	col *mongo.Collection
}

func NewAuditRecorder(db *mongo.Database) *AuditRecorder {
	return &AuditRecorder{col: db.Collection(auditCollection)}
}

func (r *AuditRecorder) Record(ctx context.Context, event audit.Event) error {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.col.InsertOne(ctx, bson.M{
		"_id":       uuid.New().String(),
		"userId":    event.AccountID,
		"roleId":    event.RoleID,
		"userIp":    event.IP,
		"module":    event.Module,
		"action":    event.Action,
		"data":      event.Data,
		"createdAt": at,
	})
	if err != nil {
		return errors.Wrap(err, "[AuditRecorder.Record] insert")
	}
	return nil
}
