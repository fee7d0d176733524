package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/videocall/room-access/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository appends auth events to the audit collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	doc := bson.M{
		"kind":        string(event.Kind),
		"outcome":     event.Outcome,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.Subject != "" {
		doc["subject"] = event.Subject
	}
	if event.RoomID != "" {
		doc["room_id"] = event.RoomID
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	if event.RemoteAddr != "" {
		doc["remote_addr"] = event.RemoteAddr
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
