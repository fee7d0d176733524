package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const roomsCollection = "rooms"

// RoomRepository answers existence checks against the rooms collection,
// which is owned by the room service.
type RoomRepository struct {
	coll *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{coll: db.Collection(roomsCollection)}
}

func (r *RoomRepository) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"room_id": roomID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count rooms: %w", err)
	}
	return n > 0, nil
}
