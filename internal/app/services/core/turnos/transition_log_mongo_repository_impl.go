package turnos

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/exceptions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransitionLogMongoRepository keeps the append-only audit trail of turno
// status changes.
type TransitionLogMongoRepository struct {
	Collection *mongo.Collection
}

func NewTransitionLogMongoRepository(db *mongo.Client, dbName, collectionName string) contracts.TransitionLogRepository {
	return &TransitionLogMongoRepository{
		Collection: db.Database(dbName).Collection(collectionName),
	}
}

// EnsureIndexes creates the lookup index on turno_id and at.
func (repo *TransitionLogMongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := repo.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "turno_id", Value: 1}, {Key: "at", Value: 1}},
	})
	if err != nil {
		return exceptions.ErrMongoDBInsertDocument(err)
	}
	return nil
}

func (repo *TransitionLogMongoRepository) InsertTransition(ctx context.Context, entry *models.TransitionLog) error {
	_, err := repo.Collection.InsertOne(ctx, entry)
	if err != nil {
		return exceptions.ErrMongoDBInsertDocument(err)
	}
	return nil
}

func (repo *TransitionLogMongoRepository) FindTransitionsByTurnoID(ctx context.Context, turnoID string) ([]models.TransitionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cursor, err := repo.Collection.Find(ctx, bson.M{"turno_id": turnoID}, opts)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}

	history := make([]models.TransitionLog, 0)
	if err := cursor.All(ctx, &history); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return history, nil
}
