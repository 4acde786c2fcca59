package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raflytch/prepwise-server/internal/domain"
	"github.com/raflytch/prepwise-server/pkg/apifilter"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const interviewCollection = "interviews"

type interviewMongoRepository struct {
	col *mongo.Collection
}

// NewInterviewMongoRepository stores interviews as documents with their
// questions embedded. It builds the listing and sweeper indexes up front.
func NewInterviewMongoRepository(ctx context.Context, db *mongo.Database) (domain.InterviewRepository, error) {
	col := db.Collection(interviewCollection)

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create interview indexes: %w", err)
	}

	return &interviewMongoRepository{col: col}, nil
}

func (r *interviewMongoRepository) Create(ctx context.Context, interview *domain.Interview) error {
	_, err := r.col.InsertOne(ctx, interview)
	return err
}

func (r *interviewMongoRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Interview, error) {
	var interview domain.Interview
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&interview); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &interview, nil
}

func (r *interviewMongoRepository) FindAll(ctx context.Context, q apifilter.Query) ([]domain.Interview, error) {
	bq, err := q.ToBSON(InterviewFilterSchema)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, bq.Filter, bq.FindOptions())
}

func (r *interviewMongoRepository) Count(ctx context.Context, q apifilter.Query) (int64, error) {
	bq, err := q.ToBSON(InterviewFilterSchema)
	if err != nil {
		return 0, err
	}
	return r.col.CountDocuments(ctx, bq.Filter)
}

func (r *interviewMongoRepository) FindByUserBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Interview, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "created_at", Value: bson.D{{Key: "$gte", Value: start}, {Key: "$lte", Value: end}}},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *interviewMongoRepository) FindInProgressCreatedBefore(ctx context.Context, before time.Time) ([]domain.Interview, error) {
	filter := bson.D{
		{Key: "status", Value: domain.InterviewStatusInProgress},
		{Key: "created_at", Value: bson.D{{Key: "$lt", Value: before}}},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *interviewMongoRepository) Update(ctx context.Context, interview *domain.Interview) error {
	filter := bson.D{{Key: "_id", Value: interview.ID}, {Key: "version", Value: interview.Version}}
	set := bson.D{
		{Key: "duration_left", Value: interview.DurationLeft},
		{Key: "status", Value: interview.Status},
		{Key: "answered", Value: interview.Answered},
		{Key: "questions", Value: interview.Questions},
		{Key: "updated_at", Value: interview.UpdatedAt},
		{Key: "completed_at", Value: interview.CompletedAt},
	}
	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}

	result, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.D{{Key: "_id", Value: interview.ID}})
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrRecordNotFound
		}
		return domain.ErrStaleRecord
	}

	interview.Version++
	return nil
}

func (r *interviewMongoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *interviewMongoRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]domain.Interview, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	interviews := make([]domain.Interview, 0)
	if err := cur.All(ctx, &interviews); err != nil {
		return nil, err
	}
	return interviews, nil
}
