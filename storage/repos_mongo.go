package storage

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoOpTimeout = 10 * time.Second

func mongoCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mongoOpTimeout)
}

type mongoFact struct {
	ID            int64     `bson:"_id"`
	UUID          string    `bson:"uuid"`
	ChatID        string    `bson:"chat_id"`
	Mode          string    `bson:"mode"`
	Category      string    `bson:"category"`
	KeyName       string    `bson:"key_name"`
	Content       string    `bson:"content"`
	Context       string    `bson:"context,omitempty"`
	Importance    float64   `bson:"importance"`
	LastMentioned time.Time `bson:"last_mentioned"`
	DateCreated   time.Time `bson:"date_created"`
	DateUpdated   time.Time `bson:"date_updated,omitempty"`
}

func (m mongoFact) record() FactRecord {
	return FactRecord{
		ID:            m.ID,
		UUID:          m.UUID,
		ChatID:        m.ChatID,
		Mode:          m.Mode,
		Category:      m.Category,
		KeyName:       m.KeyName,
		Content:       m.Content,
		Context:       m.Context,
		Importance:    m.Importance,
		LastMentioned: m.LastMentioned,
		DateCreated:   m.DateCreated,
	}
}

type mongoFactRepo struct {
	db *mongo.Database
}

func (r *mongoFactRepo) coll() *mongo.Collection {
	return r.db.Collection("memweave_fact")
}

// nextSeq hands out monotonically increasing int64 ids from a counters
// collection, mirroring SQL autoincrement.
func (r *mongoFactRepo) nextSeq(ctx context.Context, name string) (int64, error) {
	counters := r.db.Collection("memweave_counters")
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

func (r *mongoFactRepo) scopeFilter(scope Scope) bson.M {
	return bson.M{"chat_id": scope.ChatID, "mode": scope.Mode}
}

func (r *mongoFactRepo) Insert(scope Scope, f FactRecord) (int64, error) {
	ctx, cancel := mongoCtx()
	defer cancel()

	f.Importance = clamp01(f.Importance)
	now := time.Now()

	filter := bson.M{
		"chat_id":  scope.ChatID,
		"mode":     scope.Mode,
		"category": f.Category,
		"key_name": f.KeyName,
	}

	var existing mongoFact
	err := r.coll().FindOne(ctx, filter).Decode(&existing)
	switch {
	case err == nil:
		merged := mergeLines(existing.Content, f.Content)
		importance := clamp01(existing.Importance)
		if f.Importance > importance {
			importance = f.Importance
		}
		_, err = r.coll().UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": bson.M{
			"content":        merged,
			"importance":     importance,
			"last_mentioned": now,
			"date_updated":   now,
		}})
		if err != nil {
			return 0, err
		}
		return existing.ID, nil
	case err != mongo.ErrNoDocuments:
		return 0, err
	}

	id, err := r.nextSeq(ctx, "memweave_fact")
	if err != nil {
		return 0, err
	}
	doc := mongoFact{
		ID:            id,
		UUID:          uuid.New().String(),
		ChatID:        scope.ChatID,
		Mode:          scope.Mode,
		Category:      f.Category,
		KeyName:       f.KeyName,
		Content:       f.Content,
		Context:       f.Context,
		Importance:    f.Importance,
		LastMentioned: now,
		DateCreated:   now,
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return 0, err
	}
	return id, nil
}

var mongoFactSort = bson.D{{Key: "importance", Value: -1}, {Key: "last_mentioned", Value: -1}}

func (r *mongoFactRepo) ListAll(scope Scope) ([]FactRecord, error) {
	ctx, cancel := mongoCtx()
	defer cancel()

	cur, err := r.coll().Find(ctx, r.scopeFilter(scope), options.Find().SetSort(mongoFactSort))
	if err != nil {
		return nil, err
	}
	return decodeFacts(ctx, cur)
}

func (r *mongoFactRepo) SearchByKeyword(scope Scope, keyword string, limit int) ([]FactRecord, error) {
	if keyword == "" || limit <= 0 {
		return nil, nil
	}
	ctx, cancel := mongoCtx()
	defer cancel()

	rx := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	filter := r.scopeFilter(scope)
	filter["$or"] = bson.A{
		bson.M{"key_name": rx},
		bson.M{"content": rx},
	}
	cur, err := r.coll().Find(ctx, filter,
		options.Find().SetSort(mongoFactSort).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	return decodeFacts(ctx, cur)
}

func (r *mongoFactRepo) DeleteByID(scope Scope, id int64) (bool, error) {
	ctx, cancel := mongoCtx()
	defer cancel()

	filter := r.scopeFilter(scope)
	filter["_id"] = id
	res, err := r.coll().DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoFactRepo) DeleteAllInScope(scope Scope) (int64, error) {
	ctx, cancel := mongoCtx()
	defer cancel()

	res, err := r.coll().DeleteMany(ctx, r.scopeFilter(scope))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoFactRepo) Count(scope Scope) (int64, error) {
	ctx, cancel := mongoCtx()
	defer cancel()

	return r.coll().CountDocuments(ctx, r.scopeFilter(scope))
}

func decodeFacts(ctx context.Context, cur *mongo.Cursor) ([]FactRecord, error) {
	defer cur.Close(ctx)
	var out []FactRecord
	for cur.Next(ctx) {
		var doc mongoFact
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.record())
	}
	return out, cur.Err()
}

type mongoUsageRepo struct {
	db *mongo.Database
}

func (r *mongoUsageRepo) coll() *mongo.Collection {
	return r.db.Collection("memweave_usage")
}

func (r *mongoUsageRepo) Record(scope Scope, promptTokens, completionTokens int64) error {
	ctx, cancel := mongoCtx()
	defer cancel()

	_, err := r.coll().InsertOne(ctx, bson.M{
		"uuid":              uuid.New().String(),
		"chat_id":           scope.ChatID,
		"mode":              scope.Mode,
		"prompt_tokens":     promptTokens,
		"completion_tokens": completionTokens,
		"date_created":      time.Now(),
	})
	return err
}

func (r *mongoUsageRepo) CleanupBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := mongoCtx()
	defer cancel()

	res, err := r.coll().DeleteMany(ctx, bson.M{"date_created": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
