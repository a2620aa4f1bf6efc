package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoMigrationOp struct {
	Collection string
	Index      mongo.IndexModel
}

var mongoMigrations = map[int][]mongoMigrationOp{
	1: {
		{"memweave_schema_version", mongo.IndexModel{
			Keys:    bson.D{{Key: "num", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"memweave_fact", mongo.IndexModel{
			Keys:    bson.D{{Key: "uuid", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"memweave_fact", mongo.IndexModel{
			Keys: bson.D{
				{Key: "chat_id", Value: 1}, {Key: "mode", Value: 1},
				{Key: "category", Value: 1}, {Key: "key_name", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		}},
		{"memweave_fact", mongo.IndexModel{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "mode", Value: 1}, {Key: "importance", Value: -1}},
			Options: options.Index().SetName("idx_memweave_fact_scope_rank"),
		}},
		{"memweave_fact", mongo.IndexModel{
			Keys:    bson.D{{Key: "key_name", Value: 1}},
			Options: options.Index().SetName("idx_memweave_fact_key_name"),
		}},
		{"memweave_usage", mongo.IndexModel{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "mode", Value: 1}},
			Options: options.Index().SetName("idx_memweave_usage_scope"),
		}},
		{"memweave_usage", mongo.IndexModel{
			Keys:    bson.D{{Key: "date_created", Value: 1}},
			Options: options.Index().SetName("idx_memweave_usage_created"),
		}},
	},
}

func (d *MongoDriver) migrateMongo(ctx context.Context) error {
	currentVersion := d.getSchemaVersion(ctx)
	maxVersion := 1 // Currently only version 1

	if currentVersion >= maxVersion {
		return nil
	}

	for v := currentVersion + 1; v <= maxVersion; v++ {
		ops, ok := mongoMigrations[v]
		if !ok {
			continue
		}

		for _, op := range ops {
			coll := d.db().Collection(op.Collection)
			_, err := coll.Indexes().CreateOne(ctx, op.Index)
			if err != nil {
				// Ignore duplicate index errors
				if !mongo.IsDuplicateKeyError(err) {
					return err
				}
			}
		}

		// Update schema version
		svColl := d.db().Collection("memweave_schema_version")
		_, err := svColl.ReplaceOne(
			ctx,
			bson.M{"num": currentVersion},
			bson.M{"num": v},
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return err
		}
		currentVersion = v
	}

	return nil
}

func (d *MongoDriver) getSchemaVersion(ctx context.Context) int {
	svColl := d.db().Collection("memweave_schema_version")
	var doc struct {
		Num int `bson:"num"`
	}
	err := svColl.FindOne(ctx, bson.M{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0
	}
	if err != nil {
		return 0
	}
	return doc.Num
}
