package storage

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAdapter wraps an already-connected *mongo.Database. The caller
// owns the client lifecycle; the adapter never connects or disconnects.
type MongoAdapter struct {
	DB *mongo.Database
}

func (a *MongoAdapter) Dialect() string { return "mongodb" }

func isMongoDB(conn any) bool {
	_, ok := conn.(*mongo.Database)
	return ok
}

func newMongoAdapter(conn any) (Adapter, error) {
	db := conn.(*mongo.Database)
	return &MongoAdapter{DB: db}, nil
}
