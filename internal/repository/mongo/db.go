package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names shared by the repositories and index setup.
const (
	UsersCollection       = "users"
	GroupsCollection      = "groups"
	MembershipsCollection = "group_members"
	WorkoutsCollection    = "workouts"
	ExportsCollection     = "exports"
)

// ConnectDB establishes the single client used for the lifetime of the
// process. username/password are optional; when set they override any
// credential embedded in the URI.
func ConnectDB(uri, username, password string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	if username != "" {
		clientOptions.SetAuth(options.Credential{Username: username, Password: password})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// The initial connect can succeed against an unresponsive server, so
	// ping the primary before handing the client out.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := EnsureUserIndexes(ctx, db.Collection(UsersCollection)); err != nil {
		return err
	}
	if err := EnsureGroupIndexes(ctx, db.Collection(GroupsCollection), db.Collection(MembershipsCollection)); err != nil {
		return err
	}
	if err := EnsureWorkoutIndexes(ctx, db.Collection(WorkoutsCollection)); err != nil {
		return err
	}
	return EnsureExportIndexes(ctx, db.Collection(ExportsCollection))
}
