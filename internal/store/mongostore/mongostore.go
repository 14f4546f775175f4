// Package mongostore persists users, attendance and leave in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

const (
	usersCollection      = "users"
	attendanceCollection = "attendance"
	leaveCollection      = "leave_requests"
)

// Store owns the client and the three collections.
type Store struct {
	client     *mongo.Client
	users      *mongo.Collection
	attendance *mongo.Collection
	leave      *mongo.Collection
}

// Connect dials uri, pings and ensures unique indexes in database dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	const op = "mongostore.Connect"

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:     client,
		users:      db.Collection(usersCollection),
		attendance: db.Collection(attendanceCollection),
		leave:      db.Collection(leaveCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	if _, err := s.users.Indexes().CreateOne(ctx, unique(bson.D{{Key: "email", Value: 1}})); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.attendance.Indexes().CreateOne(ctx, unique(bson.D{{Key: "user.email", Value: 1}, {Key: "date", Value: 1}})); err != nil {
		return fmt.Errorf("attendance index: %w", err)
	}
	if _, err := s.leave.Indexes().CreateOne(ctx, unique(bson.D{{Key: "user.email", Value: 1}, {Key: "fromDate", Value: 1}})); err != nil {
		return fmt.Errorf("leave index: %w", err)
	}
	return nil
}

// Users exposes the credential store view.
func (s *Store) Users() *Users { return &Users{coll: s.users} }

// Attendance exposes the attendance repository view.
func (s *Store) Attendance() *Attendance { return &Attendance{coll: s.attendance} }

// Leave exposes the leave repository view.
func (s *Store) Leave() *Leave { return &Leave{coll: s.leave} }

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// objectID parses a hex id; anything else cannot name a stored document.
func objectID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return oid, nil
}

func notFound(err error, what, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return apperr.Store(op, err)
}

type snapshotDoc struct {
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

func toSnapshotDoc(s model.Snapshot) snapshotDoc { return snapshotDoc(s) }

func (d snapshotDoc) model() model.Snapshot { return model.Snapshot(d) }
