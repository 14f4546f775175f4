package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"passwordHash"`
	Role           string             `bson:"role"`
	ProfilePicture string             `bson:"profilePicture,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d userDoc) model() model.User {
	return model.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Role:           model.Role(d.Role),
		ProfilePicture: d.ProfilePicture,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

// Users implements identity.Store.
type Users struct {
	coll *mongo.Collection
}

func (r *Users) Create(ctx context.Context, u model.User) (model.User, error) {
	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		return model.User{}, apperr.Store("mongostore.Users.Create", err)
	}
	u.ID = doc.ID.Hex()
	return u, nil
}

func (r *Users) ByEmail(ctx context.Context, email string) (model.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return model.User{}, notFound(err, "user", "mongostore.Users.ByEmail")
	}
	return doc.model(), nil
}

func (r *Users) ByID(ctx context.Context, id string) (model.User, error) {
	oid, err := objectID(id, "user")
	if err != nil {
		return model.User{}, err
	}
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.User{}, notFound(err, "user", "mongostore.Users.ByID")
	}
	return doc.model(), nil
}

func (r *Users) Update(ctx context.Context, u model.User) (model.User, error) {
	oid, err := objectID(u.ID, "user")
	if err != nil {
		return model.User{}, err
	}
	update := bson.M{"$set": bson.M{
		"name":           u.Name,
		"email":          u.Email,
		"passwordHash":   u.PasswordHash,
		"profilePicture": u.ProfilePicture,
		"updatedAt":      u.UpdatedAt,
	}}
	var doc userDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return model.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if err != nil {
		return model.User{}, notFound(err, "user", "mongostore.Users.Update")
	}
	return doc.model(), nil
}

func (r *Users) List(ctx context.Context) ([]model.User, error) {
	const op = "mongostore.Users.List"

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Store(op, err)
	}
	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}
