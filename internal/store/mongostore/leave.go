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

type leaveDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      snapshotDoc        `bson:"user"`
	FromDate  string             `bson:"fromDate"`
	ToDate    string             `bson:"toDate"`
	Reason    string             `bson:"reason"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	DecidedAt *time.Time         `bson:"decidedAt,omitempty"`
}

func (d leaveDoc) model() model.LeaveRequest {
	req := model.LeaveRequest{
		ID:        d.ID.Hex(),
		User:      d.User.model(),
		FromDate:  d.FromDate,
		ToDate:    d.ToDate,
		Reason:    d.Reason,
		Status:    model.LeaveStatus(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.DecidedAt != nil {
		at := d.DecidedAt.UTC()
		req.DecidedAt = &at
	}
	return req
}

// Leave implements leave.Repository.
type Leave struct {
	coll *mongo.Collection
}

func (r *Leave) Insert(ctx context.Context, req model.LeaveRequest) (model.LeaveRequest, error) {
	doc := leaveDoc{
		ID:        primitive.NewObjectID(),
		User:      toSnapshotDoc(req.User),
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
		Reason:    req.Reason,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.LeaveRequest{}, fmt.Errorf("%w: leave already requested from %s", apperr.ErrConflict, req.FromDate)
		}
		return model.LeaveRequest{}, apperr.Store("mongostore.Leave.Insert", err)
	}
	req.ID = doc.ID.Hex()
	return req, nil
}

func (r *Leave) ListByEmail(ctx context.Context, email string) ([]model.LeaveRequest, error) {
	return r.find(ctx, "mongostore.Leave.ListByEmail", bson.M{"user.email": email})
}

func (r *Leave) ListAll(ctx context.Context) ([]model.LeaveRequest, error) {
	return r.find(ctx, "mongostore.Leave.ListAll", bson.M{})
}

func (r *Leave) SetStatus(ctx context.Context, id string, status model.LeaveStatus, decidedAt time.Time, onlyPending bool) (model.LeaveRequest, error) {
	const op = "mongostore.Leave.SetStatus"

	oid, err := objectID(id, "leave request")
	if err != nil {
		return model.LeaveRequest{}, err
	}
	filter := bson.M{"_id": oid}
	if onlyPending {
		filter["status"] = string(model.LeavePending)
	}
	update := bson.M{"$set": bson.M{"status": string(status), "decidedAt": decidedAt}}

	var doc leaveDoc
	err = r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) && onlyPending {
		return model.LeaveRequest{}, r.missOrDecided(ctx, oid)
	}
	if err != nil {
		return model.LeaveRequest{}, notFound(err, "leave request", op)
	}
	return doc.model(), nil
}

func (r *Leave) missOrDecided(ctx context.Context, oid primitive.ObjectID) error {
	var doc leaveDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return notFound(err, "leave request", "mongostore.Leave.SetStatus")
	}
	return fmt.Errorf("%w: leave request already %s", apperr.ErrConflict, doc.Status)
}

func (r *Leave) find(ctx context.Context, op string, filter bson.M) ([]model.LeaveRequest, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	var docs []leaveDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Store(op, err)
	}
	res := make([]model.LeaveRequest, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.model())
	}
	return res, nil
}
