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

type attendanceDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      snapshotDoc        `bson:"user"`
	Date      string             `bson:"date"`
	Time      string             `bson:"time"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d attendanceDoc) model() model.AttendanceRecord {
	return model.AttendanceRecord{
		ID:        d.ID.Hex(),
		User:      d.User.model(),
		Date:      d.Date,
		Time:      d.Time,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Attendance implements attendance.Repository.
type Attendance struct {
	coll *mongo.Collection
}

func (r *Attendance) Insert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	doc := attendanceDoc{
		ID:        primitive.NewObjectID(),
		User:      toSnapshotDoc(rec.User),
		Date:      rec.Date,
		Time:      rec.Time,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.AttendanceRecord{}, fmt.Errorf("%w: attendance already marked for %s", apperr.ErrConflict, rec.Date)
		}
		return model.AttendanceRecord{}, apperr.Store("mongostore.Attendance.Insert", err)
	}
	rec.ID = doc.ID.Hex()
	return rec, nil
}

func (r *Attendance) ByID(ctx context.Context, id string) (model.AttendanceRecord, error) {
	oid, err := objectID(id, "attendance record")
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	var doc attendanceDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.AttendanceRecord{}, notFound(err, "attendance record", "mongostore.Attendance.ByID")
	}
	return doc.model(), nil
}

func (r *Attendance) ListByEmail(ctx context.Context, email string) ([]model.AttendanceRecord, error) {
	return r.find(ctx, "mongostore.Attendance.ListByEmail", bson.M{"user.email": email})
}

func (r *Attendance) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	return r.find(ctx, "mongostore.Attendance.ListAll", bson.M{})
}

func (r *Attendance) Update(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	oid, err := objectID(rec.ID, "attendance record")
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	update := bson.M{"$set": bson.M{
		"user": toSnapshotDoc(rec.User),
		"date": rec.Date,
		"time": rec.Time,
	}}
	var doc attendanceDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return model.AttendanceRecord{}, fmt.Errorf("%w: attendance already marked for %s", apperr.ErrConflict, rec.Date)
	}
	if err != nil {
		return model.AttendanceRecord{}, notFound(err, "attendance record", "mongostore.Attendance.Update")
	}
	return doc.model(), nil
}

func (r *Attendance) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, "attendance record")
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Store("mongostore.Attendance.Delete", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: attendance record", apperr.ErrNotFound)
	}
	return nil
}

func (r *Attendance) find(ctx context.Context, op string, filter bson.M) ([]model.AttendanceRecord, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	var docs []attendanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Store(op, err)
	}
	res := make([]model.AttendanceRecord, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.model())
	}
	return res, nil
}
