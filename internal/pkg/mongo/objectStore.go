package mongo

import (
	"context"
	"time"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type objectRecord struct {
	Key         string    `bson:"key"`
	Data        []byte    `bson:"data"`
	ContentType string    `bson:"contentType"`
	Updated     time.Time `bson:"updated"`
}

// ObjectStore keeps objects as documents in mongo db
type ObjectStore struct {
	SessionProvider *SessionProvider
}

//NewObjectStore creates ObjectStore instance
func NewObjectStore(sessionProvider *SessionProvider) (*ObjectStore, error) {
	f := ObjectStore{SessionProvider: sessionProvider}
	return &f, nil
}

// Exists checks if the object is saved
func (ss *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	c, err := ss.SessionProvider.Collection(objectTable)
	if err != nil {
		return false, err
	}
	n, err := c.CountDocuments(ctx, bson.M{"key": sanitize(key)}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "Can't count %s", key)
	}
	return n > 0, nil
}

// Get retrieves object data
func (ss *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	c, err := ss.SessionProvider.Collection(objectTable)
	if err != nil {
		return nil, err
	}
	var res objectRecord
	err = c.FindOne(ctx, bson.M{"key": sanitize(key)}).Decode(&res)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.Wrap(storage.ErrNotFound, key)
		}
		return nil, errors.Wrapf(err, "Can't get %s", key)
	}
	return res.Data, nil
}

// Put saves or replaces the object
func (ss *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	cmdapp.Log.Debugf("Saving object %s", key)
	c, err := ss.SessionProvider.Collection(objectTable)
	if err != nil {
		return err
	}
	k := sanitize(key)
	err = c.FindOneAndUpdate(ctx, bson.M{"key": k},
		bson.M{"$set": bson.M{"key": k, "data": data, "contentType": contentType, "updated": time.Now().UTC()}},
		options.FindOneAndUpdate().SetUpsert(true)).Err()
	if err != nil && err != mongo.ErrNoDocuments {
		return errors.Wrapf(err, "Can't save %s", key)
	}
	return nil
}

// Healthy checks db connection
func (ss *ObjectStore) Healthy() error {
	return ss.SessionProvider.Healthy()
}
