package mongo

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/airenas/speakhw/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//IndexData keeps index creation data
type IndexData struct {
	Table  string
	Field  string
	Unique bool
}

func newIndexData(table string, field string, unique bool) IndexData {
	return IndexData{Table: table, Field: field, Unique: unique}
}

//SessionProvider connects and provides session for mongo DB
type SessionProvider struct {
	client  *mongo.Client
	URL     string
	DB      string
	indexes []IndexData
	m       sync.Mutex // struct field mutex
}

//NewSessionProvider creates Mongo session provider
func NewSessionProvider() (*SessionProvider, error) {
	url := cmdapp.Config.GetString("mongo.url")
	if url == "" {
		return nil, errors.New("No Mongo url provided")
	}
	db := cmdapp.Config.GetString("mongo.db")
	if db == "" {
		db = defaultStore
	}
	return &SessionProvider{URL: url, DB: db, indexes: indexData}, nil
}

//Close closes mongo connection
func (sp *SessionProvider) Close() {
	sp.m.Lock()
	defer sp.m.Unlock()
	if sp.client != nil {
		ctx, cancel := mongoContext()
		defer cancel()
		cmdapp.LogIf(sp.client.Disconnect(ctx))
		sp.client = nil
	}
}

//Collection returns collection of the configured db
func (sp *SessionProvider) Collection(name string) (*mongo.Collection, error) {
	c, err := sp.getClient()
	if err != nil {
		return nil, err
	}
	return c.Database(sp.DB).Collection(name), nil
}

//Healthy checks if mongo is reachable
func (sp *SessionProvider) Healthy() error {
	c, err := sp.getClient()
	if err != nil {
		return err
	}
	ctx, cancel := mongoContext()
	defer cancel()
	return c.Ping(ctx, nil)
}

func (sp *SessionProvider) getClient() (*mongo.Client, error) {
	sp.m.Lock()
	defer sp.m.Unlock()

	if sp.client != nil {
		return sp.client, nil
	}
	cmdapp.Log.Info("Dial mongo: " + hidePass(sp.URL))
	ctx, cancel := mongoContext()
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(sp.URL))
	if err != nil {
		return nil, errors.Wrap(err, "Can't dial to mongo")
	}
	err = checkIndexes(ctx, client.Database(sp.DB), sp.indexes)
	if err != nil {
		cmdapp.LogIf(client.Disconnect(context.Background()))
		return nil, err
	}
	sp.client = client
	return sp.client, nil
}

func checkIndexes(ctx context.Context, db *mongo.Database, indexes []IndexData) error {
	for _, index := range indexes {
		_, err := db.Collection(index.Table).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: index.Field, Value: 1}},
			Options: options.Index().SetUnique(index.Unique),
		})
		if err != nil {
			return errors.Wrap(err, "Can't create index: "+index.Table+":"+index.Field)
		}
	}
	return nil
}

func mongoContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func hidePass(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		cmdapp.Log.Warn("Can't parse mongo url.")
		return ""
	}
	_, ps := u.User.Password()
	if ps {
		u.User = url.UserPassword(u.User.Username(), "----")
	}
	return u.String()
}

//sanitize drops characters that can turn a plain key into a query operator
func sanitize(s string) string {
	return strings.NewReplacer("$", "", "\x00", "").Replace(s)
}
