package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	defaultMongoDatabase = "blog"
	mongoCollection      = "posts"
)

// mongoPost is the document shape of a post in the posts collection.
type mongoPost struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Author  string             `bson:"author"`
	Title   string             `bson:"title"`
	Content string             `bson:"content"`
	Created time.Time          `bson:"created"`
}

func (d mongoPost) post() Post {
	return Post{
		ID:      d.ID.Hex(),
		Author:  d.Author,
		Title:   d.Title,
		Content: d.Content,
		Created: d.Created.UTC(),
	}
}

// Mongo stores posts as documents in a MongoDB collection. The database
// is taken from the connection string path and defaults to "blog".
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and verifies the server is reachable.
func OpenMongo(ctx context.Context, uri string) (*Mongo, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, wrap("open", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, wrap("open", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrap("ping", err)
	}
	coll := client.Database(dbName).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrap("ensure index", err)
	}
	return &Mongo{client: client, coll: coll}, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *Mongo) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	out := prepare(posts, func() string { return primitive.NewObjectID().Hex() })
	if len(out) == 0 {
		return out, nil
	}
	docs := make([]interface{}, len(out))
	for i, p := range out {
		docs[i] = toMongo(p)
	}
	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return nil, wrap("insert many", err)
	}
	return out, nil
}

func (m *Mongo) InsertOne(ctx context.Context, p Post) (Post, error) {
	p = prepare([]Post{p}, func() string { return primitive.NewObjectID().Hex() })[0]
	if _, err := m.coll.InsertOne(ctx, toMongo(p)); err != nil {
		return Post{}, wrap("insert one", err)
	}
	return p, nil
}

func (m *Mongo) FindAll(ctx context.Context) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, wrap("find all", err)
	}
	defer cur.Close(ctx)

	posts := []Post{}
	for cur.Next(ctx) {
		var d mongoPost
		if err := cur.Decode(&d); err != nil {
			return nil, wrap("find all", err)
		}
		posts = append(posts, d.post())
	}
	if err := cur.Err(); err != nil {
		return nil, wrap("find all", err)
	}
	return posts, nil
}

func (m *Mongo) FindOne(ctx context.Context) (*Post, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})
	return m.findOne(ctx, "find one", bson.D{}, opts)
}

func (m *Mongo) FindByID(ctx context.Context, id string) (*Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return m.findOne(ctx, "find by id", bson.D{{Key: "_id", Value: oid}})
}

func (m *Mongo) findOne(ctx context.Context, op string, filter bson.D, opts ...*options.FindOneOptions) (*Post, error) {
	var d mongoPost
	err := m.coll.FindOne(ctx, filter, opts...).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	p := d.post()
	return &p, nil
}

func (m *Mongo) UpdateByID(ctx context.Context, id string, fields Fields) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &NotFoundError{ID: id}
	}
	set := bson.D{}
	if fields.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *fields.Author})
	}
	if fields.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *fields.Title})
	}
	if fields.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *fields.Content})
	}
	var res *mongo.UpdateResult
	if len(set) == 0 {
		// $set with an empty document is rejected by the server.
		n, err := m.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
		if err != nil {
			return wrap("update by id", err)
		}
		res = &mongo.UpdateResult{MatchedCount: n}
	} else {
		res, err = m.coll.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: set}})
		if err != nil {
			return wrap("update by id", err)
		}
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

func (m *Mongo) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return wrap("delete by id", err)
}

func (m *Mongo) Count(ctx context.Context) (int, error) {
	n, err := m.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, wrap("count", err)
	}
	return int(n), nil
}

// DropAll drops the collection. Dropping also removes its indexes, so the
// created index is rebuilt straight away.
func (m *Mongo) DropAll(ctx context.Context) error {
	if err := m.coll.Drop(ctx); err != nil {
		return wrap("drop all", err)
	}
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created", Value: 1}},
	})
	return wrap("drop all", err)
}

func toMongo(p Post) mongoPost {
	oid, _ := primitive.ObjectIDFromHex(p.ID)
	return mongoPost{
		ID:      oid,
		Author:  p.Author,
		Title:   p.Title,
		Content: p.Content,
		Created: p.Created,
	}
}
