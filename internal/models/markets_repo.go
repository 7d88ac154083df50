package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MarketRepo interface {
	CreateMarket(ctx context.Context, market *Market) (*Market, error)
	UpdateMarket(ctx context.Context, id primitive.ObjectID, set bson.M) error
	DeleteMarket(ctx context.Context, id primitive.ObjectID) error
	ListUpcomingMarkets(ctx context.Context, since time.Time) ([]*Market, error)
	ListAllMarkets(ctx context.Context) ([]*Market, error)
	WatchMarkets(ctx context.Context) (<-chan MarketChange, error)
}

// MarketChange signals that the markets collection changed. A non-nil Err
// means the change stream failed and the watcher should surface the error
// and re-establish.
type MarketChange struct {
	Operation string
	Err       error
}

func (mdb *MongodbRepo) CreateMarket(ctx context.Context, market *Market) (*Market, error) {
	col, err := mdb.GetCollection(ctx, MarketsDbName, MarketsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if err := market.BeforeCreate(); err != nil {
		return nil, err
	}

	if _, err := col.InsertOne(ctx, market); err != nil {
		return nil, fmt.Errorf("error inserting market: %v", err)
	}

	return market, nil
}

func (mdb *MongodbRepo) UpdateMarket(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	col, err := mdb.GetCollection(ctx, MarketsDbName, MarketsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating market: %v", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("market %s not found: %w", id.Hex(), mongo.ErrNoDocuments)
	}

	return nil
}

// DeleteMarket is a hard delete. Deleting an id that no longer exists is a
// no-op success, per DeleteOne semantics.
func (mdb *MongodbRepo) DeleteMarket(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, MarketsDbName, MarketsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("error deleting market: %v", err)
	}
	return nil
}

// upcomingMarketsQuery selects active markets dated on or after the given
// boundary, ascending by date. The boundary is inclusive so a market dated
// exactly at start-of-today still shows.
func upcomingMarketsQuery(since time.Time) (bson.M, *options.FindOptions) {
	filter := bson.M{
		"date":      bson.M{"$gte": since},
		"is_active": true,
	}
	return filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
}

// allMarketsQuery selects every market, most recent date first. The admin
// view buckets past/today/upcoming itself.
func allMarketsQuery() (bson.M, *options.FindOptions) {
	return bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
}

func (mdb *MongodbRepo) ListUpcomingMarkets(ctx context.Context, since time.Time) ([]*Market, error) {
	filter, opts := upcomingMarketsQuery(since)
	return mdb.findMarkets(ctx, filter, opts)
}

func (mdb *MongodbRepo) ListAllMarkets(ctx context.Context) ([]*Market, error) {
	filter, opts := allMarketsQuery()
	return mdb.findMarkets(ctx, filter, opts)
}

func (mdb *MongodbRepo) findMarkets(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Market, error) {
	col, err := mdb.GetCollection(ctx, MarketsDbName, MarketsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding markets: %v", err)
	}
	defer cursor.Close(ctx)

	markets := []*Market{}
	for cursor.Next(ctx) {
		var m Market
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("error decoding market: %v", err)
		}
		markets = append(markets, &m)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return markets, nil
}

// WatchMarkets opens a change stream on the markets collection and relays
// one MarketChange per store-side insert/update/delete. The channel closes
// when the context is cancelled; a stream failure is delivered as a final
// MarketChange with Err set before the channel closes.
func (mdb *MongodbRepo) WatchMarkets(ctx context.Context) (<-chan MarketChange, error) {
	col, err := mdb.GetCollection(ctx, MarketsDbName, MarketsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	stream, err := col.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("error opening change stream: %v", err)
	}

	changes := make(chan MarketChange)
	go func() {
		defer close(changes)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var ev struct {
				OperationType string `bson:"operationType"`
			}
			if err := stream.Decode(&ev); err != nil {
				continue
			}
			select {
			case changes <- MarketChange{Operation: ev.OperationType}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case changes <- MarketChange{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return changes, nil
}
