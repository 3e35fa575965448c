package store

import (
	"context"
	"fmt"
	"time"

	"ticket-bot/config"
	"ticket-bot/ticket"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoStore struct {
	client  *mongo.Client
	tickets *mongo.Collection
	setup   *mongo.Collection
	counter *mongo.Collection
}

func newMongoStore(cfg *config.MongoDBConfig) (*mongoStore, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, fmt.Errorf("storage.mongodb.uri and storage.mongodb.database must be set to use driver=mongodb")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &mongoStore{
		client:  client,
		tickets: db.Collection("tickets"),
		setup:   db.Collection("ticket_setup"),
		counter: db.Collection("ticket_counter"),
	}

	s.tickets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "channel_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	// Seed the counter document so NextSequence can be a plain $inc.
	_, err = s.counter.UpdateOne(ctx,
		bson.M{"_id": "sequence"},
		bson.M{"$setOnInsert": bson.M{"value": 1}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("seed counter: %w", err)
	}
	return s, nil
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (s *mongoStore) Setup() (ticket.Setup, bool) {
	ctx, cancel := opCtx()
	defer cancel()

	var setup ticket.Setup
	err := s.setup.FindOne(ctx, bson.M{"_id": "setup"}).Decode(&setup)
	if err != nil {
		return ticket.Setup{}, false
	}
	return setup, true
}

func (s *mongoStore) SaveSetup(setup ticket.Setup) error {
	ctx, cancel := opCtx()
	defer cancel()

	_, err := s.setup.UpdateOne(ctx,
		bson.M{"_id": "setup"},
		bson.M{"$set": bson.M{
			"category_id":    setup.CategoryID,
			"log_channel_id": setup.LogChannelID,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (s *mongoStore) Ticket(channelID string) (ticket.Ticket, bool) {
	ctx, cancel := opCtx()
	defer cancel()

	var t ticket.Ticket
	err := s.tickets.FindOne(ctx, bson.M{"channel_id": channelID}).Decode(&t)
	if err != nil {
		return ticket.Ticket{}, false
	}
	return t, true
}

func (s *mongoStore) PutTicket(t ticket.Ticket) error {
	ctx, cancel := opCtx()
	defer cancel()

	_, err := s.tickets.ReplaceOne(ctx,
		bson.M{"channel_id": t.ChannelID},
		t,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *mongoStore) RemoveTicket(channelID string) error {
	ctx, cancel := opCtx()
	defer cancel()

	_, err := s.tickets.DeleteOne(ctx, bson.M{"channel_id": channelID})
	return err
}

func (s *mongoStore) Tickets() []ticket.Ticket {
	ctx, cancel := opCtx()
	defer cancel()

	cursor, err := s.tickets.Find(ctx, bson.M{})
	if err != nil {
		return nil
	}
	defer cursor.Close(ctx)

	var out []ticket.Ticket
	if err := cursor.All(ctx, &out); err != nil {
		return nil
	}
	return out
}

func (s *mongoStore) NextSequence() (int, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var doc struct {
		Value int `bson:"value"`
	}
	err := s.counter.FindOneAndUpdate(ctx,
		bson.M{"_id": "sequence"},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}

func (s *mongoStore) Close() error {
	ctx, cancel := opCtx()
	defer cancel()
	return s.client.Disconnect(ctx)
}
