package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"kitties/internal/kitty/events"
	kittymetrics "kitties/internal/kitty/metrics"
	"kitties/internal/kitty/service"
	"kitties/internal/kitty/store"
	"kitties/internal/platform/config"
	"kitties/internal/platform/health"
	"kitties/internal/platform/kafka"
	"kitties/internal/platform/postgres"
	"kitties/internal/platform/redis"
)

type backend struct {
	store service.Store
	tx    service.StoreTx
	db    *sql.DB
	ping  health.CheckFunc
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		pg := store.NewPostgresStore(db)
		return &backend{
			store: pg,
			tx:    store.NewPostgresTx(db),
			db:    db,
			ping:  pg.Ping,
			close: func() { _ = db.Close() },
		}, nil

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: store.NewRedisStore(client.Client, store.WithKeyPrefix(cfg.Redis.KeyPrefix)),
			tx:    store.NewShardedTx(),
			ping:  client.Health,
			close: func() { _ = client.Close() },
		}, nil

	case config.StoreMemory:
		log.Warn("using in-memory store; kitties are lost on restart")
		return &backend{
			store: store.NewInMemoryStore(),
			tx:    store.NewShardedTx(),
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

type publisher struct {
	publisher service.Publisher
	checks    map[string]health.CheckFunc
	close     func()
}

// openPublisher selects the event path. Kafka without an outbox goes through
// an async buffer so a broker failure never aborts a committed creation.
func openPublisher(ctx context.Context, g *errgroup.Group, cfg *config.Config, be *backend, log *slog.Logger, m *kittymetrics.Metrics) (*publisher, error) {
	if cfg.Events == config.EventsLog {
		return &publisher{publisher: events.NewLogSink(log), close: func() {}}, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if err := producer.EnsureTopic(ctx, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
		producer.Close()
		return nil, err
	}

	switch cfg.Events {
	case config.EventsKafka:
		async := events.NewAsyncPublisher(cfg.Outbox.Buffer,
			events.WithAsyncLogger(log),
			events.WithDropHook(m.IncrementEventsDropped),
		)
		worker := events.NewWorker(events.NewKafkaPublisher(producer, cfg.Kafka.Topic), async.Inbox(), log)
		g.Go(func() error { return worker.Run(ctx) })
		return &publisher{
			publisher: async,
			checks:    map[string]health.CheckFunc{"kafka": producer.Health},
			close:     producer.Close,
		}, nil

	case config.EventsOutbox:
		if be.db == nil {
			producer.Close()
			return nil, fmt.Errorf("outbox events require the postgres store")
		}
		relay := events.NewRelay(events.NewOutbox(be.db), producer, store.NewPostgresTx(be.db), cfg.Kafka.Topic,
			events.WithRelayInterval(cfg.Outbox.Interval),
			events.WithRelayBatchSize(cfg.Outbox.BatchSize),
			events.WithRelayLogger(log),
			events.WithRelayMetrics(m),
		)
		g.Go(func() error { return relay.Run(ctx) })
		return &publisher{
			publisher: events.NewOutbox(be.db),
			checks: map[string]health.CheckFunc{
				"kafka":        producer.Health,
				"outbox_relay": relay.Health,
			},
			close: producer.Close,
		}, nil
	}

	producer.Close()
	return nil, fmt.Errorf("unknown events sink %q", cfg.Events)
}
