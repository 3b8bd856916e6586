package backend

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/events"
	"finledger/internal/events/kafka"
	"finledger/internal/log"
	"finledger/internal/services"
	gsheet "finledger/internal/sheets/google"
	"finledger/internal/storage"
	"finledger/internal/storage/postgres"
	"finledger/internal/store"
	"finledger/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend builds the base store, then layers event publishing and the
// listing cache on top when configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	fail := func(err error) (*Result, error) {
		_ = runClosers(closers)
		return nil, err
	}

	base, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	if c, ok := base.(io.Closer); ok {
		closers = append(closers, c.Close)
	}
	var s store.Store = base

	if config.Events != NoEvents {
		pub, err := f.createPublisher(ctx, config)
		if err != nil {
			// Writes still succeed without events.
			f.logger.Warn("Failed to initialize event publisher, continuing without events",
				log.FieldError, err,
				"events", config.Events)
		} else {
			closers = append(closers, pub.Close)
			s = services.NewTransactionService(s, pub, f.logger)
		}
	}

	if config.CacheSize > 0 {
		lists := cache.NewLRUCache[[]core.Transaction](config.CacheSize, config.CacheTTL)
		manager := cache.NewManager(f.logger)
		manager.Register(lists)
		manager.StartCleanup(config.CacheTTL)
		closers = append(closers, func() error {
			st := lists.Stats()
			f.logger.Debug("Listing cache closed",
				"hits", st.Hits,
				"misses", st.Misses,
				"evictions", st.Evictions)
			return manager.Stop()
		})
		s = store.NewCached(s, lists)
	}

	if ctx.Err() != nil {
		return fail(ctx.Err())
	}

	f.logger.Info("Initialized backend",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, config.Type,
		"events", config.Events,
		"cache_size", config.CacheSize)

	return &Result{
		Store:   s,
		Cleanup: func() error { return runClosers(closers) },
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case MemoryBackend:
		s, err := memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory store: %w", err)
		}
		return s, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case PostgresBackend:
		s, err := postgres.Open(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		return s, nil
	case SheetsBackend:
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			SheetName:          config.GoogleSheetName,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) (events.Publisher, error) {
	switch config.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case KafkaEvents:
		return kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic, f.logger), nil
	default:
		return events.Nop{}, nil
	}
}

// CreateSubscriber implements Factory.CreateSubscriber
func (f *DefaultFactory) CreateSubscriber(ctx context.Context, config Config) (events.Subscriber, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			return nil, fmt.Errorf("connect event stream: %w", err)
		}
		return client, nil
	case KafkaEvents:
		return kafka.NewSubscriber(config.KafkaBrokers, config.KafkaTopic, config.KafkaGroupID, f.logger), nil
	default:
		return nil, fmt.Errorf("no event stream configured (events backend %q)", config.Events)
	}
}

// runClosers releases resources concurrently and reports the first failure.
func runClosers(closers []func() error) error {
	var g errgroup.Group
	for _, c := range closers {
		g.Go(c)
	}
	return g.Wait()
}
