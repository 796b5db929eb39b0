package bootstrap

import (
	"context"
	"fmt"
	"log"

	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/migration"
	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/internal/repository/unitofwork"
	"prompt-manager-core/internal/service"
	"prompt-manager-core/internal/sharedrecord"
	"prompt-manager-core/pkg/blobstore"
	"prompt-manager-core/pkg/database"
	"prompt-manager-core/pkg/events"
	pktNats "prompt-manager-core/pkg/nats"
	"prompt-manager-core/pkg/remote"
	"prompt-manager-core/pkg/remote/gormstore"
	"prompt-manager-core/pkg/remote/memory"
	"prompt-manager-core/pkg/remote/redisstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	DB     *gorm.DB
	Engine *migration.Engine
	Logger logger.ILogger

	DeepLinkScheme string

	// Changes carries committed store changes on ChangeTopic.
	Changes     message.Subscriber
	ChangeTopic string

	PromptService  service.IPromptService
	SyncService    service.ISyncService
	ImportResolver *service.ImportResolver

	closers []func()
}

// NewMigrator opens the local store and the migration engine without running
// any stage. The caller decides when to call Open.
func NewMigrator(cfg *config.Config, log logger.ILogger) (*gorm.DB, *migration.Engine, error) {
	db, err := database.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open local store: %w", err)
	}
	return db, migration.NewEngine(db, migration.WithLogger(log)), nil
}

// NewContainer brings the local store up to date before any repository is
// handed out, then wires the remote side.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	// 1. Local store
	db, engine, err := NewMigrator(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	c.DB, c.Engine = db, engine
	c.closers = append(c.closers, closeDB(db))

	if err := engine.Open(ctx); err != nil {
		return nil, err
	}

	// 2. Change replication
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	c.Changes, c.ChangeTopic = pubSub, cfg.Events.ChangeTopic

	var forwarder service.ChangeForwarder
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	replicationLogger := logger.NewIsolatedLogger(cfg.Events.ReplicationLogPath)
	replication := service.NewReplicationService(pubSub, cfg.Events.ChangeTopic, forwarder, replicationLogger)
	if err := replication.Start(ctx); err != nil {
		return nil, fmt.Errorf("start replication: %w", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db,
		unitofwork.WithChangeSink(events.NewChangePublisher(pubSub, cfg.Events.ChangeTopic)),
		unitofwork.WithLogger(sysLogger),
	)

	// 3. Remote store
	blobs, err := newBlobStore(ctx, cfg.Assets)
	if err != nil {
		return nil, err
	}
	remoteStore, err := c.newRemoteStore(ctx, cfg.Remote, blobs)
	if err != nil {
		return nil, err
	}

	// 4. Services
	c.PromptService = service.NewPromptService(uowFactory, sysLogger)
	c.SyncService = service.NewSyncService(
		uowFactory,
		remoteStore,
		sharedrecord.NewMapper(cfg.Remote.RecordType),
		service.SyncOptions{
			TempDir:            cfg.Sync.TempDir,
			CleanupConcurrency: cfg.Sync.CleanupConcurrency,
			ListLimit:          cfg.Sync.ListLimit,
			Policy:             service.ConflictPolicyByName(cfg.Sync.ConflictPolicy),
		},
		sysLogger,
	)
	c.DeepLinkScheme = cfg.Sync.DeepLinkScheme
	c.ImportResolver = service.NewImportResolver(c.SyncService, cfg.Sync.DeepLinkScheme, sysLogger)

	ok = true
	return c, nil
}

func newBlobStore(ctx context.Context, cfg config.AssetConfig) (blobstore.Store, error) {
	switch cfg.Driver {
	case "local", "":
		local, err := blobstore.NewLocal(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return local, nil
	case "azure":
		az, err := blobstore.NewAzure(ctx, cfg.AzureConnectionString, cfg.AzureContainer)
		if err != nil {
			return nil, err
		}
		return az, nil
	default:
		return nil, fmt.Errorf("unsupported asset driver %q", cfg.Driver)
	}
}

func (c *Container) newRemoteStore(ctx context.Context, cfg config.RemoteConfig, blobs blobstore.Store) (remote.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case database.DriverSQLite, database.DriverPostgres:
		db, err := database.OpenQuiet(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		c.closers = append(c.closers, closeDB(db))

		store := gormstore.New(db, blobs, gormstore.WithSkipFunc(c.skipUnreadable))
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate remote store: %w", err)
		}
		return store, nil
	case "redis":
		rdb, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return redisstore.New(rdb, blobs, cfg.KeyPrefix, redisstore.WithSkipFunc(c.skipUnreadable)), nil
	default:
		return nil, fmt.Errorf("unsupported remote driver %q", cfg.Driver)
	}
}

func (c *Container) skipUnreadable(recordID string, err error) {
	c.Logger.Warn("RemoteStore", "Skipping unreadable remote record", map[string]interface{}{
		"record_id": recordID,
		"error":     err.Error(),
	})
}

func closeDB(db *gorm.DB) func() {
	return func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
