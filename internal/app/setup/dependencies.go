package setup

import (
	"fmt"
	"log/slog"

	"github.com/brickfoundation/referral-service/internal/config"
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/kafka"
	"github.com/brickfoundation/referral-service/internal/infrastructure/linksigner"
	"github.com/brickfoundation/referral-service/internal/infrastructure/memory"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	"github.com/brickfoundation/referral-service/internal/infrastructure/migrate"
	"github.com/brickfoundation/referral-service/internal/infrastructure/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config     *config.ReferralConfig
	Log        *slog.Logger
	DB         *gorm.DB
	Store      domain.Store
	Events     domain.EventPublisher
	Publisher  *kafka.DefaultKafkaPublisher
	Subscriber domain.SubscriberPort
	Signer     *linksigner.Signer
	Registry   *prometheus.Registry
	Metrics    *metrics.ReferralMetrics
}

// InitializeDependencies opens the configured store, runs migrations for
// postgres and connects kafka when it is enabled.
func InitializeDependencies(cfg *config.ReferralConfig, log *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Log: log}

	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		deps.Store = memory.NewStore(domain.DefaultTiers())
	default:
		db := postgres.MustInitDB(cfg)
		if err := migrate.RunMigrations(db, cfg.ReferralDB.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		deps.DB = db
		deps.Store = postgres.NewStore(db)
	}

	if cfg.Kafka.Enabled {
		deps.Publisher = kafka.NewDefaultKafkaPublisher(cfg.Kafka.Brokers, log)
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(cfg.Kafka.Brokers)
		deps.Events = kafka.NewReferralEventPublisher(deps.Publisher, cfg.Kafka.NotificationTopic, cfg.Kafka.InvitationTopic)
	} else {
		deps.Events = kafka.NewLogEventPublisher(log)
	}

	signer, err := linksigner.New(cfg.LinkSigning.Secret, cfg.LinkSigning.TokenTTL, cfg.LinkSigning.ShareBaseURL)
	if err != nil {
		return nil, fmt.Errorf("link signer: %w", err)
	}
	deps.Signer = signer

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewReferralMetrics(deps.Registry)

	return deps, nil
}

// Close releases the kafka writer and the database pool.
func (d *Dependencies) Close() error {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Log.Error("failed to close kafka publisher", "error", err)
		}
	}
	if d.DB != nil {
		sqlDB, err := d.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
