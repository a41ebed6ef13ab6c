package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/deployer/internal/cli"
	"github.com/shaiso/deployer/internal/config"
	"github.com/shaiso/deployer/internal/domain"
	"github.com/shaiso/deployer/internal/mq"
	"github.com/shaiso/deployer/internal/orchestrator"
	"github.com/shaiso/deployer/internal/repo"
	"github.com/shaiso/deployer/internal/telemetry"
	"github.com/shaiso/deployer/internal/transport"
)

const pushJob = "deployer"

// dependencies — опциональные интеграции: журнал, события, метрики.
//
// Недоступная интеграция логируется и отключается, release выполняется без неё.
type dependencies struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics

	pool     *pgxpool.Pool
	journal  orchestrator.Journal
	history  cli.History
	mqConn   *mq.Connection
	notifier orchestrator.Notifier
}

func newDependencies(ctx context.Context, s config.Settings, dryRun bool, logger *slog.Logger) *dependencies {
	d := &dependencies{logger: logger, registry: prometheus.NewRegistry()}
	d.metrics = telemetry.NewMetrics(d.registry)

	if s.DBURL != "" {
		d.connectJournal(ctx, s.DBURL, dryRun)
	}

	// В dry-run события не публикуются
	if s.RabbitMQURL != "" && !dryRun {
		d.connectEvents(ctx, s.RabbitMQURL)
	}

	return d
}

func (d *dependencies) connectJournal(ctx context.Context, dsn string, dryRun bool) {
	pool, err := repo.NewPool(ctx, dsn)
	if err != nil {
		d.logger.Warn("release journal not available", "error", err)
		return
	}

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		d.logger.Warn("release journal not available", "error", err)
		pool.Close()
		return
	}

	releases := repo.NewReleaseRepo(pool)
	d.pool = pool
	d.history = releases

	// В dry-run журнал только читается
	if !dryRun {
		d.journal = releases
	}

	d.logger.Debug("release journal connected")
}

func (d *dependencies) connectEvents(ctx context.Context, url string) {
	conn, err := mq.NewConnection(url, d.logger)
	if err != nil {
		d.logger.Warn("RabbitMQ not available, release events disabled", "error", err)
		return
	}

	if err := mq.SetupTopology(ctx, conn); err != nil {
		d.logger.Warn("failed to setup topology, release events disabled", "error", err)
		conn.Close()
		return
	}

	d.mqConn = conn
	d.notifier = mq.NewPublisher(conn, d.logger)
}

// transportFactory возвращает фабрику SSH или dry-run транспорта.
func (d *dependencies) transportFactory(s config.Settings, dryRun bool) cli.TransportFactory {
	return func(env *domain.Environment) (transport.Transport, error) {
		if dryRun {
			return transport.NewDryRun(s.Shell, d.logger), nil
		}

		ssh, err := transport.NewSSH(transport.Config{
			User:            env.User,
			Port:            s.SSHPort,
			KeyFile:         s.SSHKey,
			AgentSocket:     s.AgentSocket,
			KnownHosts:      s.KnownHosts,
			InsecureHostKey: s.InsecureHostKey,
			Shell:           s.Shell,
			DialTimeout:     s.DialTimeout,
			Logger:          d.logger,
		})
		if err != nil {
			return nil, err
		}
		return ssh, nil
	}
}

func (d *dependencies) orchestratorConfig(s config.Settings) orchestrator.Config {
	return orchestrator.Config{
		Journal:  d.journal,
		Notifier: d.notifier,
		Metrics:  d.metrics,
		Parallel: s.Parallel,
		Logger:   d.logger,
	}
}

// pushMetrics отправляет метрики в Pushgateway, если он настроен.
func (d *dependencies) pushMetrics(ctx context.Context, s config.Settings) {
	if s.PushgatewayURL == "" {
		return
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := telemetry.Push(pushCtx, s.PushgatewayURL, pushJob, d.registry); err != nil {
		d.logger.Warn("failed to push metrics", "error", err)
	}
}

// Close закрывает соединения интеграций.
func (d *dependencies) Close() {
	if d.mqConn != nil {
		if err := d.mqConn.Close(); err != nil {
			d.logger.Warn("failed to close RabbitMQ connection", "error", err)
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
}
