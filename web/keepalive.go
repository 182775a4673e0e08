package web

import (
	"context"
	"time"

	"github.com/goliatone/go-logger/glog"
	"github.com/robfig/cron/v3"

	"github.com/yash-076/job-aggregator-web/client"
)

// KeepAlive pings the backend health endpoint on a cron spec so free-tier
// hosting does not idle the API out from under active users.
type KeepAlive struct {
	cron   *cron.Cron
	api    *client.API
	spec   string
	logger glog.Logger
}

// NewKeepAlive builds the pinger; spec is a robfig/cron expression such as
// "@every 10m".
func NewKeepAlive(api *client.API, spec string, logger glog.Logger) *KeepAlive {
	return &KeepAlive{
		cron:   cron.New(),
		api:    api,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the job and starts the scheduler. Runs one ping immediately
// so a cold backend starts warming before the first tick.
func (k *KeepAlive) Start() {
	if _, err := k.cron.AddFunc(k.spec, k.ping); err != nil {
		k.logger.Error("keepalive schedule", "spec", k.spec, "error", err)
		return
	}
	k.cron.Start()
	k.logger.Info("keepalive started", "spec", k.spec)

	go k.ping()
}

// Stop shuts the scheduler down; in-flight pings finish on their own.
func (k *KeepAlive) Stop() {
	k.cron.Stop()
	k.logger.Info("keepalive stopped")
}

func (k *KeepAlive) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := k.api.Health(ctx); err != nil {
		k.logger.Error("keepalive ping", "error", err)
		return
	}
	k.logger.Debug("keepalive ping ok")
}
