// Package jobs provides scheduled background tasks for the marketplace engine.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. OutboxRelayJob - Runs every second to publish committed lifecycle events to Kafka
// 2. SettlementJob - Runs every minute to complete delivered orders whose settlement window elapsed
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager, err := jobs.NewJobManager(relayHandler, settleHandler, jobs.DefaultConfig(), logger)
//	if err != nil {
//		log.Fatal("Failed to create jobs:", err)
//	}
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Ticks are skipped while the previous run of the same job is still going, so a
// slow broker never stacks relay runs. Every run gets its own timeout.
//
// # Error Handling
//
// Failed runs are logged and counted in the marketplace.jobs.failures metric.
// The relay records publish failures on the message itself and retries it with
// backoff; only storage errors fail a relay run.
package jobs
