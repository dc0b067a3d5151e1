package cron_config

type Config struct {
	// Heartbeat status log, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Processed-message ledger pruning, daily at midnight
	CronScheduleLedgerPrune string `env:"CRON_SCHEDULE_LEDGER_PRUNE" envDefault:"0 0 0 * * *"`
}
