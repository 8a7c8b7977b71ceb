// Package sawmill provides a pluggable logging pipeline: one logger fans
// events out to a terminal sink, an hour-rotated file sink, and a batched
// Slack sink, all sharing a single event-construction core.
//
// Quick start:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, err := sawmill.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Close(context.Background())
//
//	logger.Info(ctx, "service started")
//	logger.Error(ctx, sawmill.NewAppError("DB_CONN", "connect failed", err))
//
// Logging calls never return errors and never panic; delivery problems are
// reported on a diagnostic side channel. The Logger is safe for concurrent
// use. Create once, reuse across requests.
package sawmill
