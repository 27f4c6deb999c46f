// Package logger provides a simple, thread-safe logging facility.
//
// Each log entry includes a timestamp, level, an optional id (usually the
// worker id such as "worker-7") and the message.
//
// # Basic Usage
//
//	logger.Info("", "Swarm started")
//	logger.Info(logger.WorkerID(7), "Connected to %s", addr)
//	logger.Error(logger.WorkerID(7), "Send failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("worker-1", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered. ParseLevel accepts the
// names used by the --log-level flag: debug, info, warn, error.
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
