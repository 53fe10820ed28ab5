// Package logger provides structured logging for flowkit services built on
// rs/zerolog.
//
// It exposes a package-level global logger for convenience plus instance
// loggers for components that want their own tags:
//
//	log := logger.New(&logger.Config{Level: "debug", Format: "console"}, "flowkitd")
//	log.WithComponent("saga").Info("step completed", logger.Fields(
//	    logger.FieldSagaStep, "create_workflow",
//	    logger.FieldWorkflowID, id,
//	))
package logger
