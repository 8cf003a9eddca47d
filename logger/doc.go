// Package logger provides structured logging for powerflow using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Flow runs attach their
// run ID through the context so every line of one run can be correlated.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.GetGlobalLogger().WithComponent("flow")
//	log.Info("unit finished", logger.Fields("unit", "init_design", "status", "success"))
package logger
