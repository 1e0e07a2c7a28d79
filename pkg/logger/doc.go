// Package logger builds configured log/slog loggers for feedkit components
// and provides typed attribute helpers for the domain's common log fields.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithDevelopment("feedkit"),
//	)
//
//	log.LogAttrs(ctx, slog.LevelInfo, "feed fetched",
//	    logger.Component("feed"),
//	    logger.QueryKey(key),
//	)
//
// Production defaults (JSON, info level) apply when no options are given.
// Attribute helpers return empty attrs for nil values, so call sites never
// need nil checks.
package logger
