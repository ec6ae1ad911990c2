package config

import "time"

// RuleFileExtensions are all recognized rule file extensions
var RuleFileExtensions = []string{".yaml", ".yml"}

// Built-in function names available to guard and result expressions
const (
	LenFuncName    = "len"
	ShowFuncName   = "show"
	TypeOfFuncName = "typeOf"
)

// Wildcard spellings accepted in rule files and binding names
const (
	WildcardName = "_"
	DiscardName  = "discard"
)

// Service defaults
const (
	DefaultGRPCAddr     = ":7070"
	DefaultMetricsAddr  = ":9090"
	DefaultAuditDBPath  = "matchkit-audit.db"
	DefaultHistoryLimit = 20

	// ReloadDebounce collapses bursts of editor writes into one reload.
	ReloadDebounce = 200 * time.Millisecond
)

// Environment variables consulted when the matching flag is not given
const (
	EnvRules       = "MATCHKIT_RULES"
	EnvAddr        = "MATCHKIT_ADDR"
	EnvMetricsAddr = "MATCHKIT_METRICS_ADDR"
	EnvAuditDB     = "MATCHKIT_AUDIT_DB"
	EnvLogLevel    = "MATCHKIT_LOG_LEVEL"
)

// Metric names
const (
	MetricsNamespace = "matchkit"
)
