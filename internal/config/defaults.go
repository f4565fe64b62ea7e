package config

// Accepted enumeration values.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"

	StyleSideways = "sideways"
	StyleBranches = "branches"

	ReportTable = "table"
	ReportJSON  = "json"
	ReportYAML  = "yaml"
)

// Default configuration values.
const (
	DefaultLogLevel             = "info"
	DefaultLogFormat            = LogFormatText
	DefaultRenderStyle          = StyleSideways
	DefaultRenderColor          = true
	DefaultRenderIndent         = 10
	DefaultHibernationThreshold = 0
	DefaultShellPrompt          = "> "
	DefaultShellEcho            = false
	DefaultSampleRatio          = 1.0
	DefaultReportFormat         = ReportTable
)
