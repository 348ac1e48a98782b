package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// HTTP server
	Port       string
	TaskSecret string

	// Token endpoint (OAuth2 client credentials)
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string

	// Source data endpoint
	SourceURL     string
	SourceMethod  string
	SourceQuery   string
	PageSize      int
	SourceTimeout int // seconds

	// Destination mapping
	SchemasDir       string
	SchemaGroup      string
	UniqueIDField    string
	LogoBaseURL      string
	RankingOverrides string

	// Scheduling
	CronSpec string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
