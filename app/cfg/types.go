package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ProfilesDir       string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Relevance oracle configuration
	GeminiAPIKey        string
	GeminiModel         string
	RelevanceBatchSize  int
	RelevanceBatchDelay int // seconds between oracle batches

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
