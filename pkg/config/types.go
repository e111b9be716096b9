package config

// Config is the main configuration struct, loaded from YAML and
// overridable via RECALL_* environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Engine    EngineConfig    `yaml:"engine"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// StorageConfig holds the pebble database location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// EngineConfig holds the context engine knobs. The thresholds are
// empirically chosen defaults, kept configurable rather than derived.
type EngineConfig struct {
	// AgentID/AgentName identify the agent's own participant across
	// conversations; classifiers treat the name as a stopword.
	AgentID   string `yaml:"agent_id"`
	AgentName string `yaml:"agent_name"`
	// MaxContextMessages is the retention cap per conversation log.
	MaxContextMessages int `yaml:"max_context_messages"`
	// MaxRelevantMessages caps the context window handed downstream.
	MaxRelevantMessages int `yaml:"max_relevant_messages"`
	// MaxCrossChatMessages caps excerpts mined from other conversations.
	MaxCrossChatMessages int `yaml:"max_cross_chat_messages"`
	// MaxTopicMessages caps topic-matched history pulls; each topic tag
	// contributes at most half of it.
	MaxTopicMessages        int     `yaml:"max_topic_messages"`
	FactConfidenceThreshold float64 `yaml:"fact_confidence_threshold"`
	ThreadTopK              int     `yaml:"thread_top_k"`
	// AliasMinScore is the floor below which a directory candidate is
	// treated as no match.
	AliasMinScore int `yaml:"alias_min_score"`
}

// SecurityConfig holds rate limit settings for the HTTP surface.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetentionConfig holds configuration for the periodic archive runner.
type RetentionConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Cron         string `yaml:"cron"`
	BatchSize    int    `yaml:"batch_size"`
	BatchSleepMs int    `yaml:"batch_sleep_ms"`
	DryRun       bool   `yaml:"dry_run"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	var c Config
	c.Server.Address = "127.0.0.1"
	c.Server.Port = 8080
	c.Storage.DBPath = "./data"
	c.Engine.AgentID = "agent"
	c.Engine.AgentName = "Qi"
	c.Engine.MaxContextMessages = 500
	c.Engine.MaxRelevantMessages = 20
	c.Engine.MaxCrossChatMessages = 10
	c.Engine.MaxTopicMessages = 10
	c.Engine.FactConfidenceThreshold = 0.75
	c.Engine.ThreadTopK = 2
	c.Engine.AliasMinScore = 2
	c.Security.RateLimit.RPS = 25
	c.Security.RateLimit.Burst = 50
	c.Logging.Level = "info"
	c.Retention.Cron = "0 2 * * *"
	c.Retention.BatchSize = 200
	return c
}
