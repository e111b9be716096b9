package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path (optional), applies RECALL_* env
// overrides on top and returns the effective config. Precedence:
// defaults < file < env. Flags are applied by the caller and win over
// everything.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays recognized RECALL_* environment variables.
func applyEnv(cfg *Config) {
	envStr("RECALL_ADDR", &cfg.Server.Address)
	envInt("RECALL_PORT", &cfg.Server.Port)
	envStr("RECALL_DB_PATH", &cfg.Storage.DBPath)
	envStr("RECALL_AGENT_ID", &cfg.Engine.AgentID)
	envStr("RECALL_AGENT_NAME", &cfg.Engine.AgentName)
	envInt("RECALL_MAX_CONTEXT_MESSAGES", &cfg.Engine.MaxContextMessages)
	envInt("RECALL_MAX_RELEVANT_MESSAGES", &cfg.Engine.MaxRelevantMessages)
	envInt("RECALL_MAX_CROSS_CHAT_MESSAGES", &cfg.Engine.MaxCrossChatMessages)
	envInt("RECALL_MAX_TOPIC_MESSAGES", &cfg.Engine.MaxTopicMessages)
	envFloat("RECALL_FACT_CONFIDENCE_THRESHOLD", &cfg.Engine.FactConfidenceThreshold)
	envInt("RECALL_THREAD_TOP_K", &cfg.Engine.ThreadTopK)
	envInt("RECALL_ALIAS_MIN_SCORE", &cfg.Engine.AliasMinScore)
	envStr("RECALL_LOG_LEVEL", &cfg.Logging.Level)
	envStr("RECALL_RETENTION_CRON", &cfg.Retention.Cron)
	if v := os.Getenv("RECALL_RETENTION_ENABLED"); v != "" {
		cfg.Retention.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Engine.MaxRelevantMessages <= 0 {
		return fmt.Errorf("engine.max_relevant_messages must be positive")
	}
	if c.Engine.MaxContextMessages < c.Engine.MaxRelevantMessages {
		return fmt.Errorf("engine.max_context_messages (%d) below max_relevant_messages (%d)",
			c.Engine.MaxContextMessages, c.Engine.MaxRelevantMessages)
	}
	if c.Engine.FactConfidenceThreshold < 0 || c.Engine.FactConfidenceThreshold > 1 {
		return fmt.Errorf("engine.fact_confidence_threshold out of range [0,1]")
	}
	if c.Engine.ThreadTopK <= 0 {
		return fmt.Errorf("engine.thread_top_k must be positive")
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// ParseCommandFlags registers and parses the standard command-line flags.
// It returns the raw values plus a set of flags explicitly provided, so
// callers can make flags win over file and env values.
func ParseCommandFlags() (addr, db, cfgPath string, set map[string]bool) {
	addrFlag := flag.String("addr", "", "listen address (host:port)")
	dbFlag := flag.String("db", "", "pebble database path")
	cfgFlag := flag.String("config", "", "path to YAML config")
	flag.Parse()
	set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrFlag, *dbFlag, *cfgFlag, set
}

// ResolveConfigPath picks the config file: explicit flag, then
// RECALL_CONFIG, then ./recall.yaml when present.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if v := os.Getenv("RECALL_CONFIG"); v != "" {
		return v
	}
	if _, err := os.Stat("recall.yaml"); err == nil {
		return "recall.yaml"
	}
	return ""
}
