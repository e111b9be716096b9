package main

import (
	"context"
	"log"
	"net"
	"strconv"

	"github.com/joho/godotenv"

	"recall/internal/app"
	"recall/pkg/banner"
	"recall/pkg/config"
	"recall/pkg/logger"
)

// build metadata, set via ldflags during release
var (
	version = "dev"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// flags win over config file and env
	if setFlags["addr"] && addrVal != "" {
		cfg.Server.Address, cfg.Server.Port = splitAddr(addrVal, cfg.Server.Port)
	}
	if setFlags["db"] && dbVal != "" {
		cfg.Storage.DBPath = dbVal
	}

	logger.Init(cfg.Logging.Level)
	defer logger.Sync()

	banner.Print(cfg.Addr(), cfg.Storage.DBPath, cfg.Engine.AgentName, version)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// splitAddr parses host:port, keeping the existing port when addr
// carries none.
func splitAddr(addr string, defPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defPort
	}
	p, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defPort
	}
	return host, p
}
