package params

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	ListenAddr  string
	LogFile     string
	MarketsFile string
}

type Fees struct {
	// Default fee policy for markets created without an explicit config.
	FeeBps      uint64
	FeeReceiver string
}

type Config struct {
	Server Server
	Fees   Fees
}

func Default() Config {
	return Config{
		Server: Server{
			ListenAddr:  ":8080",
			LogFile:     "data/openbookd.log",
			MarketsFile: "markets.yaml",
		},
		Fees: Fees{
			FeeBps:      30, // 0.3%
			FeeReceiver: "fee_pool",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.Server.LogFile = logFile
	}
	if marketsFile := os.Getenv("MARKETS_FILE"); marketsFile != "" {
		cfg.Server.MarketsFile = marketsFile
	}
	if bps := os.Getenv("FEE_BPS"); bps != "" {
		if v, err := strconv.ParseUint(bps, 10, 64); err == nil {
			cfg.Fees.FeeBps = v
		}
	}
	if recv := os.Getenv("FEE_RECEIVER"); recv != "" {
		cfg.Fees.FeeReceiver = recv
	}

	return cfg
}

// MarketDef is one market entry in the markets YAML file. Zero fee fields
// fall back to the process-wide defaults.
type MarketDef struct {
	Name        string `yaml:"name"`
	FeeBps      uint64 `yaml:"fee_bps"`
	FeeReceiver string `yaml:"fee_receiver"`
}

type marketsFile struct {
	Markets []MarketDef `yaml:"markets"`
}

// LoadMarkets reads market definitions from a YAML file.
func LoadMarkets(path string) ([]MarketDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markets file: %w", err)
	}

	var f marketsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse markets file: %w", err)
	}

	for i, m := range f.Markets {
		if m.Name == "" {
			return nil, fmt.Errorf("markets file: entry %d has no name", i)
		}
	}
	return f.Markets, nil
}
