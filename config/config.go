package config

import (
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/quantfield/hft-agent/pkg/strategy"
)

type TraderConfig struct {
	SentinelQty      int64         `yaml:"sentinel_qty"`
	BlockWindow      time.Duration `yaml:"block_window"`
	DefaultMarkPrice float64       `yaml:"default_mark_price"`
}

type AppConfig struct {
	ServiceName string   `yaml:"service_name"`
	Instruments []string `yaml:"instruments"`

	Trader       TraderConfig  `yaml:"trader"`
	EvalInterval time.Duration `yaml:"eval_interval"`

	Quoter        strategy.QuoterConfig        `yaml:"quoter"`
	LargeOrderArb strategy.LargeOrderArbConfig `yaml:"large_order_arb"`
	NetFlowArb    strategy.NetFlowArbConfig    `yaml:"net_flow_arb"`

	// EnableNetFlowArb keeps the flow follower off unless asked for.
	EnableNetFlowArb bool `yaml:"enable_net_flow_arb"`

	// LogBooks enables per-event book snapshots in the diagnostic sink.
	LogBooks     bool   `yaml:"log_books"`
	BookLogPath  string `yaml:"book_log_path"`
	TradeLogPath string `yaml:"trade_log_path"`
}

// Default returns the tuned parameter set the agent runs with when no
// config file is given.
func Default() *AppConfig {
	return &AppConfig{
		ServiceName: "hft-agent",
		Instruments: []string{"0"},
		Trader: TraderConfig{
			SentinelQty:      30000,
			BlockWindow:      time.Millisecond,
			DefaultMarkPrice: 100.0,
		},
		EvalInterval: 100 * time.Microsecond,
		Quoter: strategy.QuoterConfig{
			MinSpread:   0.20,
			Offset:      0.01,
			ClipQty:     100,
			PositionCap: 1000,
		},
		LargeOrderArb: strategy.LargeOrderArbConfig{
			SentinelQty: 30000,
			PriceOffset: 0.50,
			PositionCap: 2000,
		},
		NetFlowArb: strategy.NetFlowArbConfig{
			Threshold:   1000,
			Window:      time.Millisecond,
			PriceOffset: 0.01,
			ClipQty:     100,
			PositionCap: 2000,
		},
		BookLogPath:  "book.log",
		TradeLogPath: "trades.log",
	}
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := Default()

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}
