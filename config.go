package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the node's options and their defaults (spec §6),
// layered with viper the way a cobra-fronted Go service typically
// configures itself. Difficulty, DataDir, WalletFile, the listen and
// API addresses, and Debug are used when a node is assembled.
// MaxTxPerBlock, the gossip/cleanup intervals, PeerTimeout, MaxPeers,
// TargetBlockTime, RetargetWindow and DefaultFee are loaded but not
// read: the chain and gossip node use built-in constants with the same
// default values.
type Config struct {
	Difficulty      int           `mapstructure:"difficulty"`
	DataDir         string        `mapstructure:"data_dir"`
	WalletFile      string        `mapstructure:"wallet_file"`
	ListenHost      string        `mapstructure:"listen_host"`
	ListenPort      int           `mapstructure:"listen_port"`
	ApiHost         string        `mapstructure:"api_host"`
	ApiPort         int           `mapstructure:"api_port"`
	MaxTxPerBlock   int           `mapstructure:"max_tx_per_block"`
	GossipInterval  time.Duration `mapstructure:"gossip_interval"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	PeerTimeout     time.Duration `mapstructure:"peer_timeout"`
	MaxPeers        int           `mapstructure:"max_peers"`
	TargetBlockTime time.Duration `mapstructure:"target_block_time"`
	RetargetWindow  int           `mapstructure:"retarget_window"`
	DefaultFee      uint64        `mapstructure:"default_fee"`
	Debug           bool          `mapstructure:"debug"`
}

// LoadConfig layers defaults, an optional config file, and MAREA_*
// environment variables via viper.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("difficulty", 4)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("wallet_file", defaultWalletFile)
	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("listen_port", 9000)
	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 8080)
	v.SetDefault("max_tx_per_block", maxTxPerBlock)
	v.SetDefault("gossip_interval", gossipInterval)
	v.SetDefault("cleanup_interval", cleanupInterval)
	v.SetDefault("peer_timeout", peerTimeout)
	v.SetDefault("max_peers", maxPeers)
	v.SetDefault("target_block_time", defaultTargetTime)
	v.SetDefault("retarget_window", defaultRetargetWindow)
	v.SetDefault("default_fee", uint64(1)) // base units; spec default fee 0.0001 in float terms
	v.SetDefault("debug", false)

	v.SetEnvPrefix("marea")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &IOError{Reason: "read config file", Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &IOError{Reason: "parse configuration", Err: err}
	}
	return &cfg, nil
}
