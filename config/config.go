package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything a node needs at startup. Defaults come from
// viper and can be overridden through COLLAGE_* environment variables; the
// two phase timeouts default to the protocol's 6 seconds.
type Config struct {
	Port   string
	NodeID string

	// Peers maps node ids to addresses. For a participant it holds the
	// single coordinator entry.
	Peers map[string]string

	LogDir      string
	MetricsAddr string

	PhaseOneTimeout time.Duration
	PhaseTwoTimeout time.Duration
	SendTimeout     time.Duration
	RecoverPoll     time.Duration
}

func NewConfig() *Config {
	v := viper.New()

	v.SetDefault("log_dir", "log")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("phase_one_timeout", 6*time.Second)
	v.SetDefault("phase_two_timeout", 6*time.Second)
	v.SetDefault("send_timeout", 3*time.Second)
	v.SetDefault("recover_poll", 50*time.Millisecond)

	v.SetEnvPrefix("collage")
	v.AutomaticEnv()

	return &Config{
		Peers:           make(map[string]string),
		LogDir:          v.GetString("log_dir"),
		MetricsAddr:     v.GetString("metrics_addr"),
		PhaseOneTimeout: v.GetDuration("phase_one_timeout"),
		PhaseTwoTimeout: v.GetDuration("phase_two_timeout"),
		SendTimeout:     v.GetDuration("send_timeout"),
		RecoverPoll:     v.GetDuration("recover_poll"),
	}
}

// ParsePeers parses a comma separated list of "id=host:port" pairs.
func ParsePeers(peers string) map[string]string {
	peerList := make(map[string]string)

	for _, peer := range strings.Split(peers, ",") {
		peer = strings.TrimSpace(peer)
		if peer == "" {
			continue
		}

		idx := strings.Index(peer, "=")
		if idx <= 0 {
			continue
		}

		peerList[peer[:idx]] = peer[idx+1:]
	}

	return peerList
}
