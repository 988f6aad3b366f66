// Package config holds the master server's configuration, loaded from a
// YAML file the same way the teacher loads its server configs:
// defaults-first struct, LoadMaster reads and overlays a file on top of
// the defaults, and a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Master holds all configuration for the master server.
type Master struct {
	// Network
	ListenAddress4 string `yaml:"listen_address4"` // "" disables the IPv4 listener
	ListenAddress6 string `yaml:"listen_address6"` // "" disables the IPv6 listener

	// AcceptedGames gates both infoResponses and getservers requests
	// (spec §4.5 step 8, §4.6 "GameAccepted gates the entire request").
	// Heartbeats are not checked against it.
	AcceptedGames []string `yaml:"accepted_games"`

	// DefaultGameName is substituted for gamename when a heartbeat's
	// infoResponse omits it (spec §4.5 step 7) and is the implicit
	// gamename for legacy getservers requests that parse as a bare
	// protocol integer (spec §4.6). "STEF2" matches the game this
	// protocol family's reference master server was built for.
	DefaultGameName string `yaml:"default_game_name"`

	// AddressMapPath points at the YAML file internal/addrmap loads.
	// Empty means no address rewriting.
	AddressMapPath string `yaml:"address_map_path"`

	// LegacyIPv4Encoding selects between this codebase's historical,
	// non-standard legacy IPv4 record encoding (two ASCII hex digits
	// per byte) and the standard raw-byte encoding. See spec §9.
	LegacyIPv4Encoding bool `yaml:"legacy_ipv4_encoding"`

	// ChallengeSource selects the challenge RNG: "secure" (crypto/rand,
	// the default) or "weak" (math/rand/v2, matching this codebase's
	// historical behavior). See spec §9.
	ChallengeSource string `yaml:"challenge_source"`

	// Timeouts. Zero means "use the spec default".
	ChallengeTTL time.Duration `yaml:"challenge_ttl"`
	LivenessTTL  time.Duration `yaml:"liveness_ttl"`

	// MaxServers bounds the registry; 0 means unbounded.
	MaxServers int `yaml:"max_servers"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// DefaultMaster returns Master config with sensible defaults.
func DefaultMaster() Master {
	return Master{
		ListenAddress4:     "0.0.0.0:27900",
		ListenAddress6:     "[::]:27900",
		AcceptedGames:      []string{"STEF2"},
		DefaultGameName:    "STEF2",
		LegacyIPv4Encoding: true,
		ChallengeSource:    "secure",
		ChallengeTTL:       2 * time.Second,
		LivenessTTL:        15 * time.Minute,
		LogLevel:           "info",
	}
}

// LoadMaster loads master server config from a YAML file. If the file
// doesn't exist, returns defaults.
func LoadMaster(path string) (Master, error) {
	cfg := DefaultMaster()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = DefaultMaster().ChallengeTTL
	}
	if cfg.LivenessTTL == 0 {
		cfg.LivenessTTL = DefaultMaster().LivenessTTL
	}

	return cfg, nil
}
