package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/phillip-england/tipsheet/internal/envutil"
)

// Environment variables read by SettingsFromEnv.
const (
	EnvAddr         = "TIPSHEET_ADDR"
	EnvUploadDir    = "TIPSHEET_UPLOAD_DIR"
	EnvCleanupDelay = "TIPSHEET_CLEANUP_DELAY"
	EnvMaxUploadMB  = "TIPSHEET_MAX_UPLOAD_MB"
	EnvAccessHash   = "TIPSHEET_ACCESS_HASH"
	EnvHistoryDB    = "TIPSHEET_HISTORY_DB"
	EnvPolicy       = "TIPSHEET_POLICY"
	EnvLogLevel     = "TIPSHEET_LOG_LEVEL"
)

const (
	DefaultAddr         = ":5000"
	DefaultUploadDir    = "temp_uploads"
	DefaultCleanupDelay = 5 * time.Minute
	DefaultMaxUploadMB  = 16
	DefaultLogLevel     = "info"

	// HistoryOff disables run history when used as TIPSHEET_HISTORY_DB.
	HistoryOff = "off"
)

// Settings are the process-level knobs taken from the environment.
type Settings struct {
	Addr           string
	UploadDir      string
	CleanupDelay   time.Duration
	MaxUploadBytes int64
	AccessHash     string
	// HistoryPath is empty when history is disabled.
	HistoryPath string
	PolicyPath  string
	LogLevel    string
}

func SettingsFromEnv() (Settings, error) {
	delay, err := envutil.Duration(EnvCleanupDelay, DefaultCleanupDelay)
	if err != nil {
		return Settings{}, err
	}
	if delay < 0 {
		return Settings{}, fmt.Errorf("%s must not be negative", EnvCleanupDelay)
	}
	maxMB, err := envutil.Int(EnvMaxUploadMB, DefaultMaxUploadMB)
	if err != nil {
		return Settings{}, err
	}
	if maxMB <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive", EnvMaxUploadMB)
	}

	history := envutil.OrDefault(EnvHistoryDB, DefaultHistoryPath())
	if strings.EqualFold(history, HistoryOff) {
		history = ""
	}

	return Settings{
		Addr:           envutil.OrDefault(EnvAddr, DefaultAddr),
		UploadDir:      envutil.OrDefault(EnvUploadDir, DefaultUploadDir),
		CleanupDelay:   delay,
		MaxUploadBytes: int64(maxMB) << 20,
		AccessHash:     envutil.OrDefault(EnvAccessHash, ""),
		HistoryPath:    history,
		PolicyPath:     envutil.OrDefault(EnvPolicy, DefaultPolicyPath()),
		LogLevel:       envutil.OrDefault(EnvLogLevel, DefaultLogLevel),
	}, nil
}
