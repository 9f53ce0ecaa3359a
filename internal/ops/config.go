package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"streamfolio/internal/model"
	"streamfolio/internal/quote"
	"streamfolio/internal/status"
	"streamfolio/pkg/websocket"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Stream  StreamConfig `json:"stream"`
	API     APIConfig    `json:"api"`
	Quotes  QuoteConfig  `json:"quotes"`
	Symbols []string     `json:"symbols"`
}

// StreamConfig describes the price-update channel.
type StreamConfig struct {
	URL                   string `json:"url"`
	ReconnectDelaySeconds int    `json:"reconnectDelaySeconds"`
	PingSeconds           int    `json:"pingSeconds"`
	ExponentialBackoff    *bool  `json:"exponentialBackoff"`
}

// APIConfig describes the snapshot/status collaborator endpoints.
type APIConfig struct {
	BaseURL               string `json:"baseUrl"`
	StatusIntervalSeconds int    `json:"statusIntervalSeconds"`
}

// QuoteConfig captures quote store tuning.
type QuoteConfig struct {
	FlashMillis int `json:"flashMillis"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	StreamURL      string
	Backoff        websocket.Backoff
	PingInterval   time.Duration
	APIBaseURL     string
	StatusInterval time.Duration
	FlashInterval  time.Duration
	Symbols        []string
}

// Load reads a JSON config file and resolves defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a FileConfig and fills in the reference defaults: flat
// 3s reconnect delay, 30s status polls, 500ms direction flash.
func Resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Stream.URL == "" {
		return Loaded{}, errors.Errorf("stream url is empty")
	}
	if cfg.API.BaseURL == "" {
		return Loaded{}, errors.Errorf("api baseUrl is empty")
	}
	if cfg.Stream.ReconnectDelaySeconds < 0 {
		return Loaded{}, errors.Errorf("reconnectDelaySeconds must be >= 0")
	}
	if cfg.Quotes.FlashMillis < 0 {
		return Loaded{}, errors.Errorf("flashMillis must be >= 0")
	}

	backoff := websocket.DefaultBackoff()
	if cfg.Stream.ExponentialBackoff != nil && *cfg.Stream.ExponentialBackoff {
		backoff = websocket.ExponentialBackoff()
	} else if cfg.Stream.ReconnectDelaySeconds > 0 {
		delay := time.Duration(cfg.Stream.ReconnectDelaySeconds) * time.Second
		backoff = websocket.Backoff{Min: delay, Max: delay, Factor: 1.0}
	}

	statusInterval := status.DefaultInterval
	if cfg.API.StatusIntervalSeconds > 0 {
		statusInterval = time.Duration(cfg.API.StatusIntervalSeconds) * time.Second
	}

	flashInterval := quote.DefaultFlashInterval
	if cfg.Quotes.FlashMillis > 0 {
		flashInterval = time.Duration(cfg.Quotes.FlashMillis) * time.Millisecond
	}

	var pingInterval time.Duration
	if cfg.Stream.PingSeconds > 0 {
		pingInterval = time.Duration(cfg.Stream.PingSeconds) * time.Second
	}

	symbols := make([]string, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		normalized := model.NormalizeSymbol(sym)
		if normalized == "" {
			return Loaded{}, errors.Errorf("empty symbol in config")
		}
		symbols = append(symbols, normalized)
	}

	return Loaded{
		StreamURL:      cfg.Stream.URL,
		Backoff:        backoff,
		PingInterval:   pingInterval,
		APIBaseURL:     cfg.API.BaseURL,
		StatusInterval: statusInterval,
		FlashInterval:  flashInterval,
		Symbols:        symbols,
	}, nil
}
