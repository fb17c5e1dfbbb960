package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of the configuration file.
type Bootstrap struct {
	Server    *Server    `json:"server"`
	Data      *Data      `json:"data"`
	Shortener *Shortener `json:"shortener"`
	Analytics *Analytics `json:"analytics"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
}

type Server_HTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Cache    *Data_Cache    `json:"cache"`
}

type Data_Database struct {
	// Driver is "sqlite3" or "postgres".
	Driver string `json:"driver"`
	Source string `json:"source"`
}

type Data_Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	Db           int      `json:"db"`
	DialTimeout  Duration `json:"dial_timeout"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

type Data_Cache struct {
	// Driver is "local" (default) or "redis".
	Driver string `json:"driver"`
}

type Shortener struct {
	BaseUrl       string               `json:"base_url"`
	LandingUrl    string               `json:"landing_url"`
	NodeId        int64                `json:"node_id"`
	DefaultExpiry Duration             `json:"default_expiry"`
	MaxRetries    int                  `json:"max_retries"`
	RateLimit     *Shortener_RateLimit `json:"rate_limit"`
	Reaper        *Shortener_Reaper    `json:"reaper"`
}

type Shortener_RateLimit struct {
	Enabled bool `json:"enabled"`
	// Capacity is the burst size of a bucket.
	Capacity int64 `json:"capacity"`
	// RefillRate tokens are added every RefillInterval.
	RefillRate     int64    `json:"refill_rate"`
	RefillInterval Duration `json:"refill_interval"`
	Timeout        Duration `json:"timeout"`
}

type Shortener_Reaper struct {
	Enabled  bool     `json:"enabled"`
	Interval Duration `json:"interval"`
}

type Analytics struct {
	// Driver is "gochannel" (default) or "redis".
	Driver        string `json:"driver"`
	Topic         string `json:"topic"`
	Partitions    int    `json:"partitions"`
	ConsumerGroup string `json:"consumer_group"`
	QueueSize     int    `json:"queue_size"`
	// StreamMaxlen caps each redis partition stream.
	StreamMaxlen int64 `json:"stream_maxlen"`
	// GeoipDb is an optional MaxMind country database used to label redirects.
	GeoipDb string `json:"geoip_db"`
}

// Duration decodes "1.5s" style strings as well as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// AsDuration mirrors durationpb so call sites read the same as generated config.
func (d Duration) AsDuration() time.Duration {
	return d.Duration
}
