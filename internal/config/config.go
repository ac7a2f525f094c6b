// internal/config/config.go
package config

type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Channels    []ChannelConfig   `yaml:"channels"`
	Poll        PollConfig        `yaml:"poll"`
	Setpoints   []SetpointConfig  `yaml:"setpoints"`
	Status      *StatusConfig     `yaml:"status"`
	Log         LogConfig         `yaml:"log"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID        string `yaml:"id"`
	Endpoint  string `yaml:"endpoint"`  // host:port (tcp) or serial device (rtu)
	Transport string `yaml:"transport"` // tcp | rtu
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	Serial SerialConfig `yaml:"serial"`
}

type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // N | E | O
	StopBits int    `yaml:"stop_bits"`
}

// ---- AGGREGATION ----

type AggregationConfig struct {
	// Largest gap in bytes a merged read may bridge.
	ReadMinGap uint32 `yaml:"read_min_gap"`
	// Same for the read pass of a write cycle.
	UpdateReadMinGap uint32 `yaml:"update_read_min_gap"`

	Prohibited []ProhibitedConfig `yaml:"prohibited"`
}

// ProhibitedConfig is a byte range [start, end) no transfer may bridge.
type ProhibitedConfig struct {
	Domain string `yaml:"domain"`
	Start  uint32 `yaml:"start"`
	End    uint32 `yaml:"end"`
}

// ---- CHANNELS ----

// ChannelConfig places one named value in a domain's byte address space.
// Offset is a byte offset: register r starts at 2*r, coil c is bit c%8 of
// byte c/8.
type ChannelConfig struct {
	Name      string `yaml:"name"`
	Domain    string `yaml:"domain"`
	Type      string `yaml:"type"`
	Offset    uint32 `yaml:"offset"`
	Bit       uint8  `yaml:"bit"`
	Size      uint32 `yaml:"size"`
	ByteOrder string `yaml:"byte_order"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- SETPOINTS ----

// SetpointConfig is a value written to a channel on start and after the
// device recovers from an error.
type SetpointConfig struct {
	Channel string `yaml:"channel"`
	Value   any    `yaml:"value"`
}

// ---- STATUS ----

// StatusConfig publishes the device status block into the holding
// registers of a supervision endpoint. Optional, opt-in.
type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	Slot       uint16 `yaml:"slot"` // block index; registers slot*SlotsPerDevice..
	DeviceName string `yaml:"device_name"`
}

// ---- LOG ----

type LogConfig struct {
	Level       string `yaml:"level"` // DEBUG | INFO | ...
	DumpBuffers bool   `yaml:"dump_buffers"`
}
