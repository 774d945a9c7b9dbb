package audio

import "fmt"

const (
	defaultSampleRate = 48000
	defaultBlockSize  = 256
	defaultMaxPoly    = 32
	defaultChannelNum = 2
	bitDepthInBytes   = 2
	fftSize           = 2048
	eventQueueSize    = 1024
)

// Config holds the fixed properties of an Engine. It cannot change after NewEngine.
type Config struct {
	SampleRate    int    // Hz
	BlockSize     int    // samples per render block (events are applied at block boundaries)
	MaxPoly       int    // upper bound of simultaneously allocated voices
	ChannelNum    int    // 1 or 2, only used by Read
	WavetablePath string // optional file made by gentables
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		SampleRate: defaultSampleRate,
		BlockSize:  defaultBlockSize,
		MaxPoly:    defaultMaxPoly,
		ChannelNum: defaultChannelNum,
	}
}

// Validate ...
func (c Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 384000 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize <= 0 || c.BlockSize > 8192 {
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	}
	if c.MaxPoly <= 0 {
		return fmt.Errorf("%w: max poly %d", ErrInvalidConfig, c.MaxPoly)
	}
	if c.ChannelNum != 1 && c.ChannelNum != 2 {
		return fmt.Errorf("%w: channel num %d", ErrInvalidConfig, c.ChannelNum)
	}
	return nil
}

func (c Config) bytesPerSample() int {
	return bitDepthInBytes * c.ChannelNum
}
