package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ----- WAV Writer ----- //

// WAVWriter writes 16-bit PCM WAV. The header is written with the final data size, so
// the number of samples must be known up front.
type WAVWriter struct {
	w           io.Writer
	sampleRate  int
	channelNum  int
	dataWritten int
	buf         []byte
}

// NewWAVWriter ...
func NewWAVWriter(w io.Writer, sampleRate int, channelNum int) *WAVWriter {
	return &WAVWriter{
		w:          w,
		sampleRate: sampleRate,
		channelNum: channelNum,
	}
}

// WriteHeader writes the RIFF/fmt/data headers for dataSize bytes of samples.
func (w *WAVWriter) WriteHeader(dataSize int) error {
	blockAlign := w.channelNum * bitDepthInBytes
	header := make([]byte, 44)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(dataSize+36))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16) // chunk size
	binary.LittleEndian.PutUint16(header[20:], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:], uint16(w.channelNum))
	binary.LittleEndian.PutUint32(header[24:], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(w.sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:], bitDepthInBytes*8)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataSize))
	if _, err := w.w.Write(header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	return nil
}

// WriteSamples writes mono float samples, duplicated to every channel.
func (w *WAVWriter) WriteSamples(samples []float64) error {
	size := len(samples) * bitDepthInBytes * w.channelNum
	if cap(w.buf) < size {
		w.buf = make([]byte, size)
	}
	w.buf = w.buf[:size]
	writeBuffer(samples, w.buf, w.channelNum)
	n, err := w.w.Write(w.buf)
	w.dataWritten += n
	if err != nil {
		return fmt.Errorf("failed to write WAV samples: %w", err)
	}
	return nil
}

// DataWritten returns the number of sample bytes written so far.
func (w *WAVWriter) DataWritten() int {
	return w.dataWritten
}
