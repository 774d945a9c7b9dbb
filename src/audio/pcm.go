package audio

import "encoding/binary"

// ----- PCM ----- //

func toInt16(value float64) int16 {
	const max = 32767
	if value > 1 {
		value = 1
	}
	if value < -1 {
		value = -1
	}
	return int16(value * max)
}

// writeBuffer writes out as signed 16-bit little-endian, copying each sample to every
// channel. buf must hold len(out)*2*channelNum bytes.
func writeBuffer(out []float64, buf []byte, channelNum int) {
	bytesPerSample := bitDepthInBytes * channelNum
	for i, value := range out {
		b := uint16(toInt16(value))
		for ch := 0; ch < channelNum; ch++ {
			binary.LittleEndian.PutUint16(buf[bytesPerSample*i+bitDepthInBytes*ch:], b)
		}
	}
}
