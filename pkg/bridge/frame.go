package bridge

import "encoding/base64"

// FrameSize is the telephony leg's packetization unit: 20ms of 8kHz 8-bit
// mu-law audio.
const FrameSize = 160

// Frames splits buf into ordered chunks of at most size bytes. The final
// chunk is shorter when len(buf) is not a multiple of size. Chunks alias buf;
// callers must not mutate the input while frames are in flight.
func Frames(buf []byte, size int) [][]byte {
	if size <= 0 || len(buf) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(buf)+size-1)/size)
	for i := 0; i < len(buf); i += size {
		end := i + size
		if end > len(buf) {
			end = len(buf)
		}
		out = append(out, buf[i:end])
	}
	return out
}

// EncodeFrames splits buf into frames and base64-encodes each one for the
// telephony wire format.
func EncodeFrames(buf []byte, size int) []string {
	frames := Frames(buf, size)
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = base64.StdEncoding.EncodeToString(f)
	}
	return out
}
