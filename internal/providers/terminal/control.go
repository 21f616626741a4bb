package terminal

import "encoding/binary"

// Control frames are fixed size: [tag][cols u16 LE][rows u16 LE].
const (
	ControlFrameSize = 5

	ControlTagResize byte = 0x01
)

// ControlFrame is one decoded control command.
type ControlFrame struct {
	Tag  byte
	Size Winsize
}

// EncodeResize builds a resize frame.
func EncodeResize(cols, rows uint16) []byte {
	b := make([]byte, ControlFrameSize)
	b[0] = ControlTagResize
	binary.LittleEndian.PutUint16(b[1:3], cols)
	binary.LittleEndian.PutUint16(b[3:5], rows)
	return b
}

// DecodeControl splits a control read into frames. Complete frames are
// returned in order; unknown tags are counted in ignored. Trailing bytes that
// do not form a full frame are dropped, since frames never span reads.
func DecodeControl(b []byte) (frames []ControlFrame, ignored int) {
	for len(b) >= ControlFrameSize {
		frame := b[:ControlFrameSize]
		b = b[ControlFrameSize:]

		if frame[0] != ControlTagResize {
			ignored++
			continue
		}
		frames = append(frames, ControlFrame{
			Tag: frame[0],
			Size: Winsize{
				Cols: binary.LittleEndian.Uint16(frame[1:3]),
				Rows: binary.LittleEndian.Uint16(frame[3:5]),
			},
		})
	}
	if len(b) > 0 {
		ignored++
	}
	return frames, ignored
}
