// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"rhythm/internal/beat"
)

/*
Snapshot packet (BigEndian)

+---------------------------------------------------------------+
| Field            | Type    | Bytes | Description              |
|------------------|---------|-------|--------------------------|
| Sequence Number  | uint32  | 4     | Monotonically increasing |
| Timestamp        | int64   | 8     | Nanoseconds since epoch  |
| Band Count       | uint16  | 2     | Number of band records   |
| Bands            | record  | N*17  | See below                |
+---------------------------------------------------------------+

Band record:

|<- 1 ->|<--- 4 --->|<--- 4 ---->|<--- 4 --->|<------- 4 ------->|
+-------+-----------+------------+-----------+-------------------+
|  ID   |  Energy   | Threshold  |  Average  | Since Last Beat   |
| uint8 | float32   |  float32   |  float32  | float32, -1=never |
+-------+-----------+------------+-----------+-------------------+
*/

const (
	HeaderSize = 4 + 8 + 2
	BandSize   = 1 + 4*4
)

var ErrShortPacket = errors.New("udp: short packet")

// BandRecord is one band in a decoded packet.
type BandRecord struct {
	ID            uint8
	Energy        float32
	Threshold     float32
	Average       float32
	SinceLastBeat float32
}

// Packet is a decoded snapshot packet.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Bands     []BandRecord
}

// AppendSnapshot encodes snap onto dst and returns the extended slice.
func AppendSnapshot(dst []byte, seq uint32, timestamp int64, snap beat.Snapshot) []byte {
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(timestamp))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(snap.Bands)))
	for _, b := range snap.Bands {
		dst = append(dst, uint8(b.Band))
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(b.Energy)))
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(b.Threshold)))
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(b.Average)))
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(b.SinceLastBeat)))
	}
	return dst
}

// DecodePacket parses a snapshot packet.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, ErrShortPacket
	}
	p := Packet{
		Seq:       binary.BigEndian.Uint32(data[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(data[4:12])),
	}
	n := int(binary.BigEndian.Uint16(data[12:14]))
	body := data[HeaderSize:]
	if len(body) < n*BandSize {
		return Packet{}, fmt.Errorf("%w: %d bands need %d bytes, have %d", ErrShortPacket, n, n*BandSize, len(body))
	}

	p.Bands = make([]BandRecord, n)
	for i := range p.Bands {
		r := body[i*BandSize : (i+1)*BandSize]
		p.Bands[i] = BandRecord{
			ID:            r[0],
			Energy:        math.Float32frombits(binary.BigEndian.Uint32(r[1:5])),
			Threshold:     math.Float32frombits(binary.BigEndian.Uint32(r[5:9])),
			Average:       math.Float32frombits(binary.BigEndian.Uint32(r[9:13])),
			SinceLastBeat: math.Float32frombits(binary.BigEndian.Uint32(r[13:17])),
		}
	}
	return p, nil
}
