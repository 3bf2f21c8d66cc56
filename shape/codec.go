package shape

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/voxfield/voxfield/components"
)

// Wire format (little endian):
//
//	magic   [4]byte "VXS1"
//	nParts  uint16
//	parts   nParts * { id int32, nameLen uint8, name []byte }
//	nPoints uint32
//	points  nPoints * { x, y, z float32, partIdx uint16 }
//
// Part names are dictionary-encoded so a 2048-point cloud stays compact
// on the wire and in the persistent cache tier.

var codecMagic = [4]byte{'V', 'X', 'S', '1'}

// Encode serializes a morph target to the compact wire format.
func Encode(m *MorphTarget) ([]byte, error) {
	type part struct {
		id   int32
		name string
	}
	var parts []part
	partIdx := make(map[int32]uint16)
	for _, p := range m.Points {
		if _, ok := partIdx[p.PartID]; !ok {
			if len(parts) >= math.MaxUint16 {
				return nil, fmt.Errorf("encoding %q: too many parts", m.Concept)
			}
			partIdx[p.PartID] = uint16(len(parts))
			parts = append(parts, part{id: p.PartID, name: p.PartName})
		}
	}

	var buf bytes.Buffer
	buf.Write(codecMagic[:])
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(parts))); err != nil {
		return nil, err
	}
	for _, pt := range parts {
		if len(pt.name) > math.MaxUint8 {
			return nil, fmt.Errorf("encoding %q: part name %q too long", m.Concept, pt.name)
		}
		if err := binary.Write(&buf, binary.LittleEndian, pt.id); err != nil {
			return nil, err
		}
		buf.WriteByte(uint8(len(pt.name)))
		buf.WriteString(pt.name)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(m.Points))); err != nil {
		return nil, err
	}
	for _, p := range m.Points {
		if err := binary.Write(&buf, binary.LittleEndian, p.Position.X); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, p.Position.Y); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, p.Position.Z); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, partIdx[p.PartID]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Decode deserializes a morph target from the wire format. concept is
// attached to the result; it is not part of the encoding.
func Decode(concept string, data []byte) (*MorphTarget, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil {
		return nil, fmt.Errorf("decoding %q: reading magic: %w", concept, err)
	}
	if magic != codecMagic {
		return nil, fmt.Errorf("decoding %q: bad magic %v", concept, magic)
	}

	var nParts uint16
	if err := binary.Read(r, binary.LittleEndian, &nParts); err != nil {
		return nil, fmt.Errorf("decoding %q: part count: %w", concept, err)
	}
	type part struct {
		id   int32
		name string
	}
	parts := make([]part, nParts)
	for i := range parts {
		if err := binary.Read(r, binary.LittleEndian, &parts[i].id); err != nil {
			return nil, fmt.Errorf("decoding %q: part id: %w", concept, err)
		}
		nameLen, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("decoding %q: name length: %w", concept, err)
		}
		name := make([]byte, nameLen)
		if _, err := r.Read(name); err != nil {
			return nil, fmt.Errorf("decoding %q: name: %w", concept, err)
		}
		parts[i].name = string(name)
	}

	var nPoints uint32
	if err := binary.Read(r, binary.LittleEndian, &nPoints); err != nil {
		return nil, fmt.Errorf("decoding %q: point count: %w", concept, err)
	}
	// Reject sizes that cannot fit the remaining payload.
	if int64(nPoints)*14 > int64(r.Len()) {
		return nil, fmt.Errorf("decoding %q: truncated payload for %d points", concept, nPoints)
	}

	m := &MorphTarget{
		Concept: concept,
		Points:  make([]components.LabeledPoint, nPoints),
	}
	for i := range m.Points {
		var x, y, z float32
		var idx uint16
		if err := binary.Read(r, binary.LittleEndian, &x); err != nil {
			return nil, fmt.Errorf("decoding %q: point %d: %w", concept, i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &y); err != nil {
			return nil, fmt.Errorf("decoding %q: point %d: %w", concept, i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &z); err != nil {
			return nil, fmt.Errorf("decoding %q: point %d: %w", concept, i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return nil, fmt.Errorf("decoding %q: point %d: %w", concept, i, err)
		}
		if int(idx) >= len(parts) {
			return nil, fmt.Errorf("decoding %q: point %d references part %d of %d", concept, i, idx, len(parts))
		}
		m.Points[i] = components.LabeledPoint{
			Position: components.Vec3{X: x, Y: y, Z: z},
			PartID:   parts[idx].id,
			PartName: parts[idx].name,
		}
	}
	return m, nil
}
