package ingest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/snappy"

	"github.com/csirtlab/hostrisk/pkg/topology"
)

// Snapshot files are snappy-compressed JSON documents with a small header:
// magic, format version, then the uncompressed length for an allocation
// hint before the compressed payload.
const (
	snapshotMagic   = "HRSN"
	snapshotVersion = uint16(1)
)

// WriteSnapshot serializes a topology document to a compressed snapshot file.
func WriteSnapshot(path string, doc *Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	header := make([]byte, 0, 10)
	header = append(header, snapshotMagic...)
	header = binary.BigEndian.AppendUint16(header, snapshotVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(len(payload)))

	compressed := snappy.Encode(nil, payload)
	return os.WriteFile(path, append(header, compressed...), 0o644)
}

// LoadSnapshot reads a compressed snapshot file into a topology graph.
func LoadSnapshot(path string) (*topology.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(data) < 10 || string(data[:4]) != snapshotMagic {
		return nil, fmt.Errorf("snapshot %s: bad magic", path)
	}
	if v := binary.BigEndian.Uint16(data[4:6]); v != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, v)
	}
	expected := binary.BigEndian.Uint32(data[6:10])

	payload, err := snappy.Decode(make([]byte, 0, expected), data[10:])
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: decompress: %w", path, err)
	}
	if uint32(len(payload)) != expected {
		return nil, fmt.Errorf("snapshot %s: length mismatch: header says %d, got %d", path, expected, len(payload))
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("snapshot %s: decode: %w", path, err)
	}
	return Build(&doc)
}
