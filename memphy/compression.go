package memphy

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionType represents the compression algorithm used for a swap slot
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionLZ4    CompressionType = 1
	CompressionSnappy CompressionType = 2
)

// Compressed frame layout:
// [0-1]: Magic number (0xC0DE)
// [2]: Compression type (0=none, 1=LZ4, 2=Snappy)
// [3]: Reserved
// [4-5]: Uncompressed size
// [6-7]: Compressed size
// [8-11]: Original checksum (CRC32)
// [12+]: Compressed data
const (
	CompressedFrameMagic    = 0xC0DE
	CompressedHeaderSize    = 12
	MinCompressionThreshold = 16 // Minimum bytes saved to keep the compressed form
)

// ParseCompressionType maps a config name to a CompressionType
func ParseCompressionType(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return CompressionNone, fmt.Errorf("unsupported compression: %q", name)
	}
}

func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("compression(%d)", uint8(ct))
	}
}

// CompressedFrame is one frame in compressed form
type CompressedFrame struct {
	CompressionType  CompressionType
	UncompressedSize uint16
	CompressedSize   uint16
	CompressedData   []byte
	OriginalChecksum uint32
}

// CompressFrame compresses a frame using the specified algorithm. Frames that
// do not shrink by at least MinCompressionThreshold bytes are stored as-is.
func CompressFrame(data []byte, compressionType CompressionType) (*CompressedFrame, error) {
	if err := checkFrameBuf(data); err != nil {
		return nil, err
	}

	checksum := crc32.ChecksumIEEE(data)

	var compressed []byte

	switch compressionType {
	case CompressionNone:
		compressed = append([]byte(nil), data...)

	case CompressionLZ4:
		compressed = make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("LZ4 compression failed: %w", err)
		}
		// n == 0 means the block is incompressible
		compressed = compressed[:n]
		if n == 0 {
			compressionType = CompressionNone
			compressed = append([]byte(nil), data...)
		}

	case CompressionSnappy:
		compressed = snappy.Encode(nil, data)

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", compressionType)
	}

	if compressionType != CompressionNone && len(data)-len(compressed) < MinCompressionThreshold {
		compressionType = CompressionNone
		compressed = append([]byte(nil), data...)
	}

	return &CompressedFrame{
		CompressionType:  compressionType,
		UncompressedSize: uint16(len(data)),
		CompressedSize:   uint16(len(compressed)),
		CompressedData:   compressed,
		OriginalChecksum: checksum,
	}, nil
}

// DecompressFrame restores the original frame bytes and verifies the checksum
func DecompressFrame(cf *CompressedFrame) ([]byte, error) {
	var decompressed []byte
	var err error

	switch cf.CompressionType {
	case CompressionNone:
		decompressed = append([]byte(nil), cf.CompressedData...)

	case CompressionLZ4:
		decompressed = make([]byte, cf.UncompressedSize)
		n, err := lz4.UncompressBlock(cf.CompressedData, decompressed)
		if err != nil {
			return nil, fmt.Errorf("LZ4 decompression failed: %w", err)
		}
		if n != int(cf.UncompressedSize) {
			return nil, fmt.Errorf("LZ4 decompression size mismatch: got %d, expected %d", n, cf.UncompressedSize)
		}

	case CompressionSnappy:
		decompressed, err = snappy.Decode(nil, cf.CompressedData)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		if len(decompressed) != int(cf.UncompressedSize) {
			return nil, fmt.Errorf("snappy decompression size mismatch: got %d, expected %d", len(decompressed), cf.UncompressedSize)
		}

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", cf.CompressionType)
	}

	if checksum := crc32.ChecksumIEEE(decompressed); checksum != cf.OriginalChecksum {
		return nil, fmt.Errorf("checksum mismatch: got %08x, expected %08x", checksum, cf.OriginalChecksum)
	}

	return decompressed, nil
}

// Marshal serializes the compressed frame with its header
func (cf *CompressedFrame) Marshal() []byte {
	buf := make([]byte, CompressedHeaderSize+len(cf.CompressedData))

	binary.LittleEndian.PutUint16(buf[0:2], CompressedFrameMagic)
	buf[2] = uint8(cf.CompressionType)
	buf[3] = 0
	binary.LittleEndian.PutUint16(buf[4:6], cf.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[6:8], cf.CompressedSize)
	binary.LittleEndian.PutUint32(buf[8:12], cf.OriginalChecksum)
	copy(buf[CompressedHeaderSize:], cf.CompressedData)

	return buf
}

// UnmarshalCompressedFrame parses a buffer produced by Marshal
func UnmarshalCompressedFrame(data []byte) (*CompressedFrame, error) {
	if len(data) < CompressedHeaderSize {
		return nil, fmt.Errorf("data too short for compressed frame header: %d bytes", len(data))
	}

	if magic := binary.LittleEndian.Uint16(data[0:2]); magic != CompressedFrameMagic {
		return nil, fmt.Errorf("invalid magic number: got %04x, expected %04x", magic, CompressedFrameMagic)
	}

	compressedSize := binary.LittleEndian.Uint16(data[6:8])
	if CompressedHeaderSize+int(compressedSize) > len(data) {
		return nil, fmt.Errorf("insufficient data for compressed frame: need %d bytes, have %d",
			CompressedHeaderSize+int(compressedSize), len(data))
	}

	return &CompressedFrame{
		CompressionType:  CompressionType(data[2]),
		UncompressedSize: binary.LittleEndian.Uint16(data[4:6]),
		CompressedSize:   compressedSize,
		CompressedData:   append([]byte(nil), data[CompressedHeaderSize:CompressedHeaderSize+int(compressedSize)]...),
		OriginalChecksum: binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// CompressionStats tracks how much space the compressed swap saves
type CompressionStats struct {
	TotalFrames        uint64
	CompressedFrames   uint64
	TotalBytesOriginal uint64
	TotalBytesStored   uint64
}

func (cs *CompressionStats) add(cf *CompressedFrame) {
	cs.TotalFrames++
	cs.TotalBytesOriginal += uint64(cf.UncompressedSize)
	cs.TotalBytesStored += uint64(cf.CompressedSize) + CompressedHeaderSize
	if cf.CompressionType != CompressionNone {
		cs.CompressedFrames++
	}
}

// Ratio returns original size / stored size
func (cs CompressionStats) Ratio() float64 {
	if cs.TotalBytesStored == 0 {
		return 1.0
	}
	return float64(cs.TotalBytesOriginal) / float64(cs.TotalBytesStored)
}
