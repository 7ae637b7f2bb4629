package sniff

import (
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"os"
)

// Format classifies the on-disk container format of a model artifact.
type Format int

const (
	// FormatUnknown covers everything that is not a GGUF container,
	// including files that do not exist.
	FormatUnknown Format = iota
	// FormatGGUF is a single-file quantized-model container identified by
	// the "GGUF" magic in its header.
	FormatGGUF
)

func (f Format) String() string {
	if f == FormatGGUF {
		return "gguf"
	}
	return "unknown"
}

// ggufMagic is "GGUF" read as a little-endian uint32.
const ggufMagic = 0x46554747

// ggufHeader is the fixed-size prefix of a GGUF file. Only the prefix is
// read; the tensor data and metadata key/values are never parsed.
type ggufHeader struct {
	Magic       uint32
	Version     uint32
	TensorCount uint64
	MetaKVCount uint64
}

// Classify reports whether the artifact at path is a GGUF container by
// inspecting its header. A missing, truncated, or non-GGUF file classifies
// as FormatUnknown without error: absence of the format is meaningful input
// to backend selection, not a failure. Only unexpected I/O errors (e.g.
// permission denied, path is a directory) return a ClassificationError.
func Classify(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FormatUnknown, nil
		}
		return FormatUnknown, &ClassificationError{Path: path, Err: err}
	}
	defer f.Close()

	var hdr ggufHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Shorter than a GGUF header, so not a GGUF file.
			return FormatUnknown, nil
		}
		return FormatUnknown, &ClassificationError{Path: path, Err: err}
	}
	if hdr.Magic != ggufMagic || hdr.Version == 0 {
		return FormatUnknown, nil
	}
	return FormatGGUF, nil
}
