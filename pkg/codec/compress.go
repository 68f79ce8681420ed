package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

const (
	CompressNone = "none"
	CompressGzip = "gzip"
)

// JSONGzipCodecName selects JSON payloads gzipped inside each frame. Both
// peers must agree on it (client.WithCodec / server.WithCodec).
const JSONGzipCodecName = "json+gzip"

type NoneCompressor struct{}

var _ Compressor = (*NoneCompressor)(nil)

func NewNoneCompressor() Compressor {
	return &NoneCompressor{}
}

func (c *NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (c *NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (c *NoneCompressor) Name() string {
	return CompressNone
}

// ------------------ Gzip Compressor ------------------

type GzipCompressor struct {
	Level int
}

var _ Compressor = (*GzipCompressor)(nil)

func NewGzipCompressor(level int) Compressor {
	return &GzipCompressor{Level: level}
}

func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, c.Level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer (level %d): %w", c.Level, err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("gzip compress: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip flush: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}

	return decompressed, nil
}

func (c *GzipCompressor) Name() string {
	return CompressGzip
}

// ----------------- Registry -----------------

var compressorRegistry = make(map[string]Compressor)

func RegisterCompressor(name string, compressor Compressor) {
	if compressor == nil {
		panic(fmt.Sprintf("compressor: Register compressor is nil for %q", name))
	}

	if _, exists := compressorRegistry[name]; exists {
		panic(fmt.Sprintf("compressor: Register called twice for %q", name))
	}

	compressorRegistry[name] = compressor
}

func GetCompressor(name string) Compressor {
	return compressorRegistry[name]
}

func GetCompressorOrNone(name string) Compressor {
	compressor := GetCompressor(name)
	if compressor == nil {
		compressor = GetCompressor(CompressNone)
	}
	return compressor
}

func init() {
	RegisterCompressor(CompressNone, NewNoneCompressor())
	RegisterCompressor(CompressGzip, NewGzipCompressor(gzip.DefaultCompression))

	// Built from fresh instances, not registry lookups, so this init does
	// not depend on the json codec's init having run first.
	Register(JSONGzipCodecName, NewCompressedCodec(NewJSONCodec(), NewGzipCompressor(gzip.DefaultCompression)))
}
