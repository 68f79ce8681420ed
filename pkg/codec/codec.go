package codec

import (
	"fmt"
	"sync"
)

// Codec encodes and decodes protocol messages to and from bytes. Framing is
// handled separately (see netstring.go); a Codec never writes its own frame
// boundaries.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

var registry = struct {
	codecs map[string]Codec
	sync.RWMutex
}{
	codecs: make(map[string]Codec),
}

func Register(name string, codec Codec) {
	registry.Lock()
	defer registry.Unlock()

	if codec == nil {
		panic(fmt.Sprintf("codec: Register codec is nil for %q", name))
	}

	if _, exists := registry.codecs[name]; exists {
		panic(fmt.Sprintf("codec: Register called twice for %q", name))
	}

	registry.codecs[name] = codec
}

func Get(name string) Codec {
	registry.RLock()
	defer registry.RUnlock()

	return registry.codecs[name]
}

func GetOrDefault(name string) Codec {
	codec := Get(name)
	if codec == nil {
		codec = Get(JSONCodecName)
	}
	return codec
}

// ----------------- Compressed Codec -----------------

// CompressedCodec wraps a Codec so every payload passes through a Compressor
// before framing.
type CompressedCodec struct {
	codec      Codec
	compressor Compressor
}

func NewCompressedCodec(codec Codec, compressor Compressor) Codec {
	return &CompressedCodec{
		codec:      codec,
		compressor: compressor,
	}
}

func (c *CompressedCodec) Encode(v any) ([]byte, error) {
	data, err := c.codec.Encode(v)
	if err != nil {
		return nil, err
	}

	compressed, err := c.compressor.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	return compressed, nil
}

func (c *CompressedCodec) Decode(data []byte, v any) error {
	decompressed, err := c.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress payload: %w", err)
	}

	return c.codec.Decode(decompressed, v)
}

func (c *CompressedCodec) Name() string {
	return fmt.Sprintf("%s+%s", c.codec.Name(), c.compressor.Name())
}
