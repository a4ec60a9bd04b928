// Package rawframe stores decoded RGB images in a small container with a
// zstd-compressed payload, for handing frames between processes or
// caching them on disk without re-encoding to JPEG.
//
// Layout (little endian):
//
//	magic "RGBF" | version u8 | flags u8 | channels u8 | reserved u8 |
//	width u32 | height u32 | payload length u32 | crc32 of pixels u32 |
//	payload
package rawframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/images"
)

// Version is the container version written by this package.
const Version uint8 = 1

// Compression levels, mapped onto zstd encoder levels.
const (
	FastestLevel uint8 = 1
	DefaultLevel uint8 = 2
	BetterLevel  uint8 = 3
	BestLevel    uint8 = 4
)

const (
	flagCompressed uint8 = 1 << 0

	// Payloads below this size are stored as is.
	minCompressSize = 64

	// maxFrameBytes is the largest pixel payload the u32 length field can describe.
	maxFrameBytes = math.MaxUint32
)

var magic = [4]byte{'R', 'G', 'B', 'F'}

type header struct {
	Magic    [4]byte
	Version  uint8
	Flags    uint8
	Channels uint8
	Reserved uint8
	Width    uint32
	Height   uint32
	Length   uint32
	Checksum uint32
}

// HeaderSize is the encoded size of the container header.
var HeaderSize = binary.Size(header{})

// Options configures a Codec.
type Options struct {
	// Level is the zstd level, FastestLevel to BestLevel. Zero selects DefaultLevel.
	Level uint8
	// Concurrency bounds the goroutines used by the zstd encoder and decoder.
	// Zero selects 1.
	Concurrency uint8
}

// Codec writes and reads raw frames. It is safe for concurrent use.
type Codec struct {
	level   uint8
	mu      sync.RWMutex
	closed  bool
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	table   *crc32.Table
}

// New creates a Codec.
//
// Returns an error if:
// - The level is outside FastestLevel..BestLevel
// - The zstd encoder or decoder cannot be created
func New(opts Options) (*Codec, error) {
	if opts.Level == 0 {
		opts.Level = DefaultLevel
	}
	if opts.Level < FastestLevel || opts.Level > BestLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, opts.Level)
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 1
	}

	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.EncoderLevel(opts.Level)),
		zstd.WithEncoderConcurrency(int(opts.Concurrency)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create encoder")
	}

	decoder, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(int(opts.Concurrency)),
		zstd.WithDecoderMaxMemory(maxFrameBytes),
	)
	if err != nil {
		encoder.Close()
		return nil, errors.Wrap(err, "failed to create decoder")
	}

	return &Codec{
		level:   opts.Level,
		encoder: encoder,
		decoder: decoder,
		table:   crc32.MakeTable(crc32.IEEE),
	}, nil
}

// Level returns the compression level.
func (c *Codec) Level() uint8 { return c.level }

// Marshal encodes img into a new container. Non-contiguous views are
// compacted first.
func (c *Codec) Marshal(img *images.Image) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := c.Write(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a container produced by Marshal.
func (c *Codec) Unmarshal(data []byte) (*images.Image, error) {
	r := bytes.NewReader(data)
	img, err := c.Read(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Len())
	}
	return img, nil
}

// Write writes img as one container to w.
func (c *Codec) Write(w io.Writer, img *images.Image) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	if img == nil {
		return errors.New("rawframe: nil image")
	}
	if _, err := frameBytes(img.Width(), img.Height()); err != nil {
		return err
	}

	pixels := img.Compact().Data()

	hdr := header{
		Magic:    magic,
		Version:  Version,
		Channels: uint8(img.NumChannels()),
		Width:    uint32(img.Width()),
		Height:   uint32(img.Height()),
		Checksum: crc32.Checksum(pixels, c.table),
	}

	payload := pixels
	if len(pixels) >= minCompressSize {
		if compressed := c.encoder.EncodeAll(pixels, nil); len(compressed) < len(pixels) {
			payload = compressed
			hdr.Flags |= flagCompressed
		}
	}
	hdr.Length = uint32(len(payload))

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "write header")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "write payload")
	}
	return nil
}

// Read reads exactly one container from r.
func (c *Codec) Read(r io.Reader) (*images.Image, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}

	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header", ErrTruncated)
		}
		return nil, errors.Wrap(err, "read header")
	}

	if hdr.Magic != magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, hdr.Magic[:])
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	if int(hdr.Channels) != images.Channels {
		return nil, fmt.Errorf("%w: %d channels", ErrCorrupt, hdr.Channels)
	}
	rawLen, err := frameBytes(int(hdr.Width), int(hdr.Height))
	if err != nil {
		return nil, err
	}
	size := images.ImageSize{Width: int(hdr.Width), Height: int(hdr.Height)}

	// Stored payloads are never larger than the raw pixels.
	if int(hdr.Length) > rawLen {
		return nil, fmt.Errorf("%w: payload %d exceeds %d", ErrCorrupt, hdr.Length, rawLen)
	}
	compressed := hdr.Flags&flagCompressed != 0
	if !compressed && int(hdr.Length) != rawLen {
		return nil, fmt.Errorf("%w: stored payload %d, want %d", ErrCorrupt, hdr.Length, rawLen)
	}

	payload := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: payload", ErrTruncated)
	}

	pixels := payload
	if compressed {
		out, err := c.decompress(payload, rawLen)
		if err != nil {
			return nil, err
		}
		pixels = out
	}

	if crc32.Checksum(pixels, c.table) != hdr.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	img, err := images.NewImage(size, pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return img, nil
}

// decompress inflates a zstd payload that must hold exactly rawLen bytes.
// The declared content size is checked before any output is allocated.
func (c *Codec) decompress(payload []byte, rawLen int) ([]byte, error) {
	var zh zstd.Header
	if err := zh.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if !zh.HasFCS || zh.FrameContentSize != uint64(rawLen) {
		return nil, fmt.Errorf("%w: frame content size %d, want %d", ErrCorrupt, zh.FrameContentSize, rawLen)
	}

	out, err := c.decoder.DecodeAll(payload, make([]byte, 0, rawLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("%w: inflated to %d bytes, want %d", ErrCorrupt, len(out), rawLen)
	}
	return out, nil
}

// frameBytes returns the pixel payload size of a width x height frame, or
// ErrTooLarge when the header cannot describe it.
func frameBytes(width, height int) (int, error) {
	if width > codec.MaxDimension || height > codec.MaxDimension {
		return 0, fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}
	n := uint64(width) * uint64(height) * images.Channels
	if n > maxFrameBytes {
		return 0, fmt.Errorf("%w: %dx%d needs %d bytes", ErrTooLarge, width, height, n)
	}
	return int(n), nil
}

// Close releases the zstd encoder and decoder. Later calls fail with ErrClosed.
func (c *Codec) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.encoder.Close(); err != nil {
		return errors.Wrap(err, "close encoder")
	}
	c.decoder.Close()
	return nil
}
