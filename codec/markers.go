package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/garyhouston/jpegsegs"
)

// Frame markers whose scans are progressive.
const (
	markerSOF2  = jpegsegs.SOF0 + 2
	markerSOF6  = jpegsegs.SOF0 + 6
	markerSOF10 = jpegsegs.SOF0 + 10
	markerSOF14 = jpegsegs.SOF0 + 14
)

// isSOF reports whether m starts a frame header.
func isSOF(m jpegsegs.Marker) bool {
	return m >= jpegsegs.SOF0 && m <= jpegsegs.SOF0+0xF && m != jpegsegs.DHT && m != jpegsegs.JPG && m != jpegsegs.DAC
}

// isStandalone reports whether m is a marker without a length field.
func isStandalone(m jpegsegs.Marker) bool {
	return m == jpegsegs.TEM || (m >= jpegsegs.RST0 && m <= jpegsegs.RST0+7)
}

// segmentWalker steps through the marker segments that precede the first
// scan of a JPEG stream.
type segmentWalker struct {
	data   []byte
	reader *bytes.Reader
	buf    []byte
}

func newSegmentWalker(data []byte) (*segmentWalker, error) {
	w := &segmentWalker{
		data:   data,
		reader: bytes.NewReader(data),
		buf:    make([]byte, 1<<16),
	}
	if err := jpegsegs.ReadHeader(w.reader, w.buf); err != nil {
		return nil, segmentError(err, "SOI marker")
	}
	return w, nil
}

// offset is the position of the next unread byte.
func (w *segmentWalker) offset() int {
	return len(w.data) - w.reader.Len()
}

// next returns the next marker and its segment payload. Markers without a
// length field, and SOS which ends the walk, carry no payload. The payload
// is only valid until the following call.
func (w *segmentWalker) next() (jpegsegs.Marker, []byte, error) {
	marker, err := jpegsegs.ReadMarker(w.reader, w.buf)
	if err != nil {
		return 0, nil, segmentError(err, fmt.Sprintf("marker at offset %d", w.offset()))
	}

	switch {
	case isStandalone(marker), marker == jpegsegs.SOI, marker == jpegsegs.EOI, marker == jpegsegs.SOS:
		return marker, nil, nil
	}

	// ReadData cannot represent lengths below the length field itself.
	pos := w.offset()
	if pos+2 > len(w.data) {
		return 0, nil, fmt.Errorf("%w: segment length of %s", ErrTruncated, marker.Name())
	}
	if length := binary.BigEndian.Uint16(w.data[pos:]); length < 2 {
		return 0, nil, fmt.Errorf("%w: segment length %d for %s", ErrInvalidHeader, length, marker.Name())
	}

	seg, err := jpegsegs.ReadData(w.reader, w.buf)
	if err != nil {
		return 0, nil, segmentError(err, marker.Name()+" segment")
	}
	return marker, seg, nil
}

// segmentError maps jpegsegs read failures onto the package errors.
func segmentError(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidHeader, what, err)
}

// ScanHeader walks the marker segments of a JPEG stream up to the first
// frame header and returns its parameters. Entropy-coded data is never read.
//
// Returns:
//   - ErrTruncated if the stream ends before the frame header is complete.
//   - ErrInvalidHeader if the stream is not structurally a JPEG.
//   - ErrUnsupportedFormat for frames the pixel pipeline cannot represent.
func ScanHeader(data []byte) (Header, error) {
	w, err := newSegmentWalker(data)
	if err != nil {
		return Header{}, err
	}

	for {
		marker, seg, err := w.next()
		if err != nil {
			return Header{}, err
		}

		switch {
		case isStandalone(marker):
			continue
		case marker == jpegsegs.SOI, marker == jpegsegs.EOI, marker == jpegsegs.SOS:
			return Header{}, fmt.Errorf("%w: %s before frame header", ErrInvalidHeader, marker.Name())
		case isSOF(marker):
			return parseFrame(marker, seg)
		}
	}
}

// parseFrame decodes an SOFn segment payload.
func parseFrame(marker jpegsegs.Marker, seg []byte) (Header, error) {
	if len(seg) < 6 {
		return Header{}, fmt.Errorf("%w: %s segment of %d bytes", ErrInvalidHeader, marker.Name(), len(seg))
	}

	hdr := Header{
		Precision:   int(seg[0]),
		Height:      int(binary.BigEndian.Uint16(seg[1:])),
		Width:       int(binary.BigEndian.Uint16(seg[3:])),
		Components:  int(seg[5]),
		Progressive: marker == markerSOF2 || marker == markerSOF6 || marker == markerSOF10 || marker == markerSOF14,
	}

	if len(seg) < 6+3*hdr.Components {
		return Header{}, fmt.Errorf("%w: frame header of %d bytes for %d components", ErrInvalidHeader, len(seg), hdr.Components)
	}
	if hdr.Width == 0 {
		return Header{}, fmt.Errorf("%w: zero width", ErrInvalidHeader)
	}
	if hdr.Height == 0 {
		// Height deferred to a DNL segment after the first scan.
		return Header{}, fmt.Errorf("%w: DNL-defined height", ErrUnsupportedFormat)
	}
	switch hdr.Components {
	case 1, 3, 4:
	default:
		return Header{}, fmt.Errorf("%w: %d components", ErrUnsupportedFormat, hdr.Components)
	}
	if hdr.Precision != 8 {
		return Header{}, fmt.Errorf("%w: %d-bit precision", ErrUnsupportedFormat, hdr.Precision)
	}

	return hdr, nil
}

// CheckComplete reports ErrTruncated when data carries no EOI marker after
// its first top-level scan. Segments before the scan are skipped by length,
// so an embedded thumbnail cannot stand in for the main image. Decoders
// that conceal truncation by padding the missing rows use it to refuse
// partially decoded output.
func CheckComplete(data []byte) error {
	w, err := newSegmentWalker(data)
	if err != nil {
		return err
	}

	for {
		marker, _, err := w.next()
		if err != nil {
			return err
		}
		if marker == jpegsegs.EOI {
			return fmt.Errorf("%w: EOI before first scan", ErrTruncated)
		}
		if marker == jpegsegs.SOS {
			break
		}
	}

	if !bytes.Contains(data[w.offset():], []byte{0xFF, jpegsegs.EOI}) {
		return fmt.Errorf("%w: missing EOI marker", ErrTruncated)
	}
	return nil
}
