package jpeg

import (
	"errors"
	"fmt"
)

// Kind identifies which operation of the codec wrapper failed and how.
type Kind int

const (
	// KindCodecInit indicates the backend could not allocate a codec handle.
	KindCodecInit Kind = iota + 1

	// KindHeaderParse indicates the stream header is malformed, truncated or
	// describes a frame the decoder does not support.
	KindHeaderParse

	// KindDecode indicates the compressed payload is corrupt or unsupported.
	KindDecode

	// KindEncode indicates the backend failed to compress the image.
	KindEncode

	// KindInvalidQuality indicates the backend rejected a quality value.
	KindInvalidQuality

	// KindNonContiguousImage indicates the image buffer is not laid out as
	// tightly packed RGB rows.
	KindNonContiguousImage

	// KindImageCreation indicates the decoded buffer disagrees with the
	// declared dimensions.
	KindImageCreation

	// KindPoisoned indicates the handle is unusable after a panic inside a
	// codec call.
	KindPoisoned
)

// Class groups kinds by what a caller can do about them.
type Class int

const (
	// ClassInput errors are caused by the data passed in. Retry with different input.
	ClassInput Class = iota + 1

	// ClassResource errors mean the codec itself is unavailable. Retrying the
	// same handle will not help.
	ClassResource

	// ClassConfig errors are caused by an invalid setting.
	ClassConfig
)

// Sentinels matched by errors.Is against any *Error of the same Kind.
var (
	ErrCodecInit          = errors.New("jpeg: codec initialization failed")
	ErrHeaderParse        = errors.New("jpeg: invalid header")
	ErrDecode             = errors.New("jpeg: decode failed")
	ErrEncode             = errors.New("jpeg: encode failed")
	ErrInvalidQuality     = errors.New("jpeg: invalid quality")
	ErrNonContiguousImage = errors.New("jpeg: image is not contiguous")
	ErrImageCreation      = errors.New("jpeg: image creation failed")
	ErrHandlePoisoned     = errors.New("jpeg: codec handle poisoned")
)

var sentinels = map[Kind]error{
	KindCodecInit:          ErrCodecInit,
	KindHeaderParse:        ErrHeaderParse,
	KindDecode:             ErrDecode,
	KindEncode:             ErrEncode,
	KindInvalidQuality:     ErrInvalidQuality,
	KindNonContiguousImage: ErrNonContiguousImage,
	KindImageCreation:      ErrImageCreation,
	KindPoisoned:           ErrHandlePoisoned,
}

// String returns the kind name used in error messages and log fields.
func (k Kind) String() string {
	switch k {
	case KindCodecInit:
		return "codec_init"
	case KindHeaderParse:
		return "header_parse"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindInvalidQuality:
		return "invalid_quality"
	case KindNonContiguousImage:
		return "non_contiguous_image"
	case KindImageCreation:
		return "image_creation"
	case KindPoisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

// Class returns the class of the kind.
func (k Kind) Class() Class {
	switch k {
	case KindHeaderParse, KindDecode, KindEncode, KindNonContiguousImage, KindImageCreation:
		return ClassInput
	case KindCodecInit, KindPoisoned:
		return ClassResource
	case KindInvalidQuality:
		return ClassConfig
	default:
		return 0
	}
}

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassInput:
		return "input"
	case ClassResource:
		return "resource"
	case ClassConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is returned by every Decoder and Encoder operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("jpeg %s [%v]", e.Op, e.Kind)
	}
	return fmt.Sprintf("jpeg %s [%v]: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsInputError reports whether err was caused by the data passed in.
func IsInputError(err error) bool { return KindOf(err).Class() == ClassInput }

// IsResourceError reports whether err means the codec handle is unavailable.
func IsResourceError(err error) bool { return KindOf(err).Class() == ClassResource }

// IsConfigError reports whether err was caused by an invalid setting.
func IsConfigError(err error) bool { return KindOf(err).Class() == ClassConfig }
