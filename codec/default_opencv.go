//go:build cgo && !no_opencv

package codec

const defaultBackendName = OpenCVName
