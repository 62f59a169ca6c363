package support

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressProfile zstd-compresses b. internal/gateway calls this before
// base64-encoding a serialized Profile into the x-mycelium-profile header
// — no stdlib zstd codec
// exists, so klauspost/compress is the ecosystem-standard choice.
func CompressProfile(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("support: new zstd writer: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, fmt.Errorf("support: zstd write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("support: zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressProfile reverses CompressProfile, used by downstream services
// that read x-mycelium-profile.
func DecompressProfile(b []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("support: new zstd reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("support: zstd read: %w", err)
	}
	return out, nil
}
