package http

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// zstdDecoder is shared across responses; zstd.Decoder is safe for
// concurrent DecodeAll calls.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("http: zstd decoder initialization failed: " + err.Error())
	}
}

// decodeContent reverses a Content-Encoding the transport left in place
// (it only decodes gzip it negotiated itself). Unknown encodings are
// returned unchanged.
func decodeContent(encoding string, body []byte) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, fmt.Errorf("gzip body: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, false, fmt.Errorf("gzip body: %w", err)
		}
		return out, true, nil
	case "zstd":
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, false, fmt.Errorf("zstd body: %w", err)
		}
		return out, true, nil
	default:
		return body, false, nil
	}
}
