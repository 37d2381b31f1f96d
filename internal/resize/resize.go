// Package resize scales stored payloads down to a bounding box. It is a pure
// byte-to-byte transform: decode, fit inside the target box preserving aspect
// ratio (never upscaling or cropping), re-encode. A payload that cannot be
// decoded or re-encoded is returned unchanged so that retrieval stays
// available even for malformed stored data.
package resize

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"firewatch/internal/models"
)

type Service struct {
	mode    string
	quality int
}

func New(cfg models.ResizeConfig) *Service {
	return &Service{mode: cfg.Mode, quality: cfg.Quality}
}

// Fit returns the payload scaled to fit inside width x height. On any
// processing failure the original payload comes back unchanged; the error is
// logged, never propagated.
func (s *Service) Fit(payload []byte, width, height int) []byte {
	out, err := s.transform(payload, width, height)
	if err != nil {
		slog.Debug("resize fallback to original payload", "error", err)
		return payload
	}
	return out
}

func (s *Service) transform(payload []byte, width, height int) ([]byte, error) {
	const op = "resize.transform"

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%s: non-positive target %dx%d", op, width, height)
	}

	img, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	fitted := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if s.mode == models.ResizeModeRecompress {
		// Lossy recompression regardless of source format.
		err = imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(s.quality))
	} else {
		var outFormat imaging.Format
		outFormat, err = imaging.FormatFromExtension(format)
		if err == nil {
			err = imaging.Encode(&buf, fitted, outFormat)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return buf.Bytes(), nil
}
