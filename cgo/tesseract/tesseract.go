//go:build cgo

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.Recognizer = (*Engine)(nil)

// Engine runs Tesseract with one client per call, so concurrent calls
// never share recogniser state.
type Engine struct {
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// New creates a Tesseract recogniser. An empty tessdataPrefix uses the
// library default or TESSDATA_PREFIX.
func New(tessdataPrefix string) (*Engine, error) {
	return &Engine{tessdataPrefix: tessdataPrefix, clientFactory: gosseract.NewClient}, nil
}

// Name returns the engine name and library version.
func (e *Engine) Name() string {
	return "tesseract " + gosseract.Version()
}

type outcome struct {
	rec driven.Recognition
	err error
}

// Recognize reads the text of img. Tesseract cannot be interrupted, so a
// cancelled call returns at once and the client is closed when the
// recogniser finishes in the background.
func (e *Engine) Recognize(ctx context.Context, img image.Image, languages []string) (driven.Recognition, error) {
	if err := ctx.Err(); err != nil {
		return driven.Recognition{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return driven.Recognition{}, fmt.Errorf("tesseract: encode image: %w", err)
	}

	done := make(chan outcome, 1)
	go func() {
		c := e.clientFactory()
		defer c.Close()
		rec, err := e.recognize(c, buf.Bytes(), languages)
		done <- outcome{rec: rec, err: err}
	}()

	select {
	case <-ctx.Done():
		return driven.Recognition{}, ctx.Err()
	case out := <-done:
		return out.rec, out.err
	}
}

func (e *Engine) recognize(c *gosseract.Client, data []byte, languages []string) (driven.Recognition, error) {
	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return driven.Recognition{}, fmt.Errorf("tesseract: set tessdata prefix: %w", err)
		}
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return driven.Recognition{}, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}
	// Blocks arrive already segmented, so each crop is a single uniform block.
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return driven.Recognition{}, fmt.Errorf("tesseract: set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return driven.Recognition{}, fmt.Errorf("tesseract: set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return driven.Recognition{}, fmt.Errorf("tesseract: recognize: %w", err)
	}

	words, mean := extractWords(c)
	return driven.Recognition{
		Text:       strings.TrimSpace(text),
		Confidence: mean,
		Words:      words,
	}, nil
}

// extractWords returns per-word boxes with confidences scaled to [0,1].
func extractWords(c *gosseract.Client) ([]driven.RecognizedWord, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]driven.RecognizedWord, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		conf := b.Confidence / 100
		sum += conf
		words = append(words, driven.RecognizedWord{Text: b.Word, Confidence: conf, Bounds: b.Box})
	}
	if len(words) == 0 {
		return nil, 0
	}
	return words, sum / float64(len(words))
}

// Close releases resources. Clients are per call.
func (e *Engine) Close() error {
	return nil
}
