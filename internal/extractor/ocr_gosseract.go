package extractor

import (
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine implements OCREngine over the tesseract binding. The
// underlying client is not safe for concurrent use, so calls are
// serialized with a mutex.
type GosseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewGosseractEngine builds an OCR engine bound to the installed tesseract
// data files.
func NewGosseractEngine() *GosseractEngine {
	return &GosseractEngine{client: gosseract.NewClient()}
}

// Close releases the underlying tesseract handle.
func (g *GosseractEngine) Close() error {
	return g.client.Close()
}

func (g *GosseractEngine) RecognizeText(imageBytes []byte) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.client.SetImageFromBytes(imageBytes); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := g.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
