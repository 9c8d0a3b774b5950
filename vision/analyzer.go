// Package vision analyzes food images: it uploads the image to object
// storage, embeds a resized copy into a vision message, and asks the active
// driver to describe it.
package vision

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/calvertml/visionchat"
)

// DefaultPrompt is used when the caller supplies no prompt of their own.
const DefaultPrompt = "Please describe what food items you see in this image in detail."

// ObjectStore is the storage surface the analyzer needs; satisfied by
// *s3util.Store.
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) error
	URL(key string) string
}

// Analyzer runs the image analysis pipeline against one vision-capable
// driver.
type Analyzer struct {
	driver visionchat.Driver
	store  ObjectStore

	// Prompt is the analysis instruction; empty means DefaultPrompt.
	Prompt string
	// Hint is optional extra context about the image.
	Hint string
	// Sink receives streamed description fragments; nil discards them.
	Sink io.Writer
}

// NewAnalyzer creates an Analyzer over an initialized driver and store.
func NewAnalyzer(driver visionchat.Driver, store ObjectStore) *Analyzer {
	return &Analyzer{driver: driver, store: store}
}

// Analyze uploads the image, asks the driver to describe it, and returns the
// stored object's URL together with the generated description.
func (a *Analyzer) Analyze(ctx context.Context, imagePath string) (string, string, error) {
	key := fmt.Sprintf("food_images/%s%s", uuid.New(), filepath.Ext(imagePath))
	if err := a.store.Upload(ctx, imagePath, key); err != nil {
		return "", "", err
	}

	img, err := EncodeImage(imagePath)
	if err != nil {
		return "", "", err
	}

	prompt := a.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	content := prompt + "\n"
	if a.Hint != "" {
		content += fmt.Sprintf("Additional context: %s\n", a.Hint)
	}

	msg, err := visionchat.FormatVisionMessage(a.driver, content, img)
	if err != nil {
		return "", "", err
	}

	log.Info().Str("image", imagePath).Str("key", key).Msg("analyzing image")
	description, err := a.driver.GenerateResponse(ctx, []visionchat.Message{msg}, a.Sink)
	if err != nil {
		return "", "", err
	}
	return a.store.URL(key), description, nil
}
