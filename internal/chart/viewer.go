package chart

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

// Viewer presents a rendered chart. Show blocks until the chart is dismissed.
type Viewer interface {
	Show(ctx context.Context, c Chart) error
}

// NopViewer only logs where each chart was written.
type NopViewer struct {
	logger *zap.Logger
}

func NewNopViewer(logger *zap.Logger) *NopViewer {
	return &NopViewer{logger: logger}
}

func (v *NopViewer) Show(_ context.Context, c Chart) error {
	v.logger.Info("Chart saved", zap.String("title", c.Title), zap.String("path", c.Path))
	return nil
}

// SystemViewer opens each chart with the platform's default image viewer and waits
// for the user to confirm before the run continues.
type SystemViewer struct {
	logger  *zap.Logger
	open    func(path string) error
	confirm func(label string) error
}

func NewSystemViewer(logger *zap.Logger) *SystemViewer {
	return &SystemViewer{logger: logger, open: openFile, confirm: confirmPrompt}
}

func (v *SystemViewer) Show(ctx context.Context, c Chart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.open(c.Path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrViewFailed, c.Path, err)
	}
	v.logger.Debug("Chart opened", zap.String("path", c.Path))

	if err := v.confirm(fmt.Sprintf("%s (press Enter to continue)", c.Title)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrViewFailed, c.Path, err)
	}
	return nil
}

func openFile(path string) error {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", path).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path).Start()
	case "darwin":
		return exec.Command("open", path).Start()
	default:
		return fmt.Errorf("unsupported platform %q", runtime.GOOS)
	}
}

func confirmPrompt(label string) error {
	prompt := promptui.Prompt{Label: label}
	_, err := prompt.Run()
	return err
}

// Recorder counts rendered charts.
type Recorder interface {
	ChartRendered(kind string)
}

// Sink renders a chart and hands it to a Viewer.
type Sink struct {
	renderer *Renderer
	viewer   Viewer
	recorder Recorder
	logger   *zap.Logger
}

func NewSink(renderer *Renderer, viewer Viewer, recorder Recorder, logger *zap.Logger) *Sink {
	return &Sink{renderer: renderer, viewer: viewer, recorder: recorder, logger: logger}
}

// Show draws one chart and presents it. A chart with nothing to plot is skipped
// with a warning and an empty Chart is returned.
func (s *Sink) Show(ctx context.Context, draw func(*Renderer) (Chart, error)) (Chart, error) {
	c, err := draw(s.renderer)
	if errors.Is(err, ErrNoData) {
		s.logger.Warn("Chart skipped", zap.Error(err))
		return Chart{}, nil
	}
	if err != nil {
		return Chart{}, err
	}
	s.recorder.ChartRendered(string(c.Kind))

	if err := s.viewer.Show(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}
