package drilldown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/tracelens/internal/analysis"
	"github.com/sanspareilsmyn/tracelens/internal/trace"
)

// CloseItem is the list entry that closes the selector.
const CloseItem = "[close]"

// ErrPickerClosed reports that the user dismissed the picker (Ctrl-C, Ctrl-D).
var ErrPickerClosed = errors.New("picker closed")

// Picker asks the user to choose one of items. It blocks until a choice is made or
// the picker is dismissed.
type Picker interface {
	Pick(label string, items []string) (string, error)
}

// Handler is invoked once per chosen application.
type Handler func(ctx context.Context, view *AppView) error

// Selector offers the applications with more than one function and drills into each
// one the user picks until the user closes it.
type Selector struct {
	table   *trace.Table
	picker  Picker
	handler Handler
	logger  *zap.Logger
}

func NewSelector(t *trace.Table, picker Picker, handler Handler, logger *zap.Logger) *Selector {
	return &Selector{table: t, picker: picker, handler: handler, logger: logger}
}

// Run blocks until the user closes the picker. It returns ErrSelection without
// prompting when no application qualifies.
func (s *Selector) Run(ctx context.Context) error {
	apps := analysis.EligibleApps(s.table)
	if len(apps) == 0 {
		return fmt.Errorf("%w: %w", ErrSelection, ErrNoEligibleApps)
	}
	s.logger.Info("Selector opened", zap.Int("eligible_apps", len(apps)))
	items := append(slices.Clone(apps), CloseItem)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, err := s.picker.Pick("Select an application", items)
		if errors.Is(err, ErrPickerClosed) || (err == nil && choice == CloseItem) {
			s.logger.Info("Selector closed")
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSelection, err)
		}

		view, err := Select(s.table, choice)
		if err != nil {
			return err
		}
		s.logger.Debug("Application selected",
			zap.String("app", view.App),
			zap.Int("functions", len(view.Functions)),
			zap.Int("calls", len(view.Calls)),
		)
		if err := s.handler(ctx, view); err != nil {
			return err
		}
	}
}

// PromptPicker is a searchable terminal list backed by promptui.
type PromptPicker struct{}

func (PromptPicker) Pick(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label:    label,
		Items:    items,
		Size:     10,
		Stdout:   &bellSkipper{},
		Searcher: searcher(items),
		Keys: &promptui.SelectKeys{
			Prev:     promptui.Key{Code: promptui.KeyPrev, Display: promptui.KeyPrevDisplay},
			Next:     promptui.Key{Code: promptui.KeyNext, Display: promptui.KeyNextDisplay},
			PageUp:   promptui.Key{Code: promptui.KeyBackward, Display: promptui.KeyBackwardDisplay},
			PageDown: promptui.Key{Code: promptui.KeyForward, Display: promptui.KeyForwardDisplay},
			Search:   promptui.Key{Code: '/', Display: "/"},
		},
	}
	_, result, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return "", ErrPickerClosed
	}
	return result, err
}

func searcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		return strings.Contains(items[index], input)
	}
}

// bellSkipper drops the terminal bell promptui writes on every keystroke
// (https://github.com/manifoldco/promptui/issues/49).
type bellSkipper struct{}

func (bs *bellSkipper) Write(b []byte) (int, error) {
	const charBell = 7
	if len(b) == 1 && b[0] == charBell {
		return 0, nil
	}
	return os.Stderr.Write(b)
}

// Close leaves stderr open: the picker runs many times and the logger writes there too.
func (bs *bellSkipper) Close() error {
	return nil
}
