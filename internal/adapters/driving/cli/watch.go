package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditkit/internal/logger"
)

var templateWatchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Revalidate a template file every time it is saved",
	Long: `Watches a template file and reports validation issues and weight
adjustments after each save. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateWatch,
}

// watchDebounce collapses the burst of events editors emit for one save.
const watchDebounce = 150 * time.Millisecond

// watchAction is what a file system event means for the watched template.
type watchAction int

const (
	watchIgnore watchAction = iota
	watchRevalidate
	watchRemoved
)

// templateWatcher revalidates one template file.
type templateWatcher struct {
	path string
	out  io.Writer
}

func newTemplateWatcher(path string, out io.Writer) (*templateWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &templateWatcher{path: abs, out: out}, nil
}

// handleFsEvent classifies an event from the watched directory.
// The directory is watched rather than the file so that editors which
// save by renaming a temporary file are still followed.
func (w *templateWatcher) handleFsEvent(event fsnotify.Event) watchAction {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.path {
		return watchIgnore
	}
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		return watchRevalidate
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return watchRemoved
	default:
		return watchIgnore
	}
}

// check validates the file and prints the findings. Decode failures are
// reported, not returned, so the watch keeps running.
func (w *templateWatcher) check() {
	st := stylesFor(w.out)
	fmt.Fprintf(w.out, "%s %s\n", st.Render(st.Muted, time.Now().Format("15:04:05")), w.path)

	t, _, err := readTemplateFile(w.path)
	if err != nil {
		fmt.Fprintln(w.out, st.Render(st.Error, err.Error()))
		return
	}
	renderValidation(w.out, st, templateService.Validate(t))
	renderAdjustments(w.out, st, templateService.Normalize(t).Adjustments)
	fmt.Fprintln(w.out)
}

// run blocks until ctx is done or the watcher fails.
func (w *templateWatcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	logger.Debug("watching %s", w.path)

	w.check()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			switch w.handleFsEvent(event) {
			case watchRevalidate:
				pending = time.After(watchDebounce)
			case watchRemoved:
				st := stylesFor(w.out)
				fmt.Fprintln(w.out, st.Render(st.Warning, "File removed; waiting for it to reappear."))
			case watchIgnore:
			}

		case <-pending:
			pending = nil
			w.check()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func runTemplateWatch(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	w, err := newTemplateWatcher(args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return w.run(cmd.Context())
}
