/*
NAME
  watch.go

DESCRIPTION
  watch.go implements calibration-folder watching: a single goroutine
  that re-runs the noise-floor fitter whenever a relevant capture file
  changes, serialising runs so two fits never overlap. It notifies
  systemd readiness once the first pass has completed, for use under
  a unit with Type=notify.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/daemon"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

// FitFunc performs one calibration pass. Watch calls it once up
// front and again after every relevant filesystem event.
type FitFunc func() error

// Watch blocks until ctx is cancelled, calling fit once immediately
// and again each time a file under folder matching the
// "avgSamples.dat_*" or clip-check naming convention is created or
// written. Runs never overlap: an event arriving mid-fit waits until
// the current run finishes and then triggers a run of its own.
func Watch(ctx context.Context, folder string, fit FitFunc, log logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "calib: creating filesystem watcher")
	}
	defer w.Close()

	if err := w.Add(folder); err != nil {
		return errors.Wrapf(err, "calib: watching %s", folder)
	}

	if err := fit(); err != nil {
		log.Error("calib: initial calibration pass failed", "error", err)
	}
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warning("calib: systemd readiness notification failed", "error", err)
	} else if !ok {
		log.Debug("calib: not running under a systemd notify unit")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("calib: watcher event channel closed")
			}
			if !relevantCaptureEvent(ev) {
				continue
			}
			// A single watcher goroutine means this can never race
			// with another fit() call: every event is handled to
			// completion before the next Events receive.
			if err := fit(); err != nil {
				log.Error("calib: calibration pass failed", "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("calib: watcher error channel closed")
			}
			log.Error("calib: filesystem watcher error", "error", err)
		}
	}
}

func relevantCaptureEvent(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasPrefix(name, "avgSamples.dat_") || name == DefaultClipCheckFilename
}
