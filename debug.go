// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package compack

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// A debugLog writes leveled diagnostic lines to a per-identity log file.
// Verbosity v maps to slog level -v, so a message logged at verbosity n is
// written only when the configured threshold exceeds n.
type debugLog struct {
	path   string
	file   *os.File
	level  slog.LevelVar
	logger *slog.Logger
}

// logFileName returns the name of the debug log for the given identity on the
// given day: MMdd-<user>_<machine>.log.
func logFileName(now time.Time, user, machine string) string {
	return now.Format("0102") + "-" + SanitizeName(user) + "_" + machine + ".log"
}

// open returns a logger writing to path, reopening the file if the path has
// changed since the last call.
func (d *debugLog) open(path string, threshold int) *slog.Logger {
	d.level.Set(slog.Level(1 - threshold))
	if d.file != nil && d.path == path {
		return d.logger
	}
	d.close()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	d.path, d.file = path, f
	d.logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: &d.level}))
	return d.logger
}

func (d *debugLog) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.logger, d.path = nil, nil, ""
	return err
}

// Debug writes msg to the channel's debug log if the DEBUG setting exceeds
// level. Logging never fails the caller; a log that cannot be opened is
// silently skipped.
func (c *Core) Debug(level int, msg string, attrs ...any) {
	if c.Settings.Debug <= level {
		return
	}
	dir := c.Settings.LogDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, logFileName(time.Now(), c.Settings.UserName, c.MachineName()))
	lg := c.dlog.open(path, c.Settings.Debug)
	if lg == nil {
		return
	}
	lg.Log(context.Background(), slog.Level(-level), strings.ReplaceAll(msg, "\n", ""),
		append([]any{"iid", c.InstanceID}, attrs...)...)
}

// SweepLogs deletes debug logs in dir that were not written today, judged by
// their MMdd- name prefix. It returns the number of files removed. Failures to
// remove individual files are joined into the returned error and do not stop
// the sweep.
func SweepLogs(dir string, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	today := now.Format("0102")
	var n int
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".log" || !isDatePrefix(name) {
			continue
		} else if name[:4] == today {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			n++
		} else if !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return n, errors.Join(errs...)
}

// isDatePrefix reports whether name begins with four digits and a hyphen.
func isDatePrefix(name string) bool {
	if len(name) < 5 || name[4] != '-' {
		return false
	}
	for _, c := range name[:4] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
