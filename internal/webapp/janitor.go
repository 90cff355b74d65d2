package webapp

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// janitor deletes temporary files after a delay. Close removes every file
// still pending.
type janitor struct {
	delay  time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newJanitor(delay time.Duration, logger *zap.Logger) *janitor {
	return &janitor{
		delay:  delay,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

func (j *janitor) schedule(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed || j.delay <= 0 {
		j.remove(path)
		return
	}
	if t, ok := j.timers[path]; ok {
		t.Stop()
	}
	j.timers[path] = time.AfterFunc(j.delay, func() { j.fire(path) })
}

func (j *janitor) fire(path string) {
	j.mu.Lock()
	delete(j.timers, path)
	j.mu.Unlock()
	j.remove(path)
}

// forget drops a pending deletion without touching the file.
func (j *janitor) forget(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if t, ok := j.timers[path]; ok {
		t.Stop()
		delete(j.timers, path)
	}
}

func (j *janitor) pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.timers)
}

func (j *janitor) Close() {
	j.mu.Lock()
	j.closed = true
	paths := make([]string, 0, len(j.timers))
	for path, t := range j.timers {
		t.Stop()
		paths = append(paths, path)
	}
	j.timers = map[string]*time.Timer{}
	j.mu.Unlock()

	for _, path := range paths {
		j.remove(path)
	}
}

func (j *janitor) remove(path string) {
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("remove temp file", zap.String("path", path), zap.Error(err))
		}
		return
	}
	j.logger.Debug("removed temp file", zap.String("path", path))
}
