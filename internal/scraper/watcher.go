package scraper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/pkg/log"
	"github.com/fsnotify/fsnotify"
)

// Watch re-runs the party or encounter category when files below its
// directory change. Bursts of events are coalesced for Config.Debounce.
// Watch blocks until ctx is done.
func (s *Scraper) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	l := log.Ctx(ctx)
	for _, dir := range s.watchDirs() {
		if err := w.Add(dir); err != nil {
			l.Warn().Err(err).Str("dir", dir).Msg("directory not watched")
		}
	}

	debounce := newDebouncer(s.config.Debounce, func(c domain.Category) {
		if err := s.Run(ctx, c); err != nil {
			l.Warn().Err(err).Str(log.FieldCategory, string(c)).Msg("category reloaded with errors")
		}
	})
	defer debounce.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			category, ok := s.categoryOf(ev.Name)
			if !ok {
				continue
			}
			// New party directories need their own watch.
			if ev.Has(fsnotify.Create) && category == domain.CategoryParty {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.Add(ev.Name)
				}
			}
			l.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("source file changed")
			debounce.trigger(category)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// watchDirs lists the encounter dir, the party dir and every party sub-directory.
func (s *Scraper) watchDirs() []string {
	var dirs []string
	if s.config.EncounterDir != "" {
		dirs = append(dirs, s.config.EncounterDir)
	}
	if s.config.PartyDir != "" {
		dirs = append(dirs, s.config.PartyDir)
		if entries, err := os.ReadDir(s.config.PartyDir); err == nil {
			for _, e := range entries {
				if e.IsDir() {
					dirs = append(dirs, filepath.Join(s.config.PartyDir, e.Name()))
				}
			}
		}
	}
	return dirs
}

func (s *Scraper) categoryOf(path string) (domain.Category, bool) {
	switch {
	case within(s.config.PartyDir, path):
		return domain.CategoryParty, true
	case within(s.config.EncounterDir, path):
		return domain.CategoryEncounter, true
	default:
		return "", false
	}
}

func within(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// debouncer runs fn once per category after events stop arriving for delay.
type debouncer struct {
	delay  time.Duration
	fn     func(domain.Category)
	mu     sync.Mutex
	timers map[domain.Category]*time.Timer
}

func newDebouncer(delay time.Duration, fn func(domain.Category)) *debouncer {
	return &debouncer{delay: delay, fn: fn, timers: make(map[domain.Category]*time.Timer)}
}

func (d *debouncer) trigger(c domain.Category) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[c]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[c] == t {
			delete(d.timers, c)
		}
		d.mu.Unlock()
		d.fn(c)
	})
	d.timers[c] = t
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for c, t := range d.timers {
		t.Stop()
		delete(d.timers, c)
	}
}
