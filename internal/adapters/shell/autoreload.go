package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bnema/nbassist/internal/reload"
	"github.com/fsnotify/fsnotify"
	"go.starlark.net/starlark"
)

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// startAutoreload watches the directory of every imported module. Events
// are only consumed by applyAutoreload, so nothing reloads between cells.
func (s *Shell) startAutoreload() error {
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start autoreload: %w", err)
	}
	s.watcher = watcher

	for _, m := range s.files {
		s.watchModule(m)
	}

	return nil
}

func (s *Shell) stopAutoreload() error {
	if s.watcher == nil {
		return nil
	}

	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func (s *Shell) watchModule(m *reload.Module) {
	if s.watcher == nil {
		return
	}

	if err := s.watcher.Add(filepath.Dir(m.File())); err != nil {
		s.log.Warn().Err(err).Str("module", m.Name()).Msg("cannot watch module")
	}
}

// applyAutoreload reloads every module whose file changed since the last
// cell, then rebinds cell names that still held the old definitions.
func (s *Shell) applyAutoreload(ctx context.Context) {
	changed := s.drainEvents()
	if len(changed) == 0 {
		return
	}

	sort.Slice(changed, func(i, j int) bool { return changed[i].Name() < changed[j].Name() })
	for _, m := range changed {
		old := m.Globals()
		if _, err := s.engine.Reload(ctx, m); err != nil {
			fmt.Fprintf(s.out, "autoreload %s: %v\n", m.Name(), err)
			continue
		}
		s.rebind(old, m.Globals())
		fmt.Fprintf(s.out, "autoreloaded %s\n", m.Name())
	}
}

func (s *Shell) drainEvents() []*reload.Module {
	if s.watcher == nil {
		return nil
	}

	seen := map[*reload.Module]bool{}
	var changed []*reload.Module
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return changed
			}
			if event.Op&changeOps == 0 {
				continue
			}
			m, ok := s.files[filepath.Clean(event.Name)]
			if ok && !seen[m] {
				seen[m] = true
				changed = append(changed, m)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return changed
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				s.log.Warn().Err(err).Msg("autoreload watcher error")
			}
		default:
			return changed
		}
	}
}

func (s *Shell) rebind(old starlark.StringDict, current starlark.StringDict) {
	for cellName, v := range s.cell {
		fn, ok := v.(*starlark.Function)
		if !ok {
			continue
		}
		for name, prev := range old {
			if prevFn, ok := prev.(*starlark.Function); ok && prevFn == fn {
				if next, ok := current[name]; ok {
					s.cell[cellName] = next
				}
			}
		}
	}
}
