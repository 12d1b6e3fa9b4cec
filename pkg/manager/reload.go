package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ajitpratap0/mcp-client-go/pkg/config"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
)

// Reload brings the managed set in line with servers. Entries that are gone
// or disabled are removed, changed entries are replaced and new ones added.
// Unchanged servers keep their connection. Every change is attempted and the
// failures are joined.
func (m *Manager) Reload(ctx context.Context, servers map[string]config.ServerConfig) error {
	m.mu.RLock()
	current := make(map[string]config.ServerConfig, len(m.servers))
	for id, entry := range m.servers {
		current[id] = entry.config
	}
	m.mu.RUnlock()

	var errs []error
	var removed, replaced, added int

	for _, id := range sortedKeys(current) {
		next, ok := servers[id]
		if ok && !next.Disabled && next.Equal(current[id]) {
			continue
		}
		if err := m.RemoveServer(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok || next.Disabled {
			removed++
			continue
		}
		if err := m.AddServer(ctx, id, next); err != nil {
			errs = append(errs, fmt.Errorf("replace server %q: %w", id, err))
			continue
		}
		replaced++
	}

	for _, id := range sortedKeys(servers) {
		cfg := servers[id]
		if _, exists := current[id]; exists || cfg.Disabled {
			continue
		}
		if err := m.AddServer(ctx, id, cfg); err != nil {
			errs = append(errs, fmt.Errorf("add server %q: %w", id, err))
			continue
		}
		added++
	}

	m.logger.Info("Configuration reloaded",
		logging.Int("added", added),
		logging.Int("replaced", replaced),
		logging.Int("removed", removed),
		logging.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

// WatchConfigFile reloads the server file at path whenever it is written,
// until ctx is done. A file that fails to parse is logged and ignored, so the
// running set stays as it was. The directory is watched rather than the file
// so editors that replace the file by renaming are followed.
func (m *Manager) WatchConfigFile(ctx context.Context, path string) error {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch server configuration: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch server configuration: %w", err)
	}

	logger := m.logger.WithFields(logging.String("path", path))
	logger.Info("Watching server configuration")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			f, err := config.Load(path)
			if err != nil {
				logger.Warn("Ignoring unreadable server configuration", logging.ErrorField(err))
				continue
			}
			if err := m.Reload(ctx, f.MCPServers); err != nil {
				logger.Warn("Configuration reload had failures", logging.ErrorField(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Configuration watcher error", logging.ErrorField(err))
		}
	}
}
