package mailbox

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch signals on the returned channel when a file lands in the inbox
// signals coalesce: at most one is pending at a time. The channel closes when ctx ends
func (s *Spool) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.InboxDir()); err != nil {
		_ = w.Close()
		return nil, err
	}
	wake := make(chan struct{}, 1)
	go func() {
		defer close(wake)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Write) {
					continue
				}
				if !strings.HasSuffix(ev.Name, ".json") {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("inbox watch error")
			}
		}
	}()
	return wake, nil
}
