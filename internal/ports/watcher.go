package ports

// Watcher monitors a single file for changes (the system prompt file).
// The adapter (fsnotify) watches the parent directory so that editors that
// replace the file on save are still observed, and filters events down to
// the watched file before invoking onChange. Only one Watch call should be
// active at a time.
type Watcher interface {
	// Watch starts monitoring path. onChange is called with the absolute
	// path of the file after each write, create or rename. The callback may
	// be invoked from any goroutine. Returns an error if the parent directory
	// doesn't exist or permissions are insufficient.
	Watch(path string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
