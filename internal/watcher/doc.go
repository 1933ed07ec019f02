// Package watcher monitors template base paths for newly appeared files.
//
// Each watched template gets its own recursive fsnotify watcher; directories
// created at runtime are added automatically. A file is reported only after
// its size and modification time have been stable for the configured
// quiescence window, so consumers never see a file mid-write. All templates
// share one typed event channel, and a failure on one watch never disturbs
// the others.
package watcher
