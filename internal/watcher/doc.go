// Package watcher turns changes in a components directory into component
// lifecycle callbacks. Each manifest file describes one component; the
// directory is rescanned after filesystem activity settles and the resulting
// diff is reported to a Sink as added, modified and removed components.
package watcher
