// Package statsview serves live runtime statistics of the emulator over HTTP.
// It's only functional when built with the statsview build tag:
//
//	go build -tags statsview
//
// Once launched, graphs are viewable at localhost:12650/debug/statsview and
// pprof data at localhost:12650/debug/pprof/.
package statsview
