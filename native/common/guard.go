// Package common carries the cross-module plumbing shared by the native
// accounting modules.
package common

import "errors"

// ErrModulePaused is returned by Guard when the host has halted a flow.
var ErrModulePaused = errors.New("module paused")

// PauseView lets the host halt individual flows (for example "lending" or
// "rewards") without the core knowing how the switches are governed.
type PauseView interface {
	IsPaused(flow string) bool
}

// Guard returns ErrModulePaused when the named flow is halted. A nil view
// means nothing is paused.
func Guard(p PauseView, flow string) error {
	if p == nil || flow == "" {
		return nil
	}
	if p.IsPaused(flow) {
		return ErrModulePaused
	}
	return nil
}
