package entities

import "errors"

// Failure classes. Errors from the run's components wrap one of these so
// callers can tell them apart with errors.Is.
var (
	// ErrBrowser - navigation, element query, property read or action dispatch failed
	ErrBrowser = errors.New("browser failure")
	// ErrProtocol - the model reply does not resolve to an executable action
	ErrProtocol = errors.New("protocol failure")
	// ErrInput - the current page URL, the goal or the run settings are unusable
	ErrInput = errors.New("input failure")
	// ErrModel - the language model call itself failed
	ErrModel = errors.New("model failure")
)
