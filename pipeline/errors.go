package pipeline

import (
	"fmt"

	"twc/css"
)

// DirectiveError reports unusable directive in the stylesheet. It aborts
// processing.
type DirectiveError struct {
	Source  css.Source
	Word    string // offending directive parameter or name
	Message string
}

func (e *DirectiveError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// UnknownVariantError is returned for "@variants" naming a variant nobody
// provides.
type UnknownVariantError struct {
	Source  css.Source
	Variant string
}

func (e *UnknownVariantError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: variant %q is not available", e.Source, e.Variant)
}

// SelectorWarning is delivered to the warning callback when a selector
// cannot be rewritten. The selector is left as is.
type SelectorWarning struct {
	Source   css.Source
	Selector string
	Variant  string
	Message  string
}

func (w *SelectorWarning) Error() string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s (selector %q, variant %q)", w.Source, w.Message, w.Selector, w.Variant)
}

// ProcessError tells which pass failed.
type ProcessError struct {
	Pass string
	Err  error
}

func (e *ProcessError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Pass, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ProcessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

const noClassesMessage = "Variant cannot be generated because selector contains no classes."
