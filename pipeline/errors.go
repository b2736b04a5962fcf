package pipeline

import (
	"errors"

	"folklorovich/collage"
	"folklorovich/fetch"
	"folklorovich/render"
	"folklorovich/retry"
	"folklorovich/rotation"
	"folklorovich/voice"
)

// Error kinds recorded in the ledger and reported to the operator. Each maps
// one of the adapter/scheduler sentinel errors to a stable name.
const (
	KindEmptyCatalog          = "EmptyCatalog"
	KindQuotaExceeded         = "QuotaExceeded"
	KindNoResults             = "NoResults"
	KindInsufficientMedia     = "InsufficientMedia"
	KindCompositionError      = "CompositionError"
	KindSynthesisError        = "SynthesisError"
	KindRenderValidationError = "RenderValidationError"
	KindRenderError           = "RenderError"
	KindTransientError        = "TransientError"
	KindInternal              = "Internal"
)

// Kind classifies err into one of the ledger error kinds
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rotation.ErrEmptyCatalog):
		return KindEmptyCatalog
	case errors.Is(err, fetch.ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, fetch.ErrNoResults):
		return KindNoResults
	case errors.Is(err, collage.ErrInsufficientMedia):
		return KindInsufficientMedia
	case errors.Is(err, collage.ErrComposition):
		return KindCompositionError
	case errors.Is(err, voice.ErrSynthesis):
		return KindSynthesisError
	case errors.Is(err, render.ErrRenderValidation):
		return KindRenderValidationError
	case errors.Is(err, render.ErrRender):
		return KindRenderError
	case retry.IsTransient(err):
		return KindTransientError
	default:
		return KindInternal
	}
}
