package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/adboard/internal/pkg/ctxlog"
	"github.com/bissquit/adboard/internal/pkg/validation"
)

// ErrorMapping maps a sentinel error to a status. Message overrides the
// sentinel's own text.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

func (m ErrorMapping) message() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Error.Error()
}

// HandleError writes the response for err. Validation failures come first,
// then the first mapping whose sentinel matches with errors.Is. Anything else
// is logged and reported as a generic 500 so wrapped detail never reaches
// the client.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	if validation.IsValidationError(err) {
		ValidationError(w, err)
		return
	}

	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			Error(w, m.Status, m.message())
			return
		}
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
