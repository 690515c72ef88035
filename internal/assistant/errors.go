package assistant

import "errors"

var (
	// ErrGatewayUnavailable marks any failure to get a reply from the model.
	// It is logged and never returned to callers of Ask.
	ErrGatewayUnavailable = errors.New("assistant gateway unavailable")

	ErrBusy          = errors.New("assistant is still answering the previous question")
	ErrEmptyQuestion = errors.New("question is empty")
)
