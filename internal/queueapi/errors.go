package queueapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork marks failures where the request never produced a response.
	ErrNetwork = errors.New("network error")
	// ErrServer marks non-2xx responses from the backend.
	ErrServer = errors.New("server error")
	// ErrDataShape marks responses whose body is not the expected shape.
	ErrDataShape = errors.New("unexpected response shape")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "request failure"
	}
	return strings.Join(parts, ": ")
}
