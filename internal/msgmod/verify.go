package msgmod

import (
	"context"

	"github.com/incognito-design/msgmod/internal/jsast"
)

// Verify re-parses transformed output and reports the first syntax error.
func Verify(ctx context.Context, path string, output []byte) error {
	if _, err := jsast.Parse(ctx, path, output); err != nil {
		return fileError(path, PhaseVerify, err)
	}
	return nil
}
