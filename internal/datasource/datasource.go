// Package datasource abstracts where input workbooks come from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one input file.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
