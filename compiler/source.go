package compiler

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeSource converts raw file contents into source text. A UTF-16
// byte order mark selects UTF-16 decoding, a UTF-8 one is dropped, and
// anything else is read as UTF-8 with invalid bytes replaced by U+FFFD.
func DecodeSource(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", errors.Wrap(err, "decoding source")
	}
	return string(text), nil
}

// Source is a named program text.
type Source struct {
	Name string
	Text string
}

// CompileAll compiles independent sources concurrently. Units are returned
// in the order of sources. On failure the first error, annotated with the
// source's name, is returned and the remaining compilations are abandoned.
func CompileAll(ctx context.Context, sources []Source, opts Options) ([]*Unit, error) {
	units := make([]*Unit, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			unit, err := Compile(src.Text, opts)
			if err != nil {
				return errors.WithMessage(err, src.Name)
			}
			unit.Name = src.Name
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	tracer().Infof("compiled %d sources", len(sources))
	return units, nil
}
