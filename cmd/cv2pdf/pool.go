package main

import (
	"context"
	"fmt"

	cv2pdf "github.com/alnah/go-cv2pdf"
)

// CLIConverter is the part of the converter the render command uses.
type CLIConverter interface {
	Convert(ctx context.Context, input cv2pdf.Input) (*cv2pdf.Result, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*cv2pdf.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (CLIConverter, error)
	Release(CLIConverter)
	Size() int
}

// poolAdapter exposes a *cv2pdf.ConverterPool as a Pool.
type poolAdapter struct {
	pool *cv2pdf.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

func newPoolAdapter(pool *cv2pdf.ConverterPool) *poolAdapter {
	return &poolAdapter{pool: pool}
}

func (a *poolAdapter) Acquire() (CLIConverter, error) {
	conv, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics if c did not come from Acquire (programmer error).
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*cv2pdf.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) Close() error {
	return a.pool.Close()
}
