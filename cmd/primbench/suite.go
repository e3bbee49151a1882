package main

import (
	"errors"

	"github.com/LynnColeArt/gudaprim"
	"github.com/LynnColeArt/gudaprim/efficient"
	"github.com/LynnColeArt/gudaprim/naive"
	"github.com/LynnColeArt/gudaprim/radix"
	"github.com/LynnColeArt/gudaprim/reference"
	"github.com/LynnColeArt/gudaprim/sequential"
)

// suite holds one instance of every implementation on a shared context.
type suite struct {
	ctx       *gudaprim.Context
	cpu       *sequential.Scanner
	naive     *naive.Scanner
	efficient *efficient.Scanner
	reference *reference.Scanner
	radix     *radix.Sorter
}

func newSuite(cfg gudaprim.Config) (*suite, error) {
	ctx, err := gudaprim.NewContext(cfg)
	if err != nil {
		return nil, err
	}
	s := &suite{
		ctx:       ctx,
		cpu:       sequential.New(),
		reference: reference.New(0),
	}
	if s.naive, err = naive.New(ctx); err != nil {
		return nil, errors.Join(err, ctx.Destroy())
	}
	if s.efficient, err = efficient.New(ctx); err != nil {
		return nil, errors.Join(err, ctx.Destroy())
	}
	if s.radix, err = radix.New(ctx, s.efficient); err != nil {
		return nil, errors.Join(err, ctx.Destroy())
	}
	return s, nil
}

// Close destroys the context and with it every stream of the suite.
func (s *suite) Close() error {
	return s.ctx.Destroy()
}
