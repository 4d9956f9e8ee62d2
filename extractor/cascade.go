package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Kind is the shape of the value a cascade produces.
type Kind string

const (
	KindText   Kind = "text"
	KindHTML   Kind = "html"
	KindImages Kind = "image-list"
)

// Probe is one self-contained attempt at producing a field value.
type Probe[T any] struct {
	Name string
	Run  func(ctx context.Context, p Page) (T, error)
}

// Cascade is an ordered list of probes for one field. The first probe that
// yields a non-empty value wins. Probes are never retried.
type Cascade[T any] struct {
	Field  string
	Kind   Kind
	Probes []Probe[T]
}

// NewCascade builds a cascade for field.
func NewCascade[T any](field string, kind Kind, probes ...Probe[T]) Cascade[T] {
	return Cascade[T]{Field: field, Kind: kind, Probes: probes}
}

// Then returns a copy of c with probes appended.
func (c Cascade[T]) Then(probes ...Probe[T]) Cascade[T] {
	out := make([]Probe[T], 0, len(c.Probes)+len(probes))
	out = append(out, c.Probes...)
	c.Probes = append(out, probes...)
	return c
}

// Run executes the probes in order. A probe that errors or panics is logged
// at debug level and skipped. When every probe comes up empty Run returns
// the zero value of T.
func (c Cascade[T]) Run(ctx context.Context, p Page, log *slog.Logger) T {
	var zero T
	for _, probe := range c.Probes {
		v, err := runProbe(ctx, p, probe)
		if err != nil {
			log.Debug("probe failed", "field", c.Field, "probe", probe.Name, "error", err)
			continue
		}
		if isEmpty(v) {
			continue
		}
		log.Debug("probe matched", "field", c.Field, "probe", probe.Name)
		return v
	}
	return zero
}

func runProbe[T any](ctx context.Context, p Page, probe Probe[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return probe.Run(ctx, p)
}

type emptiable interface {
	IsEmpty() bool
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case []string:
		return len(x) == 0
	case emptiable:
		return x.IsEmpty()
	}
	return v == nil
}
