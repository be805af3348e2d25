package observability

import (
	"encoding/json"
	"errors"
	"io/fs"
	"time"
)

// IOObserver times a logical file operation.
type IOObserver interface {
	ObserveIO(op string, fn func() error) error
}

// NopIO runs fn without recording anything.
type NopIO struct{}

func (NopIO) ObserveIO(_ string, fn func() error) error { return fn() }

func (p *Prom) ObserveIO(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.IOErrorsTotal.WithLabelValues(op, classifyIOErr(err)).Inc()
	}
	p.IODuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyIOErr(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "not_found"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return "parse"
	default:
		return "unknown"
	}
}
