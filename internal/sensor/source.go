package sensor

import (
	"aquamind/internal/models"
)

// Source supplies single raw readings for one parameter in its physical
// unit. Implementations may be backed by real hardware channels or by the
// simulator; callers never learn which.
type Source interface {
	Parameter() models.Parameter
	Read() float64
}

// SourceFunc adapts a plain read function into a Source.
type SourceFunc struct {
	Param models.Parameter
	Fn    func() float64
}

func (s SourceFunc) Parameter() models.Parameter { return s.Param }

func (s SourceFunc) Read() float64 { return s.Fn() }
