package xcm

import (
	"encoding/json"
	"math/big"
)

// Outcome holds either a computed value or the reason it could not be
// computed. The value is only reachable through Get or Match, so an
// indeterminate result can never be read as a number.
type Outcome[T any] struct {
	value  T
	reason string
	known  bool
}

// Known wraps a computed value
func Known[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, known: true}
}

// Indeterminate marks a value that cannot be computed from the data available
func Indeterminate[T any](reason string) Outcome[T] {
	return Outcome[T]{reason: reason}
}

// Get returns the value and whether it is known
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.known
}

// IsKnown reports whether the outcome carries a value
func (o Outcome[T]) IsKnown() bool {
	return o.known
}

// Reason is empty for known outcomes
func (o Outcome[T]) Reason() string {
	return o.reason
}

// Match folds the outcome into R. Both branches must be supplied.
func Match[T, R any](o Outcome[T], known func(T) R, indeterminate func(reason string) R) R {
	if o.known {
		return known(o.value)
	}
	return indeterminate(o.reason)
}

// MapOutcome applies f to a known value and forwards an indeterminate reason unchanged
func MapOutcome[T, R any](o Outcome[T], f func(T) R) Outcome[R] {
	if o.known {
		return Known(f(o.value))
	}
	return Indeterminate[R](o.reason)
}

type indeterminateJSON struct {
	Indeterminate bool   `json:"indeterminate"`
	Reason        string `json:"reason"`
}

func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	if o.known {
		return json.Marshal(o.value)
	}
	return json.Marshal(indeterminateJSON{Indeterminate: true, Reason: o.reason})
}

func (o *Outcome[T]) UnmarshalJSON(data []byte) error {
	var marker indeterminateJSON
	if err := json.Unmarshal(data, &marker); err == nil && marker.Indeterminate {
		*o = Indeterminate[T](marker.Reason)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Known(v)
	return nil
}

// AmountOutcome is the outcome type of every derived monetary quantity
type AmountOutcome = Outcome[*big.Int]
