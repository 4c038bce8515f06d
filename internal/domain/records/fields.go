package records

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrMalformed indica un documento con campos requeridos ausentes o de tipo inválido.
var ErrMalformed = errors.New("malformed record")

// Nombres de colección.
const (
	CollectionUsers       = "users"
	CollectionStores      = "stores"
	CollectionWithdrawals = "withdrawals"
)

func malformed(collection, id, field, reason string) error {
	return fmt.Errorf("%w: %s/%s field %q %s", ErrMalformed, collection, id, field, reason)
}

// stringField lee un string. Ausente o nil devuelve "" y ok=false.
func stringField(f map[string]any, key string) (string, bool, error) {
	v, present := f[key]
	if !present || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("expected string, got %T", v)
	}
	return s, true, nil
}

// int64Field acepta los tipos numéricos que devuelven los distintos drivers:
// int64 (firestore), float64 (JSON), json.Number, e int (memoria).
func int64Field(f map[string]any, key string) (int64, bool, error) {
	v, present := f[key]
	if !present || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int64:
		return n, true, nil
	case int:
		return int64(n), true, nil
	case int32:
		return int64(n), true, nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), true, nil
	case interface{ String() string }:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("expected integer, got %q", n.String())
		}
		return i, true, nil
	default:
		return 0, false, fmt.Errorf("expected integer, got %T", v)
	}
}

// timeField acepta time.Time (firestore, memoria) o RFC3339 (JSON).
func timeField(f map[string]any, key string) (*time.Time, error) {
	v, present := f[key]
	if !present || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		u := t.UTC()
		return &u, nil
	case string:
		p, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil, fmt.Errorf("expected RFC3339 time, got %q", t)
		}
		u := p.UTC()
		return &u, nil
	default:
		return nil, fmt.Errorf("expected time, got %T", v)
	}
}

// timeOrNil devuelve nil para punteros vacíos, así el store persiste null.
func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
