package postgres

import (
	"fmt"
	"time"
)

// pgTime wraps time.Time for pgx scanning.
type pgTime struct {
	t time.Time
}

func (p *pgTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		p.t = v
		return nil
	case nil:
		p.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time.Time", src)
	}
}

func (p pgTime) Time() time.Time {
	return p.t
}
