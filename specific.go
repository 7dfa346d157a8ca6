package stm

import "sync/atomic"

// specificRegistry hands out the (at most maxSpecific) thread-specific slot
// keys (§6 "create_specific"/"set_specific"/"get_specific").
var specificRegistry specificKeyRegistry

type specificKeyRegistry struct {
	next atomic.Int32
}

func (r *specificKeyRegistry) create() (int, error) {
	key := r.next.Add(1) - 1
	if key >= maxSpecific {
		return 0, newFatalError(ErrCodeTooManySpecific, msgTooManySpecific, map[string]interface{}{
			"max_specific": maxSpecific,
		})
	}
	return int(key), nil
}
