package stm

import "fmt"

// GetParameter exposes read-only engine configuration (§6 "get_parameter").
func GetParameter(name string) (string, bool) {
	switch name {
	case "contention_manager":
		// The base core implements none (§9 Open Questions); any
		// conflict simply aborts and retries.
		return "none", true
	case "design":
		return "wbetl", true
	case "initial_rw_set_size":
		return fmt.Sprintf("%d", initialRWSetSize), true
	case "lock_array_log_size":
		return fmt.Sprintf("%d", lockArrayLog), true
	case "max_threads":
		return fmt.Sprintf("%d", maxThreads), true
	default:
		return "", false
	}
}

// GetStats exposes per-descriptor introspection (§6 "get_stats").
func GetStats(t *Txn, name string) (string, bool) {
	switch name {
	case "read_set_size":
		return fmt.Sprintf("%d", cap(t.readSet.entries)), true
	case "write_set_size":
		return fmt.Sprintf("%d", cap(t.writeSet.entries)), true
	case "read_set_nb_entries":
		return fmt.Sprintf("%d", t.readSet.len()), true
	case "write_set_nb_entries":
		return fmt.Sprintf("%d", t.writeSet.len()), true
	case "read_only":
		return fmt.Sprintf("%t", t.attr.ReadOnly), true
	case "last_commit_unix_ns":
		return fmt.Sprintf("%d", lastCommitUnixNano.Load()), true
	default:
		return "", false
	}
}
