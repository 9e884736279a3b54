package reportcfg

import (
	"sync"

	"millreport/internal/domain"
)

// departmentCache memoizes department lookups across report calls within
// one process lifetime. Entries are keyed by (config identity, department
// id), so a replaced config never serves stale entries: every Resolve
// yields a fresh identity. Callers retiring a config should Purge it.
type departmentCache struct {
	mu      sync.RWMutex
	entries map[departmentKey]DepartmentSpec
}

type departmentKey struct {
	configID     string
	departmentID string
}

var departments = &departmentCache{entries: make(map[departmentKey]DepartmentSpec)}

// Department returns the department spec for the given id, memoized for
// resolved configs. Unknown departments are a ConfigurationError.
func (c *Config) Department(id string) (DepartmentSpec, error) {
	if c.id == "" {
		// Unresolved configs are not cached: they are still mutable.
		return c.lookupDepartment(id)
	}

	key := departmentKey{configID: c.id, departmentID: id}

	departments.mu.RLock()
	if dept, ok := departments.entries[key]; ok {
		departments.mu.RUnlock()
		return dept, nil
	}
	departments.mu.RUnlock()

	dept, err := c.lookupDepartment(id)
	if err != nil {
		return DepartmentSpec{}, err
	}

	departments.mu.Lock()
	defer departments.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, ok := departments.entries[key]; ok {
		return cached, nil
	}
	departments.entries[key] = dept
	return dept, nil
}

func (c *Config) lookupDepartment(id string) (DepartmentSpec, error) {
	dept, ok := c.Departments[id]
	if !ok {
		return DepartmentSpec{}, domain.ErrConfiguration("department %q not configured", id)
	}
	return cloneDepartment(dept), nil
}

// PurgeDepartments drops every cached department entry for the given
// resolved config. Call when replacing a config (e.g. after a hot reload)
// so the memo table does not grow across reloads.
func PurgeDepartments(c *Config) {
	if c.id == "" {
		return
	}
	departments.mu.Lock()
	defer departments.mu.Unlock()
	for key := range departments.entries {
		if key.configID == c.id {
			delete(departments.entries, key)
		}
	}
}
