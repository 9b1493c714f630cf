package migrate

// UserMap resolves Bitbucket usernames to GitHub logins using an
// explicit override table. It is built once from configuration and
// read-only for the rest of the run.
type UserMap struct {
	overrides  map[string]string
	assumeSame bool
}

// NewUserMap builds a UserMap from the configured override table. When
// assumeSame is set, usernames without an override resolve to
// themselves instead of staying unresolved.
func NewUserMap(overrides map[string]string, assumeSame bool) *UserMap {
	m := &UserMap{
		overrides:  make(map[string]string, len(overrides)),
		assumeSame: assumeSame,
	}
	for source, destination := range overrides {
		m.overrides[source] = destination
	}
	return m
}

// Resolve returns the GitHub login for a Bitbucket username. The second
// return value is false when no mapping exists; callers then leave the
// assignee unset and fall back to plain-name attribution.
func (m *UserMap) Resolve(source string) (string, bool) {
	if source == "" {
		return "", false
	}
	if destination, ok := m.overrides[source]; ok {
		if destination == "" {
			return "", false
		}
		return destination, true
	}
	if m.assumeSame {
		return source, true
	}
	return "", false
}

// Suppressed reports whether attribution should be skipped entirely for
// the given username. A username mapped to the empty string is the
// migration runner's own account; annotating those comments would be
// noise.
func (m *UserMap) Suppressed(source string) bool {
	destination, ok := m.overrides[source]
	return ok && destination == ""
}
