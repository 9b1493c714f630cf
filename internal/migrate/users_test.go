package migrate

import "testing"

func TestUserMapResolve(t *testing.T) {
	overrides := map[string]string{
		"asmith":   "alice",
		"migrator": "",
	}

	tests := []struct {
		name       string
		assumeSame bool
		source     string
		want       string
		wantOK     bool
	}{
		{"explicit mapping", false, "asmith", "alice", true},
		{"unmapped user is absent", false, "bob", "", false},
		{"suppressed user is absent", false, "migrator", "", false},
		{"empty username is absent", false, "", "", false},
		{"assume same falls back to source name", true, "bob", "bob", true},
		{"explicit mapping wins over assume same", true, "asmith", "alice", true},
		{"suppression wins over assume same", true, "migrator", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewUserMap(overrides, tt.assumeSame)
			got, ok := m.Resolve(tt.source)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.source, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUserMapSuppressed(t *testing.T) {
	m := NewUserMap(map[string]string{
		"migrator": "",
		"asmith":   "alice",
	}, false)

	if !m.Suppressed("migrator") {
		t.Error("expected migrator to be suppressed")
	}
	if m.Suppressed("asmith") {
		t.Error("mapped user must not be suppressed")
	}
	if m.Suppressed("bob") {
		t.Error("unmapped user must not be suppressed")
	}
}
