package bitbucket

import "testing"

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want string
	}{
		{"full name preferred", &User{Username: "asmith", FirstName: "Alice", LastName: "Smith"}, "Alice Smith"},
		{"username fallback", &User{Username: "asmith"}, "asmith"},
		{"nil user is anonymous", nil, "Anonymous"},
		{"empty user is anonymous", &User{}, "Anonymous"},
		{"first name alone is not enough", &User{Username: "asmith", FirstName: "Alice"}, "asmith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
