package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "path only",
			key:  Key{Path: "/users/octocat/starred"},
			want: "stars:users/octocat/starred",
		},
		{
			name: "query sorted by name",
			key: Key{
				Path:  "/user/583231/starred",
				Query: url.Values{"per_page": {"100"}, "page": {"3"}},
			},
			want: "stars:user/583231/starred:page=3&per_page=100",
		},
		{
			name: "empty key",
			key:  Key{},
			want: "stars",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageKey(t *testing.T) {
	a := PageKey("https://api.github.com/user/583231/starred?per_page=100&page=2")
	b := PageKey("http://127.0.0.1:8080/user/583231/starred?page=2&per_page=100")

	if a.String() != b.String() {
		t.Errorf("host and query order should not matter: %q vs %q", a.String(), b.String())
	}
	if want := "stars:user/583231/starred:page=2&per_page=100"; a.String() != want {
		t.Errorf("PageKey() = %q, want %q", a.String(), want)
	}

	if raw := PageKey("://bad url"); raw.Path != "://bad url" {
		t.Errorf("unparseable URL key = %+v, want raw path", raw)
	}
}
