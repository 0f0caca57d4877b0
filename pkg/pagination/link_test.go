package pagination

import "testing"

const (
	page2 = "https://api.github.com/user/1/starred?per_page=100&page=2"
	page9 = "https://api.github.com/user/1/starred?per_page=100&page=9"
	page1 = "https://api.github.com/user/1/starred?per_page=100&page=1"
)

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
		found    bool
	}{
		{
			name:     "next and last",
			header:   `<` + page2 + `>; rel="next", <` + page9 + `>; rel="last"`,
			expected: page2,
			found:    true,
		},
		{
			name:     "reordered entries",
			header:   `<` + page9 + `>; rel="last", <` + page1 + `>; rel="first", <` + page2 + `>; rel="next"`,
			expected: page2,
			found:    true,
		},
		{
			name:     "no spaces",
			header:   `<` + page2 + `>;rel="next"`,
			expected: page2,
			found:    true,
		},
		{
			name:     "unquoted rel",
			header:   `<` + page2 + `>; rel=next`,
			expected: page2,
			found:    true,
		},
		{
			name:   "last page has no next",
			header: `<` + page1 + `>; rel="prev", <` + page1 + `>; rel="first"`,
		},
		{
			name:   "empty header",
			header: "",
		},
		{
			name:   "whitespace only",
			header: "   ",
		},
		{
			name:   "next without angle brackets",
			header: page2 + `; rel="next"`,
		},
		{
			name:   "unterminated angle bracket",
			header: `<` + page2 + `; rel="next"`,
		},
		{
			name:   "garbage",
			header: `,,;;<>"rel`,
		},
		{
			name:   "empty brackets",
			header: `<>; rel="next"`,
		},
		{
			name:   "prev is not next",
			header: `<` + page1 + `>; rel="prev"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := NextPageURL(tt.header)
			if found != tt.found {
				t.Errorf("NextPageURL() found = %v, want %v", found, tt.found)
			}
			if got != tt.expected {
				t.Errorf("NextPageURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNextPageURL_OrderIndependent(t *testing.T) {
	entries := []string{
		`<` + page2 + `>; rel="next"`,
		`<` + page9 + `>; rel="last"`,
		`<` + page1 + `>; rel="first"`,
	}

	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range permutations {
		header := entries[perm[0]] + ", " + entries[perm[1]] + ", " + entries[perm[2]]
		got, found := NextPageURL(header)
		if !found || got != page2 {
			t.Errorf("NextPageURL(%q) = %q, %v; want %q, true", header, got, found, page2)
		}
	}
}

func TestParseLinks(t *testing.T) {
	header := `<` + page2 + `>; rel="next", <` + page9 + `>; rel="last", broken; rel="prev"`

	links := ParseLinks(header)

	if links[RelNext] != page2 {
		t.Errorf("links[next] = %q, want %q", links[RelNext], page2)
	}
	if links[RelLast] != page9 {
		t.Errorf("links[last] = %q, want %q", links[RelLast], page9)
	}
	if _, ok := links[RelPrev]; ok {
		t.Error("malformed prev entry should be skipped")
	}
}

func TestParseLinks_Empty(t *testing.T) {
	if links := ParseLinks(""); len(links) != 0 {
		t.Errorf("ParseLinks(\"\") = %v, want empty", links)
	}
}
