package pagination

import "strings"

// Relation names used by GitHub's Link header.
const (
	RelNext  = "next"
	RelPrev  = "prev"
	RelFirst = "first"
	RelLast  = "last"
)

// NextPageURL returns the URL of the first entry whose relation is "next".
// It returns false when the header is empty, carries no next relation, or the
// next entry has no <URL> part.
func NextPageURL(linkHeader string) (string, bool) {
	for _, entry := range strings.Split(linkHeader, ",") {
		target, rels, ok := parseEntry(entry)
		if !ok || !hasRel(rels, RelNext) {
			continue
		}
		if target == "" {
			return "", false
		}
		return target, true
	}
	return "", false
}

// ParseLinks returns every relation in the header mapped to its URL. Entries
// without a URL are skipped. The first occurrence of a relation wins.
func ParseLinks(linkHeader string) map[string]string {
	links := make(map[string]string)
	for _, entry := range strings.Split(linkHeader, ",") {
		target, rels, ok := parseEntry(entry)
		if !ok || target == "" {
			continue
		}
		for _, rel := range rels {
			if _, seen := links[rel]; !seen {
				links[rel] = target
			}
		}
	}
	return links
}

// parseEntry splits one `<URL>; rel="a b"` entry. ok is false when the entry
// has no rel parameter at all; target is empty when the angle brackets are
// missing or unbalanced.
func parseEntry(entry string) (target string, rels []string, ok bool) {
	parts := strings.Split(entry, ";")
	for _, param := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		rels = append(rels, strings.Fields(value)...)
	}
	if len(rels) == 0 {
		return "", nil, false
	}

	ref := parts[0]
	start := strings.Index(ref, "<")
	if start < 0 {
		return "", rels, true
	}
	end := strings.Index(ref[start+1:], ">")
	if end < 0 {
		return "", rels, true
	}
	return strings.TrimSpace(ref[start+1 : start+1+end]), rels, true
}

func hasRel(rels []string, want string) bool {
	for _, rel := range rels {
		if strings.EqualFold(rel, want) {
			return true
		}
	}
	return false
}
