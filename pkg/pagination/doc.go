// Package pagination extracts page cursors from GitHub's Link response header.
//
// GitHub paginates list endpoints with a Link header made of comma separated
// entries of the shape `<URL>; rel="relation"`:
//
//	<https://api.github.com/user/1/starred?page=2>; rel="next",
//	<https://api.github.com/user/1/starred?page=9>; rel="last"
//
// The fetch loop follows the "next" relation until it is absent. Parsing never
// fails: empty, missing or malformed headers all mean "no further pages".
//
// Example usage:
//
//	next, ok := pagination.NextPageURL(resp.Header.Get("Link"))
//	if !ok {
//		// pagination exhausted
//	}
package pagination
