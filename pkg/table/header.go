package table

import "strings"

// Mapping pairs a header substring with the value it stands for.
type Mapping struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Value   string `json:"value" yaml:"value"`
}

// Mappings is an ordered dictionary. Entries are tried in order and the
// first one whose pattern occurs in the text wins, so a compound phrase must
// be listed before any shorter phrase it contains.
type Mappings []Mapping

// Match returns the value of the first entry whose pattern occurs in row's
// first cell.
func (m Mappings) Match(row Row) (string, bool) {
	for _, e := range m {
		if e.Pattern != "" && row.Contains(e.Pattern) {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns the distinct values in order of first appearance.
func (m Mappings) Values() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range m {
		if !seen[e.Value] {
			seen[e.Value] = true
			out = append(out, e.Value)
		}
	}
	return out
}

// Shadowed reports pairs (i, j), i < j, where entry i's pattern occurs in
// entry j's pattern and maps to a different value, so entry j can never be
// reached.
func (m Mappings) Shadowed() [][2]int {
	var pairs [][2]int
	for j := range m {
		for i := 0; i < j; i++ {
			if m[i].Value != m[j].Value && m[i].Pattern != "" && strings.Contains(m[j].Pattern, m[i].Pattern) {
				pairs = append(pairs, [2]int{i, j})
				break
			}
		}
	}
	return pairs
}

// HeaderResult is what the header rows of one table say about it.
type HeaderResult struct {
	Varname string
	Unit    string
	// Unknown lists header rows matched by neither dictionary.
	Unknown []Row
}

// ResolveHeaders scans header rows in order. A row is parsed when it matches
// a variable name, a unit, or both; a later match overrides an earlier one.
func ResolveHeaders(headers []Row, varnames, units Mappings) HeaderResult {
	var res HeaderResult
	for _, row := range headers {
		parsed := false
		if v, ok := varnames.Match(row); ok {
			res.Varname = v
			parsed = true
		}
		if u, ok := units.Match(row); ok {
			res.Unit = u
			parsed = true
		}
		if !parsed {
			res.Unknown = append(res.Unknown, row)
		}
	}
	return res
}
