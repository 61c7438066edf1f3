package contracts

import "sort"

// Universe is the sector → symbols mapping the scanner works through,
// consumed read-only for the whole run.
type Universe struct {
	Sectors map[string][]string `json:"sectors"`
}

// Symbols returns all symbols in deterministic order (sector, then symbol)
func (u Universe) Symbols() []string {
	sectors := make([]string, 0, len(u.Sectors))
	for s := range u.Sectors {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	var symbols []string
	for _, s := range sectors {
		members := append([]string(nil), u.Sectors[s]...)
		sort.Strings(members)
		symbols = append(symbols, members...)
	}
	return symbols
}

// SectorOf returns the sector of a symbol, or "" when unmapped
func (u Universe) SectorOf(symbol string) string {
	for sector, members := range u.Sectors {
		for _, m := range members {
			if m == symbol {
				return sector
			}
		}
	}
	return ""
}

// Count returns the total number of symbols
func (u Universe) Count() int {
	n := 0
	for _, members := range u.Sectors {
		n += len(members)
	}
	return n
}

// Truncate limits each sector to at most n symbols (test mode)
func (u Universe) Truncate(n int) Universe {
	if n <= 0 {
		return u
	}
	out := Universe{Sectors: make(map[string][]string, len(u.Sectors))}
	for sector, members := range u.Sectors {
		sorted := append([]string(nil), members...)
		sort.Strings(sorted)
		if len(sorted) > n {
			sorted = sorted[:n]
		}
		out.Sectors[sector] = sorted
	}
	return out
}
