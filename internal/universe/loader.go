package universe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// Load reads the sector → symbols universe file.
// The file is the scanner's single source of candidate symbols; an empty
// or malformed file fails the run before any phase starts.
func Load(path string) (contracts.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.Universe{}, fmt.Errorf("read universe file: %w", err)
	}

	var raw struct {
		Sectors map[string][]string `json:"sectors"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return contracts.Universe{}, fmt.Errorf("parse universe file: %w", err)
	}

	u := contracts.Universe{Sectors: raw.Sectors}
	if err := validate(u); err != nil {
		return contracts.Universe{}, err
	}

	return u, nil
}

func validate(u contracts.Universe) error {
	if len(u.Sectors) == 0 {
		return fmt.Errorf("universe file has no sectors")
	}

	seen := make(map[string]string)
	for sector, members := range u.Sectors {
		if strings.TrimSpace(sector) == "" {
			return fmt.Errorf("universe file has an unnamed sector")
		}
		if len(members) == 0 {
			return fmt.Errorf("sector %q has no symbols", sector)
		}
		for _, symbol := range members {
			if strings.TrimSpace(symbol) == "" {
				return fmt.Errorf("sector %q contains an empty symbol", sector)
			}
			if prev, dup := seen[symbol]; dup {
				return fmt.Errorf("symbol %q mapped to both %q and %q", symbol, prev, sector)
			}
			seen[symbol] = sector
		}
	}
	return nil
}
