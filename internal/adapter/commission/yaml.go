package commission

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flight-search/offer-aggregation-engine/internal/domain"
)

// File is the on-disk layout of a commission table.
type File struct {
	Rates []domain.CommissionRate `yaml:"rates"`
}

// LoadFile reads a YAML commission table from path.
func LoadFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read commission table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML commission table.
func Parse(data []byte) (*StaticSource, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode commission table: %w", err)
	}
	for i := range f.Rates {
		r := &f.Rates[i]
		r.Carrier = normalizeWildcard(r.Carrier)
		r.Market = normalizeWildcard(r.Market)
		r.Cabin = strings.ToLower(normalizeWildcard(r.Cabin))
		if r.Percent < 0 || r.Percent > 100 {
			return nil, fmt.Errorf("commission table row %d: percent %.2f out of range", i, r.Percent)
		}
		if !r.ValidFrom.IsZero() && !r.ValidTo.IsZero() && r.ValidTo.Before(r.ValidFrom) {
			return nil, fmt.Errorf("commission table row %d: valid_to before valid_from", i)
		}
	}
	return NewStaticSource(f.Rates), nil
}

func normalizeWildcard(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "*"
	}
	return s
}
