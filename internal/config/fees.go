package config

import (
	"errors"
	"strings"
)

// ErrFeeNotFound is returned when a fee name has no configured rate.
var ErrFeeNotFound = errors.New("fee configuration not found")

// FeeTable resolves named percentage fees from configuration.
type FeeTable struct {
	rates map[string]float64
}

func NewFeeTable(rates map[string]float64) *FeeTable {
	normalized := make(map[string]float64, len(rates))
	for name, rate := range rates {
		normalized[strings.ToUpper(name)] = rate
	}

	return &FeeTable{
		rates: normalized,
	}
}

func (t *FeeTable) GetFee(name string) (float64, error) {
	rate, ok := t.rates[strings.ToUpper(name)]
	if !ok {
		return 0, ErrFeeNotFound
	}

	return rate, nil
}
