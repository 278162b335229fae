package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/yurifrl/faturas/pkg/export"
	"github.com/yurifrl/faturas/pkg/models"
)

type filters struct {
	startDate   string
	endDate     string
	minAmount   float64
	maxAmount   float64
	description string

	// minSet and maxSet tell an explicit zero bound from an absent one.
	minSet bool
	maxSet bool
}

// markChanged records which amount bounds were given on the command line.
func (f *filters) markChanged(flags *pflag.FlagSet) {
	f.minSet = flags.Changed("min")
	f.maxSet = flags.Changed("max")
}

func (f *filters) active() bool {
	return f.startDate != "" || f.endDate != "" || f.minSet || f.maxSet || f.description != ""
}

// toFilterFunc validates the flags and returns the row filter, or nil when
// no filter flag was given.
func (f *filters) toFilterFunc() (export.FilterFunc, error) {
	if !f.active() {
		return nil, nil
	}

	var start, end models.Date
	var err error
	if f.startDate != "" {
		if start, err = models.ParseDate(f.startDate); err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.endDate != "" {
		if end, err = models.ParseDate(f.endDate); err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
	}
	minAmount := decimal.NewFromFloat(f.minAmount)
	maxAmount := decimal.NewFromFloat(f.maxAmount)
	needle := strings.ToLower(f.description)

	return func(t *models.Transaction) bool {
		if !start.IsZero() && t.Date().Before(start) {
			return false
		}
		if !end.IsZero() && end.Before(t.Date()) {
			return false
		}
		if f.minSet && t.Amount().LessThan(minAmount) {
			return false
		}
		if f.maxSet && t.Amount().GreaterThan(maxAmount) {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Description()), needle) {
			return false
		}
		return true
	}, nil
}
