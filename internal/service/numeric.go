package service

import (
	"fmt"
	"math"
	"strconv"

	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

// Column limits of the NUMERIC(8,2) mark and NUMERIC(6,2) weight columns.
const (
	maxStoredMarks  = 999999.99
	maxStoredWeight = 9999.99
)

// checkCents rejects values Postgres would round or refuse: more than two
// decimal places, or larger than the column holds.
func checkCents(value, limit float64, field string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return appErrors.Clone(appErrors.ErrValidation, field+" must be a finite number")
	}
	if math.Abs(value) > limit {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("%s cannot exceed %s", field, strconv.FormatFloat(limit, 'f', -1, 64)))
	}
	cents := value * 100
	if math.Abs(cents-math.Round(cents)) > 1e-6 {
		return appErrors.Clone(appErrors.ErrValidation, field+" allows at most two decimal places")
	}
	return nil
}

func checkWeights(test, mock float64) error {
	if test < 0 || mock < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "weights cannot be negative")
	}
	if err := checkCents(test, maxStoredWeight, "test_weight"); err != nil {
		return err
	}
	return checkCents(mock, maxStoredWeight, "mock_weight")
}
