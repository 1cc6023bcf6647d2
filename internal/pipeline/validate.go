package pipeline

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Lllllllleong/marketingkitflow/internal/models"
)

// Listing is an intake form after validation, with its numeric fields parsed.
type Listing struct {
	Address       string
	Price         int64
	Bedrooms      int
	Bathrooms     float64
	SquareFootage *int
	PropertyType  string
	Description   string
}

// ValidateIntake checks the intake form and media list before anything is written.
func ValidateIntake(intake models.PropertyIntake, files []models.UploadedFile) (*Listing, error) {
	required := []struct {
		name  string
		value models.FormValue
	}{
		{"address", intake.Address},
		{"price", intake.Price},
		{"bedrooms", intake.Bedrooms},
		{"bathrooms", intake.Bathrooms},
		{"propertyType", intake.PropertyType},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(string(field.value)) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one media file is required", ErrValidation)
	}
	for i, f := range files {
		if f.Type != models.MediaTypePhoto && f.Type != models.MediaTypeVideo {
			return nil, fmt.Errorf("%w: file %d has unsupported type %q", ErrValidation, i, f.Type)
		}
		if strings.TrimSpace(f.URL) == "" {
			return nil, fmt.Errorf("%w: file %d (%s) has no uploaded URL", ErrValidation, i, f.Filename)
		}
	}

	price, err := parsePrice(cleanNumber(intake.Price))
	if err != nil || price < 0 {
		return nil, fmt.Errorf("%w: price must be a number", ErrValidation)
	}
	bedrooms, err := strconv.Atoi(cleanNumber(intake.Bedrooms))
	if err != nil || bedrooms < 0 {
		return nil, fmt.Errorf("%w: bedrooms must be a whole number", ErrValidation)
	}
	bathrooms, err := strconv.ParseFloat(cleanNumber(intake.Bathrooms), 64)
	if err != nil || bathrooms < 0 {
		return nil, fmt.Errorf("%w: bathrooms must be a number", ErrValidation)
	}

	listing := &Listing{
		Address:      strings.TrimSpace(string(intake.Address)),
		Price:        price,
		Bedrooms:     bedrooms,
		Bathrooms:    bathrooms,
		PropertyType: strings.ToLower(strings.TrimSpace(string(intake.PropertyType))),
		Description:  strings.TrimSpace(string(intake.Description)),
	}
	if !slices.Contains(models.PropertyTypes, listing.PropertyType) {
		return nil, fmt.Errorf("%w: unknown property type %q", ErrValidation, listing.PropertyType)
	}
	if sq := cleanNumber(intake.SquareFootage); sq != "" {
		n, err := strconv.Atoi(sq)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: square footage must be a whole number", ErrValidation)
		}
		listing.SquareFootage = &n
	}
	return listing, nil
}

// parsePrice accepts whole or decimal amounts; cents are dropped, so "500000.00" is 500000.
func parsePrice(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return int64(f), nil
}

// cleanNumber drops whitespace and thousands separators, so "500,000" parses.
func cleanNumber(v models.FormValue) string {
	return strings.ReplaceAll(strings.TrimSpace(string(v)), ",", "")
}
