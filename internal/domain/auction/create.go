package auction

import (
	"strings"
	"time"

	"aucto-auction-client/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// Draft holds the fields of the create-auction form
type Draft struct {
	Title              string
	Description        string
	Category           string
	Subcategory        string
	Condition          string
	DeliveryOptions    string
	TermsAndConditions string
	BasePrice          decimal.Decimal
	StartTime          time.Time
	EndTime            time.Time
	Images             []shared.Upload
}

// Validate runs the form checks the server would otherwise reject. It
// returns the first failure as a ValidationError.
func (d *Draft) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return shared.NewValidationError("title", shared.ErrTitleRequired)
	case strings.TrimSpace(d.Description) == "":
		return shared.NewValidationError("description", shared.ErrDescriptionRequired)
	case d.Category == "":
		return shared.NewValidationError("category", shared.ErrCategoryRequired)
	case d.Condition == "":
		return shared.NewValidationError("condition", shared.ErrConditionRequired)
	case !d.BasePrice.IsPositive() || !d.BasePrice.IsInteger():
		return shared.NewValidationError("basePrice", shared.ErrBasePriceInvalid)
	case d.StartTime.IsZero():
		return shared.NewValidationError("startTime", shared.ErrStartTimeRequired)
	case d.EndTime.IsZero():
		return shared.NewValidationError("endTime", shared.ErrEndTimeRequired)
	case !d.EndTime.After(d.StartTime):
		return shared.NewValidationError("endTime", shared.ErrInvalidEndTime)
	case !d.StartTime.After(now):
		return shared.NewValidationError("startTime", shared.ErrInvalidStartTime)
	}
	return nil
}

// Fields renders the multipart form fields. The floor always equals the base
// price at creation.
func (d *Draft) Fields() map[string]string {
	fields := map[string]string{
		"title":            d.Title,
		"description":      d.Description,
		"category":         d.Category,
		"condition":        d.Condition,
		"basePrice":        d.BasePrice.String(),
		"minAuctionAmount": d.BasePrice.String(),
		"startTime":        d.StartTime.UTC().Format(time.RFC3339),
		"endTime":          d.EndTime.UTC().Format(time.RFC3339),
	}
	if d.Subcategory != "" {
		fields["subcategory"] = d.Subcategory
	}
	if d.DeliveryOptions != "" {
		fields["deliveryOptions"] = d.DeliveryOptions
	}
	if d.TermsAndConditions != "" {
		fields["termsAndConditions"] = d.TermsAndConditions
	}
	return fields
}
