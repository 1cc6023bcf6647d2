package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// These structs define the JSON payloads for HTTP requests and responses
// between callers (the web client or the regeneration workflow) and the Cloud Functions.

// FormValue is a form field as typed by the user. It decodes from either a JSON string
// or a JSON number so clients may send `"price": 500000` or `"price": "500000"`.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("form value must be a string or number: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

// Principal is the authenticated user on whose behalf a kit is generated.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// PropertyIntake is the property description form.
type PropertyIntake struct {
	Address       FormValue `json:"address"`
	Price         FormValue `json:"price"`
	Bedrooms      FormValue `json:"bedrooms"`
	Bathrooms     FormValue `json:"bathrooms"`
	SquareFootage FormValue `json:"squareFootage,omitempty"`
	PropertyType  FormValue `json:"propertyType"`
	Description   FormValue `json:"description,omitempty"`
}

// UploadedFile is an asset that has already been uploaded to object storage.
// URL is empty when the upload did not resolve.
type UploadedFile struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
}

// ProgressEvent is one (step, percent) emission of a generation run.
type ProgressEvent struct {
	Step    string `json:"step"`
	Percent int    `json:"percent"`
}

// GenerateKitRequest is the input for the generate-kit function.
type GenerateKitRequest struct {
	User        Principal      `json:"user"`
	Property    PropertyIntake `json:"property"`
	Files       []UploadedFile `json:"files"`
	ExecutionID string         `json:"executionId,omitempty"`
}

// GenerateKitResponse is the output of the generate-kit and regenerate-kit functions.
type GenerateKitResponse struct {
	Status     string          `json:"status"`
	PropertyID string          `json:"propertyId"`
	KitCreated bool            `json:"kitCreated"`
	Kit        *MarketingKit   `json:"kit"`
	Progress   []ProgressEvent `json:"progress"`
	Skipped    []string        `json:"skippedPlatforms,omitempty"`
}

// RegenerateKitRequest is the input for the regenerate-kit function.
type RegenerateKitRequest struct {
	PropertyID  string `json:"propertyId"`
	UserID      string `json:"userId"`
	ExecutionID string `json:"executionId,omitempty"`
}

// PropertyTourRequest is the input for the property-tour function.
type PropertyTourRequest struct {
	PropertyID string `json:"propertyId"`
}

// PropertyTourResponse is the public gallery view of a property.
type PropertyTourResponse struct {
	Property *Property       `json:"property"`
	Media    []PropertyMedia `json:"media"`
}

// ListPropertiesRequest is the input for the list-properties function.
type ListPropertiesRequest struct {
	UserID string `json:"userId"`
}

// ListPropertiesResponse lists a user's properties, newest first.
type ListPropertiesResponse struct {
	Properties []Property `json:"properties"`
}

// RegenerationEvent is the data payload of the CloudEvent that asks for a kit to be
// regenerated asynchronously.
type RegenerationEvent struct {
	PropertyID string `json:"propertyId"`
	UserID     string `json:"userId"`
}

// ErrorResponse is written for any failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
