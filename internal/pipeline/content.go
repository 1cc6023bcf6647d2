package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/marketingkitflow/internal/metrics"
	"github.com/Lllllllleong/marketingkitflow/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SchemaField is one required property of an ObjectSchema.
type SchemaField struct {
	Name        string
	Description string
	// Array fields hold a list of strings; otherwise the field is a single string.
	Array bool
}

// ObjectSchema describes a flat object whose fields are all required.
type ObjectSchema struct {
	Fields []SchemaField
}

// Required lists the field names in declaration order.
func (s ObjectSchema) Required() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// ContentFormat selects the shape of the generated social copy.
type ContentFormat int

const (
	// FormatPosts asks for several posts per platform.
	FormatPosts ContentFormat = iota
	// FormatSingle asks for one post per platform.
	FormatSingle
)

func (f ContentFormat) Schema() ObjectSchema {
	if f == FormatSingle {
		return ObjectSchema{Fields: []SchemaField{
			{Name: "instagram", Description: "Instagram post caption"},
			{Name: "facebook", Description: "Facebook post content"},
			{Name: "tiktok", Description: "TikTok video caption"},
			{Name: "youtube", Description: "YouTube video title and description"},
		}}
	}
	return ObjectSchema{Fields: []SchemaField{
		{Name: "instagram", Description: "Instagram post captions and story ideas", Array: true},
		{Name: "facebook", Description: "Facebook post content", Array: true},
		{Name: "tiktok", Description: "TikTok video ideas and captions", Array: true},
		{Name: "youtube", Description: "YouTube video titles and descriptions", Array: true},
	}}
}

// PropertyFacts are the attributes embedded in generation prompts.
type PropertyFacts struct {
	PropertyType string
	Address      string
	Price        int64
	Bedrooms     int
	Bathrooms    float64
}

func FactsFromProperty(p *models.Property) PropertyFacts {
	return PropertyFacts{
		PropertyType: p.PropertyType,
		Address:      p.Address,
		Price:        p.Price,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
	}
}

var pricePrinter = message.NewPrinter(language.English)

// FormattedPrice renders the price with thousands separators, e.g. "500,000".
func (f PropertyFacts) FormattedPrice() string {
	return pricePrinter.Sprintf("%d", f.Price)
}

// FormattedBathrooms drops a trailing ".0", so 2 renders as "2" and 2.5 as "2.5".
func (f PropertyFacts) FormattedBathrooms() string {
	return strconv.FormatFloat(f.Bathrooms, 'f', -1, 64)
}

// ContentPrompt is the social copy prompt for a property.
func ContentPrompt(f PropertyFacts) string {
	return fmt.Sprintf(
		"Create engaging social media content for a %s property at %s priced at %s. The property has %d bedrooms and %s bathrooms. Generate content for Instagram, Facebook, TikTok, and YouTube.",
		f.PropertyType, f.Address, f.FormattedPrice(), f.Bedrooms, f.FormattedBathrooms(),
	)
}

// SynthesizeContent generates per-platform copy. The response is checked against the
// schema here as well, whatever the generator already enforces.
func (p *Pipeline) SynthesizeContent(ctx context.Context, facts PropertyFacts, format ContentFormat) (models.SocialContent, error) {
	defer metrics.ObserveStage("content", time.Now())

	schema := format.Schema()
	obj, err := p.content.GenerateObject(ctx, ContentPrompt(facts), schema)
	if err != nil {
		return models.SocialContent{}, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}
	content, err := decodeSocialContent(obj, schema)
	if err != nil {
		return models.SocialContent{}, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}
	return content, nil
}

func decodeSocialContent(obj map[string]any, schema ObjectSchema) (models.SocialContent, error) {
	values := make(map[string][]string, len(schema.Fields))
	for _, field := range schema.Fields {
		raw, ok := obj[field.Name]
		if !ok || raw == nil {
			return models.SocialContent{}, fmt.Errorf("response is missing required field %q", field.Name)
		}
		var posts []string
		if field.Array {
			posts = stringList(raw)
		} else if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			posts = []string{strings.TrimSpace(s)}
		}
		if len(posts) == 0 {
			return models.SocialContent{}, fmt.Errorf("response field %q is empty or has the wrong type", field.Name)
		}
		values[field.Name] = posts
	}
	return models.SocialContent{
		Instagram: values["instagram"],
		Facebook:  values["facebook"],
		TikTok:    values["tiktok"],
		YouTube:   values["youtube"],
	}, nil
}

// stringList accepts []any or []string and keeps the non-blank strings.
func stringList(raw any) []string {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
