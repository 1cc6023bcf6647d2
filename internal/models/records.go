package models

import "time"

// Media types accepted for an uploaded asset.
const (
	MediaTypePhoto = "photo"
	MediaTypeVideo = "video"
)

// Property status values. New listings start out active.
const (
	PropertyStatusActive  = "active"
	PropertyStatusPending = "pending"
	PropertyStatusSold    = "sold"
)

// KitTypeSocialMedia is the only kit type produced by the generation pipeline.
const KitTypeSocialMedia = "social_media"

// PropertyTypes lists the property types the intake form offers.
var PropertyTypes = []string{"house", "condo", "townhouse", "apartment", "commercial"}

// User is the acting principal as stored in Firestore.
type User struct {
	ID          string    `firestore:"id" json:"id"`
	Email       string    `firestore:"email" json:"email"`
	DisplayName string    `firestore:"displayName" json:"displayName"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// Client is the billing/contact entity a property is listed for.
type Client struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    string    `firestore:"userId" json:"userId"`
	Name      string    `firestore:"name" json:"name"`
	Email     string    `firestore:"email" json:"email"`
	Phone     string    `firestore:"phone" json:"phone"`
	Company   string    `firestore:"company" json:"company"`
	Address   string    `firestore:"address" json:"address"`
	Notes     string    `firestore:"notes" json:"notes"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// Property is a listing being marketed.
type Property struct {
	ID            string    `firestore:"id" json:"id"`
	UserID        string    `firestore:"userId" json:"userId"`
	ClientID      string    `firestore:"clientId" json:"clientId"`
	Address       string    `firestore:"address" json:"address"`
	Price         int64     `firestore:"price" json:"price"`
	Bedrooms      int       `firestore:"bedrooms" json:"bedrooms"`
	Bathrooms     float64   `firestore:"bathrooms" json:"bathrooms"`
	SquareFootage *int      `firestore:"squareFootage" json:"squareFootage,omitempty"`
	PropertyType  string    `firestore:"propertyType" json:"propertyType"`
	Status        string    `firestore:"status" json:"status"`
	Description   string    `firestore:"description" json:"description"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// PropertyMedia is one uploaded asset. Order is the 0-based upload position and drives
// both reference-image selection and the tour gallery.
type PropertyMedia struct {
	ID         string    `firestore:"id" json:"id"`
	PropertyID string    `firestore:"propertyId" json:"propertyId"`
	UserID     string    `firestore:"userId" json:"userId"`
	Type       string    `firestore:"type" json:"type"`
	URL        string    `firestore:"url" json:"url"`
	Filename   string    `firestore:"filename" json:"filename"`
	Order      int       `firestore:"order" json:"order"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
}

// SocialContent holds the generated copy per platform.
type SocialContent struct {
	Instagram []string `firestore:"instagram" json:"instagram"`
	Facebook  []string `firestore:"facebook" json:"facebook"`
	TikTok    []string `firestore:"tiktok" json:"tiktok"`
	YouTube   []string `firestore:"youtube" json:"youtube"`
}

// GeneratedAsset describes one AI-generated graphic for a platform.
type GeneratedAsset struct {
	Platform string `firestore:"platform" json:"platform"`
	URL      string `firestore:"url" json:"url"`
	Prompt   string `firestore:"prompt,omitempty" json:"prompt,omitempty"`
	Size     string `firestore:"size,omitempty" json:"size,omitempty"`
}

// MarketingKit is the generated output bundle for a property. There is at most one kit
// per PropertyID; regeneration updates the existing record in place.
type MarketingKit struct {
	ID                string           `firestore:"id" json:"id"`
	PropertyID        string           `firestore:"propertyId" json:"propertyId"`
	UserID            string           `firestore:"userId" json:"userId"`
	KitType           string           `firestore:"kitType" json:"kitType"`
	TourURL           string           `firestore:"tourUrl" json:"tourUrl"`
	SocialContent     SocialContent    `firestore:"socialContent" json:"socialContent"`
	GeneratedGraphics []GeneratedAsset `firestore:"generatedGraphics" json:"generatedGraphics"`
	DownloadURL       string           `firestore:"downloadUrl" json:"downloadUrl"`
	BrochureURL       string           `firestore:"brochureUrl,omitempty" json:"brochureUrl,omitempty"`
	CreatedAt         time.Time        `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time        `firestore:"updatedAt" json:"updatedAt"`
}
