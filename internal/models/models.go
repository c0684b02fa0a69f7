package models

import "time"

// PageType is the caller-declared kind of page being extracted.
type PageType string

const (
	PageMenu      PageType = "menu"
	PageProduct   PageType = "product"
	PageBlog      PageType = "blog"
	PageReview    PageType = "review"
	PageNews      PageType = "news"
	PageBrand     PageType = "brand"
	PageCafeteria PageType = "cafeteria"
	PageRoastery  PageType = "roastery"
	PageLanding   PageType = "landing"
	PageOther     PageType = "other"
)

// PageTypes lists every accepted page type in display order.
var PageTypes = []PageType{
	PageMenu, PageProduct, PageBlog, PageReview, PageNews,
	PageBrand, PageCafeteria, PageRoastery, PageLanding, PageOther,
}

// Valid reports whether p is one of PageTypes.
func (p PageType) Valid() bool {
	for _, t := range PageTypes {
		if p == t {
			return true
		}
	}
	return false
}

// CoffeeExtraction is the ephemeral record produced from one URL.
// Nil pointers and nil slices encode as JSON null.
type CoffeeExtraction struct {
	SourceURL   string   `json:"source_url"`
	Title       *string  `json:"title"`
	PageType    PageType `json:"page_type"`
	NameKR      *string  `json:"name_kr"`
	NameEN      *string  `json:"name_en"`
	Description *string  `json:"description"`
	Origin      *string  `json:"origin"`
	Notes       []string `json:"notes"`
	Images      []string `json:"images"`
	Price       *string  `json:"price"`
}

// CoffeeRecord is a persisted catalog entry. It is created from an approved
// extraction and never written by the extraction pipeline itself.
type CoffeeRecord struct {
	ID              int64     `json:"id" yaml:"id"`
	SourceOriginURL *string   `json:"source_origin_url" yaml:"source_origin_url"`
	Title           *string   `json:"title" yaml:"title"`
	PageType        *string   `json:"page_type" yaml:"page_type"`
	NameKR          *string   `json:"name_kr" yaml:"name_kr"`
	NameEN          *string   `json:"name_en" yaml:"name_en"`
	Description     *string   `json:"description" yaml:"description"`
	Origin          *string   `json:"origin" yaml:"origin"`
	Notes           []string  `json:"notes" yaml:"notes"`
	Images          []string  `json:"images" yaml:"images"`
	Price           *string   `json:"price" yaml:"price"`
	Processing      *string   `json:"processing" yaml:"processing"`
	Farm            *string   `json:"farm" yaml:"farm"`
	Variety         *string   `json:"variety" yaml:"variety"`
	Altitude        *string   `json:"altitude" yaml:"altitude"`
	Nations         *string   `json:"nations" yaml:"nations"`
	OriginImageURI  *string   `json:"origin_image_uri" yaml:"origin_image_uri"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// InfoRow is one key/value row of a product information table.
type InfoRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UnspecialtyResult is the rich payload of the single-retailer endpoint.
type UnspecialtyResult struct {
	SourceURL         string           `json:"source_url"`
	CanonicalURL      string           `json:"canonical_url"`
	ProductNo         *int64           `json:"product_no"`
	CoffeeCrawl       CoffeeExtraction `json:"coffee_crawl"`
	CoffeeOptions     []string         `json:"coffee_options"`
	Processing        []string         `json:"processing"`
	Varieties         []string         `json:"varieties"`
	Origins           []string         `json:"origins"`
	InfoTable         []InfoRow        `json:"info_table"`
	DetailTextExcerpt *string          `json:"detail_text_excerpt"`
}

// StringPtr returns nil for the empty string and &s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
