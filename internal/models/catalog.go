package models

// Option is a concrete selectable value, e.g. one color
type Option struct {
	Base       `bson:",inline"`
	Name       string  `json:"name" bson:"name"`
	Type       string  `json:"type" bson:"type"`
	Price      float64 `json:"price" bson:"price"`
	TextureURL string  `json:"textureUrl,omitempty" bson:"textureUrl,omitempty"`
}

// SubType is a named subdivision of a category
type SubType struct {
	Name string `json:"name" bson:"name"`
}

// Category groups products. PartnerID is optional.
type Category struct {
	Base      `bson:",inline"`
	Name      string    `json:"name" bson:"name"`
	PartnerID string    `json:"partnerId,omitempty" bson:"partnerId,omitempty"`
	SubTypes  []SubType `json:"subTypes" bson:"subTypes"`
}

// Configuration is a partner-agnostic definition of a configurable attribute
type Configuration struct {
	Base      `bson:",inline"`
	FieldName string   `json:"fieldName" bson:"fieldName"`
	FieldType string   `json:"fieldType" bson:"fieldType"`
	Options   []string `json:"options" bson:"options"`
	IsColor   bool     `json:"isColor" bson:"isColor"`
}

// PartnerConfiguration narrows a Configuration's options for one partner
type PartnerConfiguration struct {
	Base            `bson:",inline"`
	PartnerID       string   `json:"partnerId" bson:"partnerId"`
	ConfigurationID string   `json:"configurationId" bson:"configurationId"`
	Options         []string `json:"options" bson:"options"`
	CategoryIDs     []string `json:"categoryIds" bson:"categoryIds"`
}

// FilterOption is one facet value of a Filter
type FilterOption struct {
	Name string `json:"name" bson:"name"`
}

// Filter is a partner- and category-scoped browsing facet
type Filter struct {
	Base        `bson:",inline"`
	Name        string         `json:"name" bson:"name"`
	PartnerID   string         `json:"partnerId" bson:"partnerId"`
	CategoryIDs []string       `json:"categoryIds" bson:"categoryIds"`
	Options     []FilterOption `json:"options" bson:"options"`
}

// SelectedOption maps a chosen option to the images shown for it
type SelectedOption struct {
	OptionID string   `json:"optionId" bson:"optionId"`
	Images   []string `json:"images" bson:"images"`
}

// ProductConfiguration is the per-product selection for one configuration
type ProductConfiguration struct {
	ConfigurationID string           `json:"configurationId" bson:"configurationId"`
	SelectedOptions []SelectedOption `json:"selectedOptions" bson:"selectedOptions"`
}

// Product is a catalog item owned by one partner
type Product struct {
	Base           `bson:",inline"`
	ProductCode    string                 `json:"productCode" bson:"productCode"`
	ProductName    string                 `json:"productName" bson:"productName"`
	Description    string                 `json:"description,omitempty" bson:"description,omitempty"`
	Price          float64                `json:"price" bson:"price"`
	PartnerID      string                 `json:"partnerId" bson:"partnerId"`
	CategoryIDs    []string               `json:"categoryIds" bson:"categoryIds"`
	Configurations []ProductConfiguration `json:"configurations" bson:"configurations"`
	ModelFile      string                 `json:"modelFile,omitempty" bson:"modelFile,omitempty"`
	Thumbnail      string                 `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
}

// ResolvedOption is an Option as returned inside resolved bindings.
// Missing is set when the binding references an option that no longer exists.
type ResolvedOption struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Type       string  `json:"type,omitempty"`
	Price      float64 `json:"price"`
	TextureURL string  `json:"textureUrl,omitempty"`
	Missing    bool    `json:"missing,omitempty"`
}

// ResolvedCategory is a category reference with its name filled in
type ResolvedCategory struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

// ResolvedPartnerConfiguration is a binding joined with the names of everything it references
type ResolvedPartnerConfiguration struct {
	ID              string             `json:"id"`
	PartnerID       string             `json:"partnerId"`
	PartnerName     string             `json:"partnerName,omitempty"`
	ConfigurationID string             `json:"configurationId"`
	FieldName       string             `json:"fieldName,omitempty"`
	FieldType       string             `json:"fieldType,omitempty"`
	IsColor         bool               `json:"isColor"`
	Options         []ResolvedOption   `json:"options"`
	Categories      []ResolvedCategory `json:"categories"`
}

// ResolvedConfiguration is a Configuration with its options expanded
type ResolvedConfiguration struct {
	ID        string           `json:"id"`
	FieldName string           `json:"fieldName"`
	FieldType string           `json:"fieldType"`
	IsColor   bool             `json:"isColor"`
	Options   []ResolvedOption `json:"options"`
}
