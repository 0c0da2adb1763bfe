package models

// Theme is the storefront palette of a partner
type Theme struct {
	PrimaryColor    string `json:"primaryColor,omitempty" bson:"primaryColor,omitempty"`
	SecondaryColor  string `json:"secondaryColor,omitempty" bson:"secondaryColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty" bson:"accentColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" bson:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty" bson:"textColor,omitempty"`
	ButtonColor     string `json:"buttonColor,omitempty" bson:"buttonColor,omitempty"`
	ButtonTextColor string `json:"buttonTextColor,omitempty" bson:"buttonTextColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty" bson:"fontFamily,omitempty"`
}

// Features toggles storefront capabilities per partner
type Features struct {
	Configurator bool `json:"configurator" bson:"configurator"`
	ARViewer     bool `json:"arViewer" bson:"arViewer"`
	Checkout     bool `json:"checkout" bson:"checkout"`
	ShowPrices   bool `json:"showPrices" bson:"showPrices"`
}

// Partner is a tenant storefront
type Partner struct {
	Base         `bson:",inline"`
	Name         string   `json:"name" bson:"name"`
	Package      string   `json:"package" bson:"package"`
	Active       bool     `json:"active" bson:"active"`
	Domain       string   `json:"domain,omitempty" bson:"domain,omitempty"`
	LogoURL      string   `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	Theme        Theme    `json:"theme" bson:"theme"`
	Features     Features `json:"features" bson:"features"`
	ContactEmail string   `json:"contactEmail,omitempty" bson:"contactEmail,omitempty"`
	ContactPhone string   `json:"contactPhone,omitempty" bson:"contactPhone,omitempty"`
	Address      string   `json:"address,omitempty" bson:"address,omitempty"`
}

// PartnerRequest is the body of POST/PUT /partners. Nil fields are left untouched on update.
type PartnerRequest struct {
	Name         *string   `json:"name"`
	Package      *string   `json:"package"`
	Active       *bool     `json:"active"`
	Domain       *string   `json:"domain"`
	LogoURL      *string   `json:"logoUrl"`
	Theme        *Theme    `json:"theme"`
	Features     *Features `json:"features"`
	ContactEmail *string   `json:"contactEmail"`
	ContactPhone *string   `json:"contactPhone"`
	Address      *string   `json:"address"`
}

// Apply copies the provided fields onto p
func (r PartnerRequest) Apply(p *Partner) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Package != nil {
		p.Package = *r.Package
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	if r.Domain != nil {
		p.Domain = *r.Domain
	}
	if r.LogoURL != nil {
		p.LogoURL = *r.LogoURL
	}
	if r.Theme != nil {
		p.Theme = *r.Theme
	}
	if r.Features != nil {
		p.Features = *r.Features
	}
	if r.ContactEmail != nil {
		p.ContactEmail = *r.ContactEmail
	}
	if r.ContactPhone != nil {
		p.ContactPhone = *r.ContactPhone
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
}
