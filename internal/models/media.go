package models

import "regexp"

// Asset is a hosted 3D model belonging to a partner
type Asset struct {
	Base      `bson:",inline"`
	PartnerID string `json:"partnerId" bson:"partnerId"`
	Name      string `json:"name" bson:"name"`
	ModelFile string `json:"modelFile" bson:"modelFile"`
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether s is a #rgb or #rrggbb color
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// HouseStyle is a theming record, optionally tied to a partner
type HouseStyle struct {
	Base            `bson:",inline"`
	PrimaryColor    string `json:"primaryColor" bson:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor" bson:"secondaryColor"`
	AccentColor     string `json:"accentColor" bson:"accentColor"`
	BackgroundColor string `json:"backgroundColor" bson:"backgroundColor"`
	TextColor       string `json:"textColor" bson:"textColor"`
	PrimaryFont     string `json:"primaryFont,omitempty" bson:"primaryFont,omitempty"`
	SecondaryFont   string `json:"secondaryFont,omitempty" bson:"secondaryFont,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	PartnerID       string `json:"partnerId,omitempty" bson:"partnerId,omitempty"`
}

// InvalidColors returns the json names of color fields that are not hex colors
func (h *HouseStyle) InvalidColors() []string {
	fields := []struct {
		name, value string
	}{
		{"primaryColor", h.PrimaryColor},
		{"secondaryColor", h.SecondaryColor},
		{"accentColor", h.AccentColor},
		{"backgroundColor", h.BackgroundColor},
		{"textColor", h.TextColor},
	}
	var bad []string
	for _, f := range fields {
		if !IsHexColor(f.value) {
			bad = append(bad, f.name)
		}
	}
	return bad
}

// ModelJobStatus is the state of an asynchronous 3D model generation
type ModelJobStatus string

const (
	ModelJobSubmitted ModelJobStatus = "submitted"
	ModelJobRunning   ModelJobStatus = "running"
	ModelJobReady     ModelJobStatus = "ready"
	ModelJobFailed    ModelJobStatus = "failed"
)

// Terminal reports whether no further transitions are possible
func (s ModelJobStatus) Terminal() bool {
	return s == ModelJobReady || s == ModelJobFailed
}

// ModelJob tracks one image-to-3D generation request
type ModelJob struct {
	Base           `bson:",inline"`
	PartnerID      string         `json:"partnerId,omitempty" bson:"partnerId,omitempty"`
	Name           string         `json:"name,omitempty" bson:"name,omitempty"`
	ImageURL       string         `json:"imageUrl" bson:"imageUrl"`
	Status         ModelJobStatus `json:"status" bson:"status"`
	UpstreamTaskID string         `json:"upstreamTaskId,omitempty" bson:"upstreamTaskId,omitempty"`
	ModelFile      string         `json:"modelFile,omitempty" bson:"modelFile,omitempty"`
	AssetID        string         `json:"assetId,omitempty" bson:"assetId,omitempty"`
	Error          string         `json:"error,omitempty" bson:"error,omitempty"`
	Attempts       int            `json:"attempts" bson:"attempts"`
}
