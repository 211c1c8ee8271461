package dto

// ConfigurationItem represents a configuration entry exposed via API.
type ConfigurationItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// UpdateConfigurationRequest describes payload for updating a single configuration.
type UpdateConfigurationRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// BulkUpdateConfigurationRequest holds multiple update requests.
type BulkUpdateConfigurationRequest struct {
	Items []UpdateConfigurationRequest `json:"items" validate:"required,min=1,dive"`
}

// ThemeSettings is the typed theme object the front-end applies.
type ThemeSettings struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	SiteName       string `json:"siteName"`
}

// SiteSettings is the public settings payload.
type SiteSettings struct {
	Theme                   ThemeSettings       `json:"theme"`
	TestRegistrationEnabled bool                `json:"testRegistrationEnabled"`
	Items                   []ConfigurationItem `json:"items"`
}
