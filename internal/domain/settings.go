package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// TenantSettingsVersion is the current layout version of TenantSettings
const TenantSettingsVersion = 1

// TenantSettings is the storefront configuration of a tenant. It is stored as
// JSONB and always written back whole; partial updates go through Merge.
type TenantSettings struct {
	Version int             `json:"version"`
	Theme   ThemeSettings   `json:"theme"`
	Content ContentSettings `json:"content"`
	Contact ContactSettings `json:"contact"`
}

type ThemeSettings struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	LogoURL        string `json:"logo_url"`
	BannerURL      string `json:"banner_url"`
}

type ContentSettings struct {
	Headline    string    `json:"headline"`
	Subheadline string    `json:"subheadline"`
	About       string    `json:"about"`
	FAQ         []FAQItem `json:"faq"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ContactSettings struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	WhatsApp  string `json:"whatsapp"`
	Instagram string `json:"instagram"`
}

// DefaultTenantSettings returns the settings a freshly provisioned tenant starts with
func DefaultTenantSettings(name, contactEmail string) TenantSettings {
	return TenantSettings{
		Version: TenantSettingsVersion,
		Theme: ThemeSettings{
			PrimaryColor:   "#1F2937",
			SecondaryColor: "#F59E0B",
		},
		Content: ContentSettings{
			Headline: name,
		},
		Contact: ContactSettings{
			Email: contactEmail,
		},
	}
}

// TenantSettingsPatch carries a partial settings update. Nil sections and nil
// fields are left untouched.
type TenantSettingsPatch struct {
	Theme   *ThemePatch   `json:"theme,omitempty"`
	Content *ContentPatch `json:"content,omitempty"`
	Contact *ContactPatch `json:"contact,omitempty"`
}

type ThemePatch struct {
	PrimaryColor   *string `json:"primary_color,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondary_color,omitempty" validate:"omitempty,hexcolor"`
	LogoURL        *string `json:"logo_url,omitempty" validate:"omitempty,url"`
	BannerURL      *string `json:"banner_url,omitempty" validate:"omitempty,url"`
}

type ContentPatch struct {
	Headline    *string    `json:"headline,omitempty" validate:"omitempty,max=200"`
	Subheadline *string    `json:"subheadline,omitempty" validate:"omitempty,max=300"`
	About       *string    `json:"about,omitempty" validate:"omitempty,max=5000"`
	FAQ         *[]FAQItem `json:"faq,omitempty"`
}

type ContactPatch struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	WhatsApp  *string `json:"whatsapp,omitempty" validate:"omitempty,max=30"`
	Instagram *string `json:"instagram,omitempty" validate:"omitempty,max=100"`
}

// Merge applies p to s and returns the result. The receiver is not modified.
func (s TenantSettings) Merge(p TenantSettingsPatch) TenantSettings {
	out := s
	if out.Version == 0 {
		out.Version = TenantSettingsVersion
	}
	if t := p.Theme; t != nil {
		setIfPresent(&out.Theme.PrimaryColor, t.PrimaryColor)
		setIfPresent(&out.Theme.SecondaryColor, t.SecondaryColor)
		setIfPresent(&out.Theme.LogoURL, t.LogoURL)
		setIfPresent(&out.Theme.BannerURL, t.BannerURL)
	}
	if c := p.Content; c != nil {
		setIfPresent(&out.Content.Headline, c.Headline)
		setIfPresent(&out.Content.Subheadline, c.Subheadline)
		setIfPresent(&out.Content.About, c.About)
		if c.FAQ != nil {
			out.Content.FAQ = append([]FAQItem(nil), (*c.FAQ)...)
		}
	}
	if c := p.Contact; c != nil {
		setIfPresent(&out.Contact.Email, c.Email)
		setIfPresent(&out.Contact.Phone, c.Phone)
		setIfPresent(&out.Contact.WhatsApp, c.WhatsApp)
		setIfPresent(&out.Contact.Instagram, c.Instagram)
	}
	return out
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Value implements driver.Valuer
func (s TenantSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *TenantSettings) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = TenantSettings{Version: TenantSettingsVersion}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TenantSettings", src)
	}
	if len(raw) == 0 {
		*s = TenantSettings{Version: TenantSettingsVersion}
		return nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("failed to decode tenant settings: %w", err)
	}
	if s.Version == 0 {
		s.Version = TenantSettingsVersion
	}
	return nil
}
