package domain

import (
	"fmt"
	"strings"
)

// Provider identifies a supported OAuth identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderDiscord  Provider = "discord"
)

// AllProviders contains all supported providers
var AllProviders = []Provider{ProviderGoogle, ProviderFacebook, ProviderDiscord}

// IsValid checks if a provider is supported
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderDiscord:
		return true
	}
	return false
}

// String returns the string representation of the provider
func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a string into a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", ErrUnknownProvider
	}
	return p, nil
}

// OAuthProfile is the normalized identity a provider asserts about a user.
// Email and AvatarURL are nil when the provider did not share them.
type OAuthProfile struct {
	Provider    Provider
	ProviderID  string
	Email       *string
	DisplayName string
	AvatarURL   *string
	Raw         []byte
}

// NormalizeGoogleProfile maps Google userinfo fields into an OAuthProfile.
// Display name falls back to the email local part, then a generated name.
func NormalizeGoogleProfile(id, email, name, picture string) OAuthProfile {
	displayName := name
	if displayName == "" && email != "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	if displayName == "" {
		displayName = fmt.Sprintf("User%s", id)
	}
	return OAuthProfile{
		Provider:    ProviderGoogle,
		ProviderID:  id,
		Email:       optionalString(email),
		DisplayName: displayName,
		AvatarURL:   optionalString(picture),
	}
}

// NormalizeFacebookProfile maps Facebook Graph fields into an OAuthProfile.
func NormalizeFacebookProfile(id, email, name, pictureURL string) OAuthProfile {
	displayName := name
	if displayName == "" {
		displayName = fmt.Sprintf("User%s", id)
	}
	return OAuthProfile{
		Provider:    ProviderFacebook,
		ProviderID:  id,
		Email:       optionalString(email),
		DisplayName: displayName,
		AvatarURL:   optionalString(pictureURL),
	}
}

// NormalizeDiscordProfile maps Discord user fields into an OAuthProfile.
// Discord returns an avatar hash, not a URL; the CDN URL is built here.
func NormalizeDiscordProfile(id, email, username, avatarHash string) OAuthProfile {
	avatar := ""
	if avatarHash != "" {
		avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", id, avatarHash)
	}
	displayName := username
	if displayName == "" {
		displayName = fmt.Sprintf("User%s", id)
	}
	return OAuthProfile{
		Provider:    ProviderDiscord,
		ProviderID:  id,
		Email:       optionalString(email),
		DisplayName: displayName,
		AvatarURL:   optionalString(avatar),
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
