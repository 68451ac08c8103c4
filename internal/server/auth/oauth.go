package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/netx"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProfile is the subset of the Google userinfo response the server
// cares about. Sub is the stable Google account identifier.
type GoogleProfile struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// GoogleVerifier exchanges OAuth authorization codes for Google profiles.
type GoogleVerifier struct {
	conf        *oauth2.Config
	userInfoURL string
}

// NewGoogleVerifier builds a verifier for the given OAuth client settings.
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return &GoogleVerifier{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL returns the Google consent URL together with the random
// state parameter the caller must verify on callback.
func (v *GoogleVerifier) AuthCodeURL() (url, state string, err error) {
	state, err = common.MakeRandHexString(16)
	if err != nil {
		return "", "", err
	}
	return v.conf.AuthCodeURL(state), state, nil
}

// Exchange redeems an authorization code and fetches the profile of the
// account it belongs to. A rejected code maps to ErrUnauthorized.
func (v *GoogleVerifier) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := v.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", common.ErrUnauthorized)
	}

	data, err := netx.FetchBytes(ctx, v.conf.Client(ctx, token), v.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}

	profile := &GoogleProfile{}
	if err := json.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("userinfo decode: %w", err)
	}
	if profile.Sub == "" || profile.Email == "" {
		return nil, fmt.Errorf("userinfo incomplete: %w", common.ErrUnauthorized)
	}

	return profile, nil
}
