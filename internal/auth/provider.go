package auth // package auth implements federated login and session principal resolution

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"

    "github.com/google/uuid"
    "golang.org/x/oauth2"
    "golang.org/x/oauth2/google"

    "github.com/psp-portal/portal-api/internal/model"
)

// googleUserinfoURL is the endpoint queried with the exchanged access token
// to obtain the profile fields the resolver consumes.
const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ProviderGoogle is the provider name stamped onto principals accepted
// through the Google callback.
const ProviderGoogle = "google"

// Provider wraps the OAuth2 authorization-code dance against Google.  The
// portal runs two instances of it with different callback URLs: one for the
// public login path and one for the admin-gated path.  Protocol details end
// here; the post-callback decision logic lives in Resolver.
type Provider struct {
    conf *oauth2.Config
}

// NewGoogleProvider builds a provider whose callback lands on
// backendHost+callbackPath (e.g. "https://portal.example.com" +
// "/auth/google/callback").
func NewGoogleProvider(clientID, clientSecret, backendHost, callbackPath string) *Provider {
    return &Provider{
        conf: &oauth2.Config{
            ClientID:     clientID,
            ClientSecret: clientSecret,
            Endpoint:     google.Endpoint,
            RedirectURL:  fmt.Sprintf("%s%s", backendHost, callbackPath),
            Scopes:       []string{"openid", "email", "profile"},
        },
    }
}

// Name returns the provider name used for the FederatedProvider stamp.
func (p *Provider) Name() string { return ProviderGoogle }

// StateToken returns an unguessable value bound to the login attempt via a
// short-lived cookie and echoed back by the provider.
func (p *Provider) StateToken() string { return uuid.NewString() }

// AuthURL returns the provider consent-screen URL for the given state.
func (p *Provider) AuthURL(state string) string {
    return p.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// FetchProfile exchanges the callback code and queries the userinfo
// endpoint, returning the transient profile consumed by the resolver.
func (p *Provider) FetchProfile(ctx context.Context, code string) (model.FederatedProfile, error) {
    tok, err := p.conf.Exchange(ctx, code)
    if err != nil {
        return model.FederatedProfile{}, fmt.Errorf("code exchange: %w", err)
    }
    resp, err := p.conf.Client(ctx, tok).Get(googleUserinfoURL)
    if err != nil {
        return model.FederatedProfile{}, fmt.Errorf("userinfo fetch: %w", err)
    }
    defer func() { _ = resp.Body.Close() }()
    if resp.StatusCode != http.StatusOK {
        return model.FederatedProfile{}, fmt.Errorf("userinfo fetch: status %d", resp.StatusCode)
    }
    var info struct {
        ID    string `json:"id"`
        Email string `json:"email"`
        Name  string `json:"name"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
        return model.FederatedProfile{}, fmt.Errorf("userinfo decode: %w", err)
    }
    profile := model.FederatedProfile{SubjectID: info.ID, DisplayName: info.Name}
    if info.Email != "" {
        profile.Emails = []string{info.Email}
    }
    return profile, nil
}
