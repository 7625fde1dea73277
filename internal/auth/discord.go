package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Discord endpoints. Tests point a DiscordConfig at an httptest server
// instead.
const (
	DiscordAuthorizeURL = "https://discord.com/api/oauth2/authorize"
	DiscordTokenURL     = "https://discord.com/api/oauth2/token"
	DiscordAPIBase      = "https://discord.com/api"

	discordCDN = "https://cdn.discordapp.com"
)

// DiscordScopes are requested on every authorization: the identity, its
// email, and the guilds it belongs to (for the membership check).
var DiscordScopes = []string{"identify", "email", "guilds"}

// DiscordUser is the subset of GET /users/@me the application uses.
//
// Email is empty when the user has no verified email or declined the scope.
// Avatar is the avatar hash, empty for users without a custom avatar.
type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// AvatarURL builds the CDN URL for the user's avatar, or nil when there is
// none.
func (u *DiscordUser) AvatarURL() *string {
	if u.Avatar == "" {
		return nil
	}
	url := fmt.Sprintf("%s/avatars/%s/%s.png", discordCDN, u.ID, u.Avatar)
	return &url
}

// DiscordGuild is one entry of GET /users/@me/guilds.
type DiscordGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiscordConfig configures a DiscordProvider. Empty endpoint fields default to
// Discord's production URLs.
type DiscordConfig struct {
	ClientID     string
	ClientSecret string

	AuthorizeURL string
	TokenURL     string
	APIBase      string

	// HTTPClient is used for the token exchange and API calls. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// DiscordProvider wraps golang.org/x/oauth2 for Discord's Authorization Code
// flow.
//
// ONE PROVIDER, TWO CALLBACKS:
// The web and native-app flows register different callback URLs with Discord.
// The redirect_uri sent on authorization must be repeated verbatim on the
// token exchange, so every call takes the callback URL explicitly instead of
// baking one into the oauth2.Config.
type DiscordProvider struct {
	config  oauth2.Config
	apiBase string
	client  *http.Client
}

func NewDiscordProvider(cfg DiscordConfig) *DiscordProvider {
	authURL := orDefault(cfg.AuthorizeURL, DiscordAuthorizeURL)
	tokenURL := orDefault(cfg.TokenURL, DiscordTokenURL)
	apiBase := strings.TrimRight(orDefault(cfg.APIBase, DiscordAPIBase), "/")

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &DiscordProvider{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       DiscordScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBase,
		client:  client,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// withCallback returns a copy of the oauth2 config bound to callbackURL.
func (p *DiscordProvider) withCallback(callbackURL string) *oauth2.Config {
	c := p.config
	c.RedirectURL = callbackURL
	return &c
}

// oauthContext makes oauth2 use the provider's HTTP client.
func (p *DiscordProvider) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// AuthURL returns the Discord authorization URL. state is passed through
// untouched so Discord echoes it back on the callback.
func (p *DiscordProvider) AuthURL(callbackURL, state string) string {
	return p.withCallback(callbackURL).AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (p *DiscordProvider) Exchange(ctx context.Context, code, callbackURL string) (*oauth2.Token, error) {
	token, err := p.withCallback(callbackURL).Exchange(p.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Discord code: %w", err)
	}
	return token, nil
}

// FetchIdentity returns the Discord user the token belongs to.
func (p *DiscordProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*DiscordUser, error) {
	var user DiscordUser
	if err := p.get(ctx, token, "/users/@me", &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth: Discord returned a user without an id")
	}
	return &user, nil
}

// FetchGuilds returns the guilds the token's user is a member of.
func (p *DiscordProvider) FetchGuilds(ctx context.Context, token *oauth2.Token) ([]DiscordGuild, error) {
	var guilds []DiscordGuild
	if err := p.get(ctx, token, "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// get calls a Discord API path with the token and decodes the JSON body into
// dest.
func (p *DiscordProvider) get(ctx context.Context, token *oauth2.Token, path string, dest any) error {
	client := p.config.Client(p.oauthContext(ctx), token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building Discord %s request: %w", path, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling Discord %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: Discord %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("auth: decoding Discord %s response: %w", path, err)
	}
	return nil
}

// IsMember reports whether guildID is among guilds.
func IsMember(guilds []DiscordGuild, guildID string) bool {
	for _, g := range guilds {
		if g.ID == guildID {
			return true
		}
	}
	return false
}
