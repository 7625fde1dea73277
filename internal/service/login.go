package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/auth"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// IdentityProvider is the external OAuth provider. *auth.DiscordProvider
// implements it; tests substitute a fake.
type IdentityProvider interface {
	AuthURL(callbackURL, state string) string
	Exchange(ctx context.Context, code, callbackURL string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, token *oauth2.Token) (*auth.DiscordUser, error)
	FetchGuilds(ctx context.Context, token *oauth2.Token) ([]auth.DiscordGuild, error)
}

// LoginTarget distinguishes the clients that can start a login. Each one
// has its own provider callback and its own client redirect.
type LoginTarget string

const (
	LoginWeb LoginTarget = "web"
	LoginApp LoginTarget = "app"
)

// LoginDestination is where one target's flow goes.
//
//   - CallbackURL is our own callback route, registered with the provider.
//   - RedirectURI is the client page that receives ?token= or ?error=.
type LoginDestination struct {
	CallbackURL string
	RedirectURI string
}

type LoginConfig struct {
	// GuildID is the server a new account must be a member of.
	GuildID string
	Targets map[LoginTarget]LoginDestination
}

// LoginState is one step of a login attempt.
type LoginState string

const (
	LoginStart             LoginState = "START"
	LoginTokenExchanged    LoginState = "TOKEN_EXCHANGED"
	LoginIdentityFetched   LoginState = "IDENTITY_FETCHED"
	LoginExistingUser      LoginState = "EXISTING_USER"
	LoginMembershipChecked LoginState = "MEMBERSHIP_CHECKED"
	LoginSessionIssued     LoginState = "SESSION_ISSUED"
	LoginRejected          LoginState = "REJECTED"
)

// Rejection reasons sent back to the client. Provider errors are logged and
// never copied into the redirect.
const (
	ReasonAuthenticationFailed = "authentication failed"
	ReasonMembershipRequired   = "You need to be a member of the server to use this application"
)

// CallbackParams are the query parameters the provider sends to the callback.
type CallbackParams struct {
	Code  string
	State string
	// Error is set when the user denied the authorization request.
	Error string
}

// LoginOutcome is the terminal result of Complete. Redirect is always set:
// the client is never left without somewhere to go.
type LoginOutcome struct {
	State    LoginState
	Trace    []LoginState
	User     *model.User
	Token    string
	Created  bool
	Reason   string
	Code     int
	Redirect string
}

// LoginService runs the Discord login and account provisioning flow.
//
// STATE MACHINE:
//
//	START → TOKEN_EXCHANGED → IDENTITY_FETCHED ─┬→ EXISTING_USER ──────┬→ SESSION_ISSUED
//	                                            └→ MEMBERSHIP_CHECKED ─┘
//	(any step) ─────────────────────────────────────────────────────────→ REJECTED
//
// An existing account is not re-checked for membership. A new account is
// only written after the membership check passes, so a rejected login
// leaves no row behind.
type LoginService struct {
	provider IdentityProvider
	tokens   *auth.TokenService
	users    repository.UserRepository
	activity ActivityRecorder
	cfg      LoginConfig
	logger   *slog.Logger
}

func NewLoginService(
	provider IdentityProvider,
	tokens *auth.TokenService,
	users repository.UserRepository,
	activity ActivityRecorder,
	cfg LoginConfig,
	logger *slog.Logger,
) *LoginService {
	return &LoginService{
		provider: provider,
		tokens:   tokens,
		users:    users,
		activity: activity,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *LoginService) destination(target LoginTarget) (LoginDestination, error) {
	dest, ok := s.cfg.Targets[target]
	if !ok {
		return LoginDestination{}, apperror.NotFoundMessage(fmt.Sprintf("unknown login target %q", target))
	}
	return dest, nil
}

// Begin returns the provider authorization URL for target. An empty state is
// replaced by a fresh random one, which is also returned.
func (s *LoginService) Begin(target LoginTarget, state string) (string, string, error) {
	dest, err := s.destination(target)
	if err != nil {
		return "", "", err
	}
	if state == "" {
		state = xid.New().String()
	}
	return s.provider.AuthURL(dest.CallbackURL, state), state, nil
}

// Complete handles the provider callback for target. The only error it
// returns is for an unknown target; every other failure is a REJECTED
// outcome carrying a redirect.
func (s *LoginService) Complete(ctx context.Context, target LoginTarget, params CallbackParams) (*LoginOutcome, error) {
	dest, err := s.destination(target)
	if err != nil {
		return nil, err
	}

	run := &loginRun{
		LoginService: s,
		dest:         dest,
		params:       params,
		out:          &LoginOutcome{},
	}
	run.step(LoginStart)
	run.execute(ctx)
	return run.out, nil
}

// loginRun carries one attempt through the state machine.
type loginRun struct {
	*LoginService
	dest   LoginDestination
	params CallbackParams
	out    *LoginOutcome
}

func (r *loginRun) step(state LoginState) {
	r.out.State = state
	r.out.Trace = append(r.out.Trace, state)
}

func (r *loginRun) execute(ctx context.Context) {
	if r.params.Error != "" {
		r.logger.Warn("discord authorization denied",
			slog.String("error", r.params.Error),
		)
		r.reject(401, ReasonAuthenticationFailed)
		return
	}
	if r.params.Code == "" {
		r.reject(401, ReasonAuthenticationFailed)
		return
	}

	token, err := r.provider.Exchange(ctx, r.params.Code, r.dest.CallbackURL)
	if err != nil {
		r.fail("exchanging discord code", err)
		return
	}
	r.step(LoginTokenExchanged)

	identity, err := r.provider.FetchIdentity(ctx, token)
	if err != nil {
		r.fail("fetching discord identity", err)
		return
	}
	r.step(LoginIdentityFetched)

	user, err := r.users.GetByDiscordID(ctx, identity.ID)
	switch {
	case err == nil:
		r.step(LoginExistingUser)
		if err := r.refresh(ctx, user, identity); err != nil {
			r.fail("recording login", err)
			return
		}
	case errors.Is(err, apperror.ErrNotFound):
		guilds, err := r.provider.FetchGuilds(ctx, token)
		if err != nil {
			r.fail("fetching discord guilds", err)
			return
		}
		r.step(LoginMembershipChecked)
		if !auth.IsMember(guilds, r.cfg.GuildID) {
			r.logger.Info("login rejected: not a guild member",
				slog.String("discordID", identity.ID),
			)
			r.reject(403, ReasonMembershipRequired)
			return
		}
		user, err = r.create(ctx, identity)
		if err != nil {
			r.activity.Record(ctx, nil, "User creation failed", map[string]string{"error": err.Error()})
			r.fail("creating user", err)
			return
		}
		r.out.Created = true
	default:
		r.fail("looking up user", err)
		return
	}

	session, err := r.tokens.Generate(user.ID)
	if err != nil {
		r.fail("issuing session token", err)
		return
	}
	r.out.User = user
	r.out.Token = session
	r.step(LoginSessionIssued)
	r.out.Redirect = r.redirect(url.Values{"token": {session}})
}

// refresh records the login and repairs a placeholder email. A real address
// is never overwritten.
func (r *loginRun) refresh(ctx context.Context, user *model.User, identity *auth.DiscordUser) error {
	var email *string
	if identity.Email != "" && user.HasPlaceholderEmail() && user.Email != identity.Email {
		email = &identity.Email
	}
	if err := r.users.RecordLogin(ctx, user.ID, email); err != nil {
		return err
	}

	r.activity.Record(ctx, &user.ID, "User logged in", nil)
	if email != nil {
		r.activity.Record(ctx, &user.ID, "User email updated",
			map[string]string{"from": user.Email, "to": *email})
		user.Email = *email
	}
	return nil
}

func (r *loginRun) create(ctx context.Context, identity *auth.DiscordUser) (*model.User, error) {
	email := identity.Email
	if email == "" {
		email = identity.ID + model.PlaceholderEmailDomain
	}
	user := &model.User{
		DiscordID: identity.ID,
		Username:  identity.Username,
		Email:     email,
		AvatarURL: identity.AvatarURL(),
		Role:      model.RoleUser,
	}
	if err := r.users.Create(ctx, user); err != nil {
		return nil, err
	}

	r.logger.Info("user account created",
		slog.Int64("userID", user.ID),
		slog.String("discordID", user.DiscordID),
	)
	r.activity.Record(ctx, &user.ID, "User account created", map[string]int64{"userId": user.ID})
	return user, nil
}

// fail rejects with the generic reason and logs the real cause.
func (r *loginRun) fail(step string, err error) {
	r.logger.Error("discord login failed",
		slog.String("step", step),
		slog.String("state", string(r.out.State)),
		slog.String("error", err.Error()),
	)
	r.reject(500, ReasonAuthenticationFailed)
}

func (r *loginRun) reject(code int, reason string) {
	r.out.Code = code
	r.out.Reason = reason
	r.step(LoginRejected)
	r.out.Redirect = r.redirect(url.Values{
		"error": {reason},
		"code":  {fmt.Sprint(code)},
	})
}

// redirect appends extra and the echoed state to the client redirect URI,
// keeping any query it already has.
func (r *loginRun) redirect(extra url.Values) string {
	u, err := url.Parse(r.dest.RedirectURI)
	if err != nil {
		// Unparsable configuration: keep the raw value as a path.
		u = &url.URL{Path: r.dest.RedirectURI}
	}
	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	if r.params.State != "" {
		q.Set("state", r.params.State)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
