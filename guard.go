package atelier

// Tier identifies a route trust group.
type Tier string

const (
	// TierPublicOnly covers sign-in, sign-up, and landing pages: an
	// authenticated visitor is sent to their home surface instead.
	TierPublicOnly Tier = "public-only"
	// TierUser covers routes any authenticated account can use.
	TierUser Tier = "user"
	// TierAdmin covers the back office; authenticated non-admins are
	// bounced, not merely treated as unauthenticated.
	TierAdmin Tier = "admin"
)

// GuardAction is the admission outcome for a route group.
type GuardAction string

const (
	// ActionAllow renders the protected content.
	ActionAllow GuardAction = "allow"
	// ActionRedirect navigates to Decision.Target before anything renders.
	ActionRedirect GuardAction = "redirect"
	// ActionWait shows a neutral placeholder; the session has not settled
	// and no admission decision may be made yet.
	ActionWait GuardAction = "wait"
)

// Decision is the result of evaluating a tier against the current session.
type Decision struct {
	Action GuardAction
	Target string
}

// Allowed reports whether protected content may render.
func (d Decision) Allowed() bool {
	return d.Action == ActionAllow
}

// RoutePolicy names the redirect destinations per tier.
type RoutePolicy struct {
	SignInRoute      string
	AdminSignInRoute string
	UserHomeRoute    string
	AdminHomeRoute   string
}

func defaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		SignInRoute:      "/signin",
		AdminSignInRoute: "/admin/signin",
		UserHomeRoute:    "/home",
		AdminHomeRoute:   "/admin",
	}
}

// GuardOption customizes Guard construction.
type GuardOption func(*Guard)

// WithRoutePolicy overrides the default redirect destinations.
func WithRoutePolicy(policy RoutePolicy) GuardOption {
	return func(g *Guard) {
		def := defaultRoutePolicy()
		if policy.SignInRoute == "" {
			policy.SignInRoute = def.SignInRoute
		}
		if policy.AdminSignInRoute == "" {
			policy.AdminSignInRoute = def.AdminSignInRoute
		}
		if policy.UserHomeRoute == "" {
			policy.UserHomeRoute = def.UserHomeRoute
		}
		if policy.AdminHomeRoute == "" {
			policy.AdminHomeRoute = def.AdminHomeRoute
		}
		g.policy = policy
	}
}

// WithGuardLogger overrides the guard logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Guard decides route admission from the single session snapshot. Both
// surfaces (storefront and back office) consult the same session and its
// derived role, so clearing one cannot leave the other half-signed-in.
type Guard struct {
	session SessionReader
	policy  RoutePolicy
	logger  Logger
}

// NewGuard creates a route guard over the session reader.
func NewGuard(session SessionReader, opts ...GuardOption) *Guard {
	g := &Guard{
		session: session,
		policy:  defaultRoutePolicy(),
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Admit evaluates a tier against the current session. While the session is
// initializing or resolving the answer is always wait: no redirect happens
// and no protected content or data fetch may proceed.
func (g *Guard) Admit(tier Tier) Decision {
	return g.admit(tier, g.session.Current())
}

func (g *Guard) admit(tier Tier, snap Session) Decision {
	if !snap.Ready() {
		return Decision{Action: ActionWait}
	}

	switch tier {
	case TierPublicOnly:
		if !snap.Authenticated() {
			return Decision{Action: ActionAllow}
		}
		if snap.Role() == RoleAdmin {
			return Decision{Action: ActionRedirect, Target: g.policy.AdminHomeRoute}
		}
		return Decision{Action: ActionRedirect, Target: g.policy.UserHomeRoute}

	case TierUser:
		if !snap.Authenticated() {
			return Decision{Action: ActionRedirect, Target: g.policy.SignInRoute}
		}
		return Decision{Action: ActionAllow}

	case TierAdmin:
		if !snap.Authenticated() || snap.Role() != RoleAdmin {
			return Decision{Action: ActionRedirect, Target: g.policy.AdminSignInRoute}
		}
		return Decision{Action: ActionAllow}

	default:
		g.logger.Warn("unknown trust tier %q, denying admission", tier)
		return Decision{Action: ActionRedirect, Target: g.policy.SignInRoute}
	}
}

// PublicOnly evaluates the public-only tier.
func (g *Guard) PublicOnly() Decision {
	return g.Admit(TierPublicOnly)
}

// RequireUser evaluates the authenticated-user tier.
func (g *Guard) RequireUser() Decision {
	return g.Admit(TierUser)
}

// RequireAdmin evaluates the authenticated-admin tier.
func (g *Guard) RequireAdmin() Decision {
	return g.Admit(TierAdmin)
}

// GuardHooks receive the admission outcome. Render runs only on allow, with
// the snapshot the decision was made from.
type GuardHooks struct {
	Render   func(session Session) error
	Redirect func(target string) error
	Wait     func() error
}

// Handle evaluates the tier and dispatches to the matching hook, so callers
// cannot accidentally render protected content on a redirect or wait.
func (g *Guard) Handle(tier Tier, hooks GuardHooks) error {
	snap := g.session.Current()
	decision := g.admit(tier, snap)

	switch decision.Action {
	case ActionAllow:
		if hooks.Render != nil {
			return hooks.Render(snap)
		}
	case ActionRedirect:
		if hooks.Redirect != nil {
			return hooks.Redirect(decision.Target)
		}
	case ActionWait:
		if hooks.Wait != nil {
			return hooks.Wait()
		}
	}

	return nil
}
