package gate

// Rules is the route-gate configuration, rules file:
//
//	landing: /login
//	home: /dashboard
//	public: [/login, /register, /healthz]
//	guest_only: [/login, /register]
//	protected: [/dashboard, /applications]
//
// Entries are path prefixes matched on segment boundaries.
type Rules struct {
	Landing   string   `yaml:"landing"`
	Home      string   `yaml:"home"`
	Public    []string `yaml:"public"`
	GuestOnly []string `yaml:"guest_only"`
	Protected []string `yaml:"protected"`
}

// DefaultRules are used when no rules file is configured, and fill any
// section a file leaves out.
func DefaultRules() Rules {
	return Rules{
		Landing: "/login",
		Home:    "/dashboard",
		Public: []string{
			"/login",
			"/register",
			"/forgot-password",
			"/reset-password",
			"/verify-otp",
			"/auth",
			"/healthz",
			"/readyz",
			"/infra",
		},
		GuestOnly: []string{
			"/login",
			"/register",
			"/forgot-password",
			"/reset-password",
			"/verify-otp",
		},
		Protected: []string{
			"/dashboard",
			"/applications",
			"/companies",
			"/interviews",
			"/contacts",
			"/resumes",
			"/bookmarks",
			"/logs",
			"/settings",
		},
	}
}
