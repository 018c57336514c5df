package cmd

import (
	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/session"
)

// Signup is a command to register a new user.
type Signup struct {
	CommonOpts `no-flag:"true"`
	Email      string `long:"email" required:"true" description:"email of the user"`
	Username   string `long:"username" required:"true" description:"name of the user"`
	Password   string `long:"password" env:"BRIEFLY_PASSWORD" required:"true" description:"password of the user"`
}

// Execute runs the command.
func (s *Signup) Execute(_ []string) error {
	ctx := s.context()

	e, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	u, err := e.d.Signup(ctx, backend.SignupRequest{Email: s.Email, Username: s.Username, Password: s.Password})
	if err != nil {
		return err
	}

	s.printf("signed up as %s (id %d), now log in\n", u.Username, u.ID)
	return nil
}

// Login is a command to log in and keep the session under the profile.
type Login struct {
	CommonOpts `no-flag:"true"`
	Email      string `long:"email" required:"true" description:"email of the user"`
	Password   string `long:"password" env:"BRIEFLY_PASSWORD" required:"true" description:"password of the user"`
}

// Execute runs the command.
func (l *Login) Execute(_ []string) error {
	ctx := l.context()

	e, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	u, err := e.d.Login(ctx, l.Email, l.Password)
	if err != nil {
		return err
	}

	l.printf("logged in as %s <%s>\n", u.Username, u.Email)
	return nil
}

// Logout is a command to forget the session of the profile.
type Logout struct {
	CommonOpts `no-flag:"true"`
}

// Execute runs the command.
func (l *Logout) Execute(_ []string) error {
	ctx := l.context()

	e, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if !e.d.Session.State().Authenticated() {
		l.printf("not logged in\n")
		return nil
	}

	e.d.Logout(ctx)
	l.printf("logged out\n")
	return nil
}

// Whoami is a command to show the user of the profile.
type Whoami struct {
	CommonOpts `no-flag:"true"`
}

// Execute runs the command.
func (w *Whoami) Execute(_ []string) error {
	e, err := w.open(w.context())
	if err != nil {
		return err
	}
	defer e.close()

	st := e.d.Session.State()
	switch st.Phase {
	case session.PhaseConfirmed:
		w.printf("%s <%s>\n", st.User.Username, st.User.Email)
	case session.PhaseCached:
		w.printf("%s <%s> (not confirmed, backend is unreachable)\n", st.User.Username, st.User.Email)
	case session.PhaseInvalidated:
		w.printf("session expired, log in again\n")
	default:
		w.printf("not logged in\n")
	}

	return nil
}

var (
	_ Commander = (*Signup)(nil)
	_ Commander = (*Login)(nil)
	_ Commander = (*Logout)(nil)
	_ Commander = (*Whoami)(nil)
)
