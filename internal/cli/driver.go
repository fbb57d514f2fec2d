// Package cli drives a client.Form from a line oriented terminal session.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/goliatone/go-auth-gate/client"
)

const helpText = `commands:
  name <value>       set display name (sign up)
  email <value>      set email
  phone <value>      set phone number (sign up)
  age <value>        set age (sign up)
  password <value>   set password
  agree [yes|no]     accept or decline the terms (sign up)
  mode               toggle between sign in and sign up
  submit             sign in or sign up with the current values
  google             sign in with Google
  state              show the form
  whoami             show the current principal
  signout            clear the current principal
  quit               exit`

// Driver reads commands from in and writes results to out.
type Driver struct {
	in  *bufio.Scanner
	out io.Writer
}

// New creates a driver.
func New(in io.Reader, out io.Writer) *Driver {
	return &Driver{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Prompt asks the user to complete the Google consent page and paste back
// either the redirect URL or "<code> <state>". An empty answer cancels.
func (d *Driver) Prompt(ctx context.Context, authURL string) (string, string, error) {
	d.printf("open this URL and paste the redirect URL:\n%s\n> ", authURL)

	line, ok := d.readLine()
	if !ok || line == "" || line == "cancel" {
		return "", "", context.Canceled
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	if strings.Contains(line, "://") {
		u, err := url.Parse(line)
		if err != nil {
			return "", "", fmt.Errorf("invalid redirect url: %w", err)
		}
		q := u.Query()
		if e := q.Get("error"); e != "" {
			return "", "", context.Canceled
		}
		return q.Get("code"), q.Get("state"), nil
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("expected \"<code> <state>\"")
	}
	return fields[0], fields[1], nil
}

// Run processes commands until quit, end of input or ctx is done.
func (d *Driver) Run(ctx context.Context, form *client.Form, session *client.Session) error {
	d.printf("%s\n", helpText)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		d.printf("[%s] > ", form.State().Mode)
		line, ok := d.readLine()
		if !ok {
			return d.in.Err()
		}
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "name":
			form.SetName(arg)
		case "email":
			form.SetEmail(arg)
		case "phone":
			form.SetPhone(arg)
		case "age":
			form.SetAge(arg)
		case "password":
			form.SetPassword(arg)
		case "agree":
			form.SetAgreed(arg == "" || arg == "yes" || arg == "true")
		case "mode":
			d.printf("mode: %s\n", form.ToggleMode())
		case "submit":
			principal, err := form.Submit(ctx)
			d.report(principal, err)
		case "google":
			principal, err := form.SignInWithFederated(ctx)
			d.report(principal, err)
		case "state":
			d.printState(form.State())
		case "whoami":
			if p, ok := session.Current(); ok {
				d.printPrincipal(p)
			} else {
				d.printf("signed out\n")
			}
		case "signout":
			session.SignOut()
			d.printf("signed out\n")
		case "help":
			d.printf("%s\n", helpText)
		case "quit", "exit":
			return nil
		default:
			d.printf("unknown command %q\n", cmd)
		}
	}
}

func (d *Driver) report(principal *client.Principal, err error) {
	if principal != nil {
		d.printPrincipal(principal)
	}
	if err != nil {
		d.printf("error [%s]: %s\n", client.KindOf(err), client.MessageOf(err))
	}
}

func (d *Driver) printPrincipal(p *client.Principal) {
	d.printf("signed in as %s <%s> via %s (uid %s)\n", p.DisplayName, p.Email, p.ProviderID, p.UID)
}

func (d *Driver) printState(s client.FormState) {
	d.printf("mode=%s name=%q email=%q phone=%q age=%q agreed=%t loading=%t\n",
		s.Mode, s.Name, s.Email, s.Phone, s.Age, s.Agreed, s.Loading)
	if s.Error != "" {
		d.printf("error [%s]: %s\n", s.ErrorKind, s.Error)
	}
}

func (d *Driver) readLine() (string, bool) {
	if !d.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(d.in.Text()), true
}

func (d *Driver) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}
