package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/coursehub-session/exchange"
	apperrors "github.com/jrsteele09/coursehub-session/internal/errors"
	"github.com/jrsteele09/coursehub-session/profile"
	"github.com/jrsteele09/coursehub-session/session"
	"github.com/jrsteele09/coursehub-session/token"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			id := a.service.State().Identity
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", displayName(id), id.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg exchange.Registration
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := token.ParseRole(role)
			if err != nil {
				return err
			}
			reg.Role = parsed
			if reg.PasswordConfirm == "" {
				reg.PasswordConfirm = reg.Password
			}
			if err := a.service.Register(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered and signed in as %s (%s)\n", reg.Email, a.service.State().Identity.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password")
	cmd.Flags().StringVar(&reg.PasswordConfirm, "password-confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&role, "role", string(token.RoleStudent), "student or teacher")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Erase the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.service.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			renderStatus(a.out, state, time.Now())
			return nil
		},
	}
}

func renderStatus(w io.Writer, state session.State, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Phase", "Subject", "Username", "Email", "Role", "Expires"})

	id := state.Identity
	if id == nil {
		t.AppendRow(table.Row{formatPhase(state.Phase), "-", "-", "-", "-", "-"})
	} else {
		t.AppendRow(table.Row{formatPhase(state.Phase), id.SubjectID, id.Username, id.Email, id.Role, formatExpiry(id.ExpiresAt, now)})
	}
	t.Render()
}

func formatPhase(p session.Phase) string {
	switch p {
	case session.PhaseAuthenticated:
		return text.FgGreen.Sprint(p.String())
	case session.PhaseAnonymous:
		return text.FgYellow.Sprint(p.String())
	default:
		return text.FgHiBlack.Sprint(p.String())
	}
}

func formatExpiry(exp, now time.Time) string {
	d := exp.Sub(now).Round(time.Second)
	if d <= 0 {
		return fmt.Sprintf("%s (expired)", exp.Local().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", exp.Local().Format(time.RFC3339), d)
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the profile of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.service.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			if !state.Authenticated() {
				return errAuthRequired
			}
			client, err := profile.NewClient(a.settings().BaseURL, a.service.HTTPClient())
			if err != nil {
				return err
			}
			p, err := client.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", p.FullName, p.Email, p.Role)
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var roles []string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path with the session attached",
		Long: `GET a path relative to the API root and print the response body.
With --role the request is only sent when the session carries one of the roles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			allowed := make([]token.Role, 0, len(roles))
			for _, r := range roles {
				role, err := token.ParseRole(r)
				if err != nil {
					return err
				}
				allowed = append(allowed, role)
			}

			state, err := a.service.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			switch session.Authorize(state, allowed...) {
			case session.DecisionLogin:
				return errAuthRequired
			case session.DecisionWait:
				return apperrors.ErrSessionNotReady
			case session.DecisionForbidden:
				return fmt.Errorf("%w: role %s is not allowed", apperrors.ErrForbidden, state.Identity.Role)
			}

			endpoint, err := resolve(a.settings().BaseURL, args[0])
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			resp, err := a.service.HTTPClient().Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if _, err := io.Copy(a.out, resp.Body); err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("%s: %s", endpoint, resp.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "require one of these roles (repeatable)")
	return cmd
}

func resolve(baseURL, path string) (string, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func displayName(id *token.Identity) string {
	if id.FullName != "" {
		return id.FullName
	}
	if id.Username != "" {
		return id.Username
	}
	return id.Email
}
