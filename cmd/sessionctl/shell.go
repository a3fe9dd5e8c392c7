package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/sessionclient"
)

const userAgent = "sessionctl/1.0"

type shell struct {
	cfg      *config.ClientConfig
	out      io.Writer
	identity *sessionclient.SRPIdentityProvider
	client   *sessionclient.Client
	notices  *sessionclient.WriterNotifier
	signedIn atomic.Bool
}

// promptNavigator sends the shell back to the login prompt.
type promptNavigator struct {
	sh *shell
}

func (n promptNavigator) ResetToRoot(_ context.Context) {
	n.sh.signedIn.Store(false)
	fmt.Fprintln(n.sh.out, "Returned to the login prompt.")
}

func (n promptNavigator) ShowLogin(_ context.Context) {
	n.sh.signedIn.Store(false)
	fmt.Fprintln(n.sh.out, "Please sign in again to continue.")
}

func newShell(cfg *config.ClientConfig, httpClient *http.Client, out io.Writer) (*shell, error) {
	sh := &shell{
		cfg:     cfg,
		out:     out,
		notices: sessionclient.NewWriterNotifier(out),
	}
	public := sessionclient.NewPublicGateway(cfg.BaseURL, httpClient)
	sh.identity = sessionclient.NewSRPIdentityProvider(public, cfg.SRP)

	client, err := sessionclient.New(sessionclient.Options{
		BaseURL:        cfg.BaseURL,
		HTTPClient:     httpClient,
		Identity:       sh.identity,
		Store:          newStore(cfg),
		Classifier:     sessionclient.HeuristicClassifier{DisableNetworkHeuristic: cfg.StrictStatusCodes},
		Notifier:       sh.notices,
		Navigator:      promptNavigator{sh: sh},
		NotifyDuration: cfg.NotifyDuration,
		UserAgent:      userAgent,
	})
	if err != nil {
		return nil, err
	}
	sh.client = client
	return sh, nil
}

func (sh *shell) prompt() {
	if sh.signedIn.Load() {
		fmt.Fprintf(sh.out, "%s> ", sh.identity.UserID())
		return
	}
	fmt.Fprint(sh.out, "login> ")
}

func (sh *shell) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(sh.out, "Type 'help' for a list of commands.")
	for sh.prompt(); scanner.Scan(); sh.prompt() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := sh.exec(fields[0], fields[1:]); err != nil {
			sh.printError(err)
		}
		// A forced logout runs in the background; let it finish before the next prompt.
		sh.client.Guard.Wait()
	}
	return scanner.Err()
}

func (sh *shell) exec(cmd string, args []string) error {
	timeout := sh.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch cmd {
	case "help":
		sh.help()
		return nil
	case "register":
		if len(args) < 3 {
			return errors.New("usage: register <email> <display name> <password>")
		}
		userID, err := sh.identity.Register(ctx, args[0], strings.Join(args[1:len(args)-1], " "), args[len(args)-1])
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Registered user %s\n", userID)
		return nil
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <email> <password>")
		}
		if err := sh.identity.Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		return sh.bootstrap(ctx)
	case "forgot":
		if len(args) != 1 {
			return errors.New("usage: forgot <email>")
		}
		if err := sh.identity.RequestPasswordReset(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "If the account exists, a reset token is on its way.")
		return nil
	case "reset-password":
		if len(args) != 3 {
			return errors.New("usage: reset-password <email> <token> <new password>")
		}
		if err := sh.identity.ResetPassword(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "Password changed. Every device has been signed out.")
		return nil
	case "bootstrap":
		return sh.bootstrap(ctx)
	case "whoami":
		state, err := sh.client.Store.Load()
		if err != nil {
			return err
		}
		if state.IsZero() {
			fmt.Fprintln(sh.out, "No session cached.")
			return nil
		}
		fmt.Fprintf(sh.out, "user %s, session %s, login %s\n", state.UserID, state.SessionID, state.LoginTime.Format(time.RFC3339))
		return nil
	case "list":
		return sh.list(ctx)
	case "terminate":
		if len(args) != 1 {
			return errors.New("usage: terminate <session id>")
		}
		userID, err := sh.client.UserID(ctx)
		if err != nil {
			return err
		}
		if err := sh.client.Sessions.Terminate(ctx, userID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Session %s terminated.\n", args[0])
		return nil
	case "terminate-others":
		userID, err := sh.client.UserID(ctx)
		if err != nil {
			return err
		}
		count, err := sh.client.Sessions.TerminateOthers(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Terminated %d other session(s).\n", count)
		return nil
	case "force-logout":
		reason := strings.Join(args, " ")
		if reason == "" {
			reason = "signed out from the command line"
		}
		if !sh.client.Guard.ForceLogout(ctx, reason) {
			fmt.Fprintln(sh.out, "A logout is already in progress.")
		}
		return nil
	case "clear":
		if err := sh.client.Guard.ClearLocalState(); err != nil {
			return err
		}
		sh.signedIn.Store(false)
		fmt.Fprintln(sh.out, "Local state cleared.")
		return nil
	case "notices":
		for _, n := range sh.notices.Active() {
			fmt.Fprintf(sh.out, "%s: %s\n", n.Kind, n.Message)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (sh *shell) bootstrap(ctx context.Context) error {
	result := sh.client.Start(ctx)
	if result.RequiresManualResolution {
		fmt.Fprintln(sh.out, "Could not set up a session. Run 'bootstrap' to try again or 'login' to sign in.")
		return result.Err
	}
	sh.signedIn.Store(true)
	fmt.Fprintf(sh.out, "Session %s started.\n", result.Session.ID)
	return nil
}

func (sh *shell) list(ctx context.Context) error {
	userID, err := sh.client.UserID(ctx)
	if err != nil {
		return err
	}
	resp, err := sh.client.Sessions.List(ctx, userID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tIP\tUSER AGENT\tLOGIN\tLAST ACTIVITY\t")
	for _, s := range resp.Sessions {
		id := s.ID
		if s.IsCurrent {
			id += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", id, s.IPAddress, s.UserAgent,
			s.LoginTime.Format(time.RFC3339), s.LastActivity.Format(time.RFC3339))
	}
	return tw.Flush()
}

func (sh *shell) printError(err error) {
	var apiErr *sessionclient.APIError
	switch {
	case errors.Is(err, sessionclient.ErrCannotTerminateCurrentSession):
		fmt.Fprintln(sh.out, "You cannot terminate the session you are using. Use 'force-logout' instead.")
	case errors.Is(err, sessionclient.ErrAuthenticationRequired):
		fmt.Fprintln(sh.out, "You are not signed in.")
	case sessionclient.IsPermissionDenied(err):
		fmt.Fprintf(sh.out, "Permission denied: %s\n", err)
	case errors.As(err, &apiErr):
		fmt.Fprintf(sh.out, "Request failed (%s): %s\n", apiErr.Classification.Kind, apiErr.Message)
	default:
		fmt.Fprintf(sh.out, "Error: %s\n", err)
	}
	log.Debug().Err(err).Msg("[sessionctl] Command failed")
}

func (sh *shell) help() {
	fmt.Fprint(sh.out, `Commands:
  register <email> <display name> <password>
  login <email> <password>
  forgot <email>       request a password reset token
  reset-password <email> <token> <new password>
  bootstrap            create the session of the signed-in user
  whoami               show the cached session
  list                 list your sessions, * marks this one
  terminate <id>       end another session
  terminate-others     end every session but this one
  force-logout [why]   run the automatic logout
  clear                wipe cached session state
  notices              show active notifications
  quit
`)
}
