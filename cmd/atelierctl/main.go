// Command atelierctl is a thin terminal front end over the session core:
// sign in, inspect the current identity, flip feature toggles, sign out.
// It exists to exercise the same bootstrap/login/logout paths the client
// app uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goliatone/go-print"

	atelier "github.com/atelier-market/atelier-go"
	"github.com/atelier-market/atelier-go/localstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, atelier.UserFacingMessage(err))
		fmt.Fprintf(os.Stderr, "detail: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	cfg, err := atelier.LoadConfig()
	if err != nil {
		return err
	}

	store, err := localstore.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := atelier.NewClient(cfg.ClientConfig())
	manager := atelier.NewManager(client, store)
	toggles := atelier.NewToggles(store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		return cmdLogin(ctx, manager, args[1:])
	case "wallet-login":
		return cmdWalletLogin(ctx, manager, args[1:])
	case "signup":
		return cmdSignup(ctx, manager, args[1:])
	case "whoami":
		return cmdWhoami(ctx, manager)
	case "logout":
		manager.Logout()
		fmt.Println("signed out")
		return nil
	case "toggle":
		return cmdToggle(toggles, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdLogin(ctx context.Context, manager *atelier.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("identifier", "", "email or username")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	session, err := manager.Login(ctx, atelier.LoginRequest{
		Identifier: *identifier,
		Password:   *password,
	})
	if err != nil {
		return err
	}

	return printSession(session)
}

func cmdWalletLogin(ctx context.Context, manager *atelier.Manager, args []string) error {
	fs := flag.NewFlagSet("wallet-login", flag.ExitOnError)
	address := fs.String("address", "", "wallet address")
	signed := fs.String("signed", "", "signed challenge message")
	original := fs.String("original", "", "original challenge message")
	fs.Parse(args)

	session, err := manager.Login(ctx, atelier.LoginRequest{
		WalletFlow:      true,
		WalletAddress:   *address,
		SignedMessage:   *signed,
		OriginalMessage: *original,
	})
	if err != nil {
		return err
	}

	return printSession(session)
}

func cmdSignup(ctx context.Context, manager *atelier.Manager, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	wallet := fs.String("wallet", "", "optional wallet address")
	fs.Parse(args)

	session, err := manager.Signup(ctx, atelier.SignupRequest{
		Username:      *username,
		Email:         *email,
		Password:      *password,
		WalletAddress: *wallet,
	})
	if err != nil {
		return err
	}

	return printSession(session)
}

func cmdWhoami(ctx context.Context, manager *atelier.Manager) error {
	session := manager.Bootstrap(ctx)
	if !session.Authenticated() {
		fmt.Println("not signed in")
		return nil
	}

	return printSession(session)
}

func cmdToggle(toggles *atelier.Toggles, args []string) error {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	name := fs.String("name", "", "toggle name")
	set := fs.String("set", "", "set to true or false; empty just reads")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("toggle requires -name")
	}

	if *set != "" {
		toggles.Set(*name, *set == "true")
	}

	fmt.Printf("%s=%v\n", *name, toggles.Enabled(*name))
	return nil
}

func printSession(session atelier.Session) error {
	fmt.Printf("signed in as %s (role=%s)\n", session.User.Username, session.Role())
	fmt.Println(print.MaybePrettyJSON(session.User))
	return nil
}

func usage() {
	fmt.Println(`usage: atelierctl <command>

commands:
  login         -identifier <id> -password <pw>
  wallet-login  -address <addr> -signed <msg> -original <msg>
  signup        -username <u> -email <e> -password <pw> [-wallet <addr>]
  whoami
  logout
  toggle        -name <toggle> [-set true|false]

environment:
  ATELIER_API_URL                backend base URL (required)
  ATELIER_STATE_PATH             local state database path
  ATELIER_HTTP_TIMEOUT_SECONDS   request timeout (default 10)`)
}
