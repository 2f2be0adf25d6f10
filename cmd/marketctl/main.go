// Command marketctl signs in to the identity service from a terminal and
// calls authenticated endpoints with the stored session.
//
// Usage:
//
//	marketctl register -name Alice -email a@x.com -password secret1 [-role seller]
//	marketctl login -email a@x.com -password secret1
//	marketctl whoami
//	marketctl profile [-name N] [-phone P] [-password P] [-street S -city C -state S -zip Z -country C]
//	marketctl get /seller/dashboard
//	marketctl logout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/sethvargo/go-envconfig"

	redisstore "github.com/bookmarket/identity/internal/infrastructure/db/redis"
	"github.com/bookmarket/identity/pkg/client"
	"github.com/bookmarket/identity/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "marketctl: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: marketctl <register|login|logout|whoami|profile|get> [flags]")
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("missing command")
	}

	cfg, err := loadConfig(ctx, envconfig.OsLookuper())
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr, Service: "marketctl"})

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := client.NewSessionStore(
		client.NewAPI(cfg.APIURL, cfg.Timeout),
		storage,
		client.WithLogger(log),
		client.WithLoginRedirect(func() {
			fmt.Fprintln(os.Stderr, "session expired, run `marketctl login` again")
		}),
	)
	store.Hydrate(ctx)

	return dispatch(ctx, store, args, out)
}

func dispatch(ctx context.Context, store *client.SessionStore, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		var data client.RegisterData
		fs.StringVar(&data.Name, "name", "", "display name")
		fs.StringVar(&data.Email, "email", "", "account email")
		fs.StringVar(&data.Password, "password", "", "password (min 6 characters)")
		fs.StringVar(&data.Role, "role", "", "buyer or seller")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		session, err := store.Register(ctx, data)
		if err != nil {
			return err
		}
		return printJSON(out, session.User)

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		var creds client.Credentials
		fs.StringVar(&creds.Email, "email", "", "account email")
		fs.StringVar(&creds.Password, "password", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		session, err := store.Login(ctx, creds)
		if err != nil {
			return err
		}
		return printJSON(out, session.User)

	case "logout":
		if err := store.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil

	case "whoami":
		if !store.Snapshot().IsAuthenticated() {
			return errors.New("not logged in")
		}
		me, err := store.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, me)

	case "profile":
		fs := flag.NewFlagSet("profile", flag.ContinueOnError)
		name := fs.String("name", "", "new display name")
		phone := fs.String("phone", "", "new phone (10-15 digits)")
		password := fs.String("password", "", "new password")
		var addr client.Address
		fs.StringVar(&addr.Street, "street", "", "street address")
		fs.StringVar(&addr.City, "city", "", "city")
		fs.StringVar(&addr.State, "state", "", "state or region")
		fs.StringVar(&addr.ZipCode, "zip", "", "postal code")
		fs.StringVar(&addr.Country, "country", "", "country")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		var update client.ProfileUpdate
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				update.Name = name
			case "phone":
				update.Phone = phone
			case "password":
				update.Password = password
			case "street", "city", "state", "zip", "country":
				update.Address = &addr
			}
		})
		me, err := store.UpdateProfile(ctx, update)
		if err != nil {
			return err
		}
		return printJSON(out, me)

	case "get":
		if len(rest) != 1 {
			return errors.New("usage: marketctl get <path>")
		}
		var body json.RawMessage
		if err := store.Fetch(ctx, http.MethodGet, rest[0], nil, &body); err != nil {
			return err
		}
		return printJSON(out, body)

	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openStorage(ctx context.Context, cfg cliConfig) (client.Storage, func(), error) {
	switch cfg.SessionStore {
	case "redis":
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Timeout: cfg.Timeout})
		if err != nil {
			return nil, nil, err
		}
		return client.NewRedisStorage(rdb, ""), func() { _ = rdb.Close() }, nil
	case "memory":
		return client.NewMemoryStorage(), func() {}, nil
	default:
		return client.NewFileStorage(cfg.SessionFile), func() {}, nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
