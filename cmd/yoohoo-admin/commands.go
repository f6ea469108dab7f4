package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/yoohoo-guru/yoohoo-api/internal/adapters/sessiontoken"
	"github.com/yoohoo-guru/yoohoo-api/internal/bootstrap"
	"github.com/yoohoo-guru/yoohoo-api/internal/data"
	"github.com/yoohoo-guru/yoohoo-api/internal/devseed"
	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	"github.com/yoohoo-guru/yoohoo-api/internal/migrate"
)

const defaultCommandTimeout = 5 * time.Minute

var (
	errEmailRequired    = errors.New("--email is required")
	errRoleRequired     = errors.New("--role is required")
	errPasswordRequired = errors.New("password is required (use --password or --password-stdin)")
	errTokenRequired    = errors.New("session token is required")
)

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

type dbSeedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

type createAccountOptions struct {
	Email         string
	Name          string
	Role          domainauth.Role
	Password      string
	PasswordStdin bool
}

type setRoleOptions struct {
	Email string
	Role  domainauth.Role
}

func sortedCommands() []command {
	cmds := commands()
	out := make([]command, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	return withDB(ctx, cmdCtx, func(db *sql.DB) error {
		if opts.Status {
			statuses, listErr := migrate.List(ctx, db)
			if listErr != nil {
				return fmt.Errorf("list migrations: %w", listErr)
			}
			return printMigrationStatus(cmdCtx.Stdout, statuses)
		}

		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}
	if guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote); guardErr != nil {
		return guardErr
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	return withDB(ctx, cmdCtx, func(db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}
		cmdCtx.Logger.Info("seeding development data")
		if seedErr := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); seedErr != nil {
			return fmt.Errorf("seed data: %w", seedErr)
		}
		return writef(cmdCtx.Stdout, "seeded development data; every account uses password %q\n", devseed.DevPassword)
	})
}

func runCreateAccount(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAccountFlags(args)
	if err != nil {
		return err
	}
	if opts.PasswordStdin {
		opts.Password, err = readLine(cmdCtx.Stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	if opts.Password == "" {
		return errPasswordRequired
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withDB(ctx, cmdCtx, func(db *sql.DB) error {
		repo := data.NewAccountRepoWithOptions(db, data.AccountRepoOptions{BcryptCost: cmdCtx.Config.Auth.BcryptCost})
		acct, createErr := repo.Create(ctx, &model.CreateAccountRequest{
			Email:    opts.Email,
			Name:     opts.Name,
			Password: opts.Password,
			Role:     opts.Role,
		})
		if createErr != nil {
			return fmt.Errorf("create account: %w", createErr)
		}
		return writef(cmdCtx.Stdout, "created account %s (%s, role %s)\n", acct.ID, acct.Email, acct.Role)
	})
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetRoleFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withDB(ctx, cmdCtx, func(db *sql.DB) error {
		repo := data.NewAccountRepo(db)
		acct, getErr := repo.GetByEmail(ctx, opts.Email)
		if getErr != nil {
			return fmt.Errorf("find account: %w", getErr)
		}
		if setErr := repo.SetRole(ctx, acct.ID, opts.Role); setErr != nil {
			return fmt.Errorf("set role: %w", setErr)
		}
		cmdCtx.Logger.Info("account role updated",
			"user_id", acct.ID, "from", acct.Role, "to", opts.Role)
		return writef(cmdCtx.Stdout, "%s: %s -> %s\n", acct.Email, acct.Role, opts.Role)
	})
}

// runInspectSession decodes a token exactly as the verifier does. Existing
// sessions minted under a previous role keep that role until they expire.
func runInspectSession(cmdCtx *commandContext, args []string) error {
	token, err := sessionTokenArg(args, cmdCtx.Stdin)
	if err != nil {
		return err
	}
	codec, err := sessiontoken.NewCodec([]byte(cmdCtx.Config.Auth.Session.Secret), cmdCtx.Config.Auth.Session.Issuer)
	if err != nil {
		return err
	}
	sess, err := codec.Decode(token, time.Now())
	if err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	return printSession(cmdCtx.Stdout, sess, time.Now())
}

func withDB(ctx context.Context, cmdCtx *commandContext, fn func(db *sql.DB) error) error {
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()
	return fn(db)
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts migrateOptions
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Timeout for the migration run")
	fs.BoolVar(&opts.Status, "status", false, "List migrations and whether they are applied")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	fs := flag.NewFlagSet("db-seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts dbSeedOptions
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for seeding to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")

	if err := fs.Parse(args); err != nil {
		return dbSeedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbSeedOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

// guardRemoteHost refuses to seed a non-local database unless --allow-remote
// was given and the operator retypes the host name.
func guardRemoteHost(cmdCtx *commandContext, allow bool) error {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return nil
	}
	if !allow {
		return fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	if err := writef(os.Stderr, "Database host %q does not look local. Type it to continue: ", host); err != nil {
		return err
	}
	resp, err := readLine(cmdCtx.Stdin)
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(resp) != host {
		return errors.New("aborted by user")
	}
	return nil
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case h == "", h == "localhost", strings.HasSuffix(h, ".local"):
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func parseCreateAccountFlags(args []string) (createAccountOptions, error) {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts createAccountOptions
		role string
	)
	fs.StringVar(&opts.Email, "email", "", "Account email (required)")
	fs.StringVar(&opts.Name, "name", "", "Display name (defaults to the email local part)")
	fs.StringVar(&role, "role", "", "One of gunu, guru, angel, hero-guru, admin (required)")
	fs.StringVar(&opts.Password, "password", "", "Account password")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")

	if err := fs.Parse(args); err != nil {
		return createAccountOptions{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return createAccountOptions{}, errEmailRequired
	}
	if strings.TrimSpace(opts.Name) == "" {
		opts.Name, _, _ = strings.Cut(opts.Email, "@")
	}
	parsed, err := parseRoleFlag(role)
	if err != nil {
		return createAccountOptions{}, err
	}
	opts.Role = parsed
	if opts.PasswordStdin && opts.Password != "" {
		return createAccountOptions{}, errors.New("--password and --password-stdin are mutually exclusive")
	}
	return opts, nil
}

func parseSetRoleFlags(args []string) (setRoleOptions, error) {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts setRoleOptions
		role string
	)
	fs.StringVar(&opts.Email, "email", "", "Account email (required)")
	fs.StringVar(&role, "role", "", "New role (required)")

	if err := fs.Parse(args); err != nil {
		return setRoleOptions{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return setRoleOptions{}, errEmailRequired
	}
	parsed, err := parseRoleFlag(role)
	if err != nil {
		return setRoleOptions{}, err
	}
	opts.Role = parsed
	return opts, nil
}

func parseRoleFlag(raw string) (domainauth.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errRoleRequired
	}
	role, err := domainauth.ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("--role: %w", err)
	}
	return role, nil
}

// sessionTokenArg takes the token from the first argument, or from stdin
// when the argument is absent or "-".
func sessionTokenArg(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		if tok := strings.TrimSpace(args[0]); tok != "" {
			return tok, nil
		}
		return "", errTokenRequired
	}
	tok, err := readLine(stdin)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", errTokenRequired
	}
	return tok, nil
}

func readLine(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printMigrationStatus(w io.Writer, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "VERSION\tSTATUS\n"); err != nil {
		return err
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		if err := writef(tw, "%s\t%s\n", s.Version, state); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printSession(w io.Writer, sess domainauth.Session, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Token ID", sess.ID},
		{"User ID", sess.UserID},
		{"Email", sess.Email},
		{"Name", sess.Name},
		{"Role", string(sess.Role)},
		{"Issued", sess.IssuedAt.UTC().Format(time.RFC3339)},
		{"Expires", sess.ExpiresAt.UTC().Format(time.RFC3339)},
		{"Remaining", sess.ExpiresAt.Sub(now).Truncate(time.Second).String()},
	}
	for _, row := range rows {
		if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
