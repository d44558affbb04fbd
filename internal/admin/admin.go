// Package admin implements opsctl, the offline maintenance tool. It opens the
// data file directly, so it must not run while a server is using the same
// file.
package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/filex"
	"github.com/dmitrijs2005/dailyops/internal/flagx"
	"github.com/dmitrijs2005/dailyops/internal/logging"
	"github.com/dmitrijs2005/dailyops/internal/server/config"
	"github.com/dmitrijs2005/dailyops/internal/server/storage"
	"github.com/dmitrijs2005/dailyops/internal/server/users"
)

// ErrUsage is returned after the usage text was printed.
var ErrUsage = errors.New("usage")

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errNoDataFile       = errors.New("data file does not exist")
)

const usage = `usage: opsctl [config flags] <command> [options]

commands:
  useradd -user NAME     create an account (password is prompted twice)
  users                  list accounts
  export [-o FILE]       print the decrypted store as JSON, or write it to FILE

config flags are the server's: -c FILE, -s SECRET, -d DIR, -f FILE, -v LEVEL
`

type App struct {
	config *config.Config
	in     *bufio.Reader
	out    io.Writer
	logger logging.Logger
}

func NewApp(c *config.Config, in io.Reader, out io.Writer, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &App{
		config: c,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger.With("module", "opsctl"),
	}
}

// Run executes the command named in args. Config flags may appear anywhere
// in args; they were already applied by config.LoadConfig.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := command(args)
	switch cmd {
	case "useradd":
		return a.userAdd(ctx, rest)
	case "users":
		return a.listUsers(ctx)
	case "export":
		return a.export(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}
}

// command finds the first argument that is a known command.
func command(args []string) (string, []string) {
	for i, arg := range args {
		switch arg {
		case "useradd", "users", "export", "help", "-h", "--help":
			return arg, args[i+1:]
		}
	}
	return "", nil
}

func (a *App) openStore(ctx context.Context, mustExist bool) (*storage.Engine, error) {
	path := a.config.DataPath()
	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", errNoDataFile, path)
		}
	}
	return storage.Open(ctx, storage.Options{Path: path, Secret: a.config.Secret, Logger: a.logger})
}

func (a *App) userAdd(ctx context.Context, args []string) (err error) {
	var username string
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&username, "user", "", "username")
	fs.StringVar(&username, "u", "", "username (short)")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-user", "--user", "-u"})); err != nil {
		return err
	}

	if username == "" {
		if username, err = getText(a.in, "Username", a.out); err != nil {
			return err
		}
	}
	if err := users.ValidateUsername(username); err != nil {
		return err
	}

	password, err := getNewPassword(a.out)
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(ctx); err == nil {
			err = cerr
		}
	}()

	u, err := users.NewService(store, "", a.logger).Register(ctx, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "user %s created (id %s)\n", u.Username, u.ID)
	return nil
}

func (a *App) listUsers(ctx context.Context) error {
	store, err := a.openStore(ctx, true)
	if err != nil {
		return err
	}
	accounts := store.ListUsers()
	if err := store.Close(ctx); err != nil {
		return err
	}

	for _, u := range accounts {
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func (a *App) export(ctx context.Context, args []string) error {
	var output string
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&output, "o", "", "output file")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-o", "--o"})); err != nil {
		return err
	}

	store, err := a.openStore(ctx, true)
	if err != nil {
		return err
	}
	snapshot := store.Snapshot()
	if err := store.Close(ctx); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "" {
		_, err = a.out.Write(data)
		return err
	}
	if err := filex.WriteFileAtomic(output, data, 0o600); err != nil {
		return err
	}
	a.logger.Info(ctx, "store exported", "path", output, "bytes", len(data))
	return nil
}
