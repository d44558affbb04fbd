package admin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/server/config"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPasswords feeds answers to readPassword in order.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	oldRead, oldFd := readPassword, stdinFd
	t.Cleanup(func() { readPassword, stdinFd = oldRead, oldFd })

	stdinFd = func() int { return 0 }
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func testConfig(t *testing.T, secret string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DataDir = t.TempDir()
	c.Secret = secret
	return c
}

func loadStore(t *testing.T, c *config.Config) *models.Store {
	t.Helper()
	e, err := storage.Open(context.Background(), storage.Options{Path: c.DataPath(), Secret: c.Secret})
	require.NoError(t, err)
	defer e.Close(context.Background())
	return e.Snapshot()
}

func TestUserAdd(t *testing.T) {
	c := testConfig(t, "top-secret")
	stubPasswords(t, "correct-horse-1", "correct-horse-1")

	var out bytes.Buffer
	app := NewApp(c, strings.NewReader(""), &out, nil)
	require.NoError(t, app.Run(context.Background(), []string{"-s", "top-secret", "useradd", "-user", "alice"}))

	assert.Contains(t, out.String(), "user alice created")
	assert.Contains(t, out.String(), "New password")
	assert.Contains(t, out.String(), "Repeat password")

	s := loadStore(t, c)
	require.Len(t, s.Users, 1)
	assert.Equal(t, "alice", s.Users[0].Username)
	assert.NotEmpty(t, s.Users[0].Password.Hash)
	assert.NotContains(t, s.Users[0].Password.Hash, "correct-horse-1")
}

func TestUserAdd_PromptsForUsername(t *testing.T) {
	c := testConfig(t, "")
	stubPasswords(t, "correct-horse-1", "correct-horse-1")

	var out bytes.Buffer
	app := NewApp(c, strings.NewReader("bob\n"), &out, nil)
	require.NoError(t, app.Run(context.Background(), []string{"useradd"}))

	assert.Equal(t, "bob", loadStore(t, c).Users[0].Username)
}

func TestUserAdd_Failures(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		passwords []string
		want      error
	}{
		{"mismatch", []string{"useradd", "-user", "alice"}, []string{"correct-horse-1", "correct-horse-2"}, errPasswordMismatch},
		{"weak password", []string{"useradd", "-user", "alice"}, []string{"short", "short"}, common.ErrWeakPassword},
		{"bad username", []string{"useradd", "-user", "a b"}, nil, common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t, "")
			stubPasswords(t, tt.passwords...)

			app := NewApp(c, strings.NewReader(""), &bytes.Buffer{}, nil)
			err := app.Run(context.Background(), tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserAdd_Duplicate(t *testing.T) {
	c := testConfig(t, "")
	stubPasswords(t, "correct-horse-1", "correct-horse-1", "correct-horse-1", "correct-horse-1")

	app := NewApp(c, strings.NewReader(""), &bytes.Buffer{}, nil)
	require.NoError(t, app.Run(context.Background(), []string{"useradd", "-user", "alice"}))

	err := app.Run(context.Background(), []string{"useradd", "-user=ALICE"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestExport(t *testing.T) {
	c := testConfig(t, "top-secret")
	stubPasswords(t, "correct-horse-1", "correct-horse-1")

	app := NewApp(c, strings.NewReader(""), &bytes.Buffer{}, nil)
	require.NoError(t, app.Run(context.Background(), []string{"useradd", "-user", "alice"}))

	raw, err := os.ReadFile(c.DataPath())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "alice", "the file on disk is encrypted")

	var listing bytes.Buffer
	app = NewApp(c, strings.NewReader(""), &listing, nil)
	require.NoError(t, app.Run(context.Background(), []string{"users"}))
	assert.Contains(t, listing.String(), "\talice\t")

	var out bytes.Buffer
	app = NewApp(c, strings.NewReader(""), &out, nil)
	require.NoError(t, app.Run(context.Background(), []string{"export"}))

	var exported models.Store
	require.NoError(t, json.Unmarshal(out.Bytes(), &exported))
	require.Len(t, exported.Users, 1)
	assert.Equal(t, "alice", exported.Users[0].Username)
	assert.NotNil(t, exported.Tasks)

	target := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, app.Run(context.Background(), []string{"export", "-o", target}))
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.JSONEq(t, out.String(), string(written))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestExport_MissingFile(t *testing.T) {
	c := testConfig(t, "")
	app := NewApp(c, strings.NewReader(""), &bytes.Buffer{}, nil)

	err := app.Run(context.Background(), []string{"export"})
	assert.ErrorIs(t, err, errNoDataFile)
	assert.NoFileExists(t, c.DataPath())
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	app := NewApp(testConfig(t, ""), strings.NewReader(""), &out, nil)

	assert.ErrorIs(t, app.Run(context.Background(), nil), ErrUsage)
	assert.Contains(t, out.String(), "useradd -user NAME")

	out.Reset()
	assert.NoError(t, app.Run(context.Background(), []string{"help"}))
	assert.Contains(t, out.String(), "export")
}

func TestGetText(t *testing.T) {
	var out bytes.Buffer
	got, err := getText(bufio.NewReader(strings.NewReader("  carol \n")), "Username", &out)
	require.NoError(t, err)
	assert.Equal(t, "carol", got)
	assert.Equal(t, "Username: ", out.String())

	got, err = getText(bufio.NewReader(strings.NewReader("lastline")), "Username", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = getText(bufio.NewReader(strings.NewReader("")), "Username", &out)
	assert.Error(t, err)
}

func TestGetPassword_Error(t *testing.T) {
	stubPasswords(t)

	var out bytes.Buffer
	_, err := getPassword("New password", &out)
	assert.Error(t, err)
	assert.Equal(t, "New password: \n", out.String())
}
