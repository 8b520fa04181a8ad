package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/avatar"
	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/fakebackend"
	"github.com/dmitrijs2005/toolshare/internal/client/services"
	"github.com/dmitrijs2005/toolshare/internal/client/session"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/logging"
	"github.com/stretchr/testify/require"
)

type appEnv struct {
	backend *fakebackend.Backend
	api     client.Client
	manager *session.Manager
	out     *bytes.Buffer
	userID  string
}

func newAppEnv(t *testing.T) *appEnv {
	t.Helper()
	b := fakebackend.New()
	id := b.AddUser(map[string]any{
		"username":  "jane",
		"email":     "jane@example.com",
		"firstname": "Jane",
		"lastname":  "Doe",
	}, "hunter2")

	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)

	api := client.NewHTTPClient(srv.URL, 5*time.Second, logging.Nop())
	m := session.NewManager(store.NewMemoryStore(), api, events.NewLocalBroker(), avatar.NewMemoryCache(), logging.Nop())
	t.Cleanup(m.Wait)

	return &appEnv{backend: b, api: api, manager: m, out: &bytes.Buffer{}, userID: id}
}

func (e *appEnv) app(lines ...string) *App {
	accounts := services.NewAccountService(e.api, e.manager)
	directory := services.NewDirectoryService(e.manager)
	return NewApp(e.manager, accounts, directory, strings.NewReader(strings.Join(lines, "\n")+"\n"), e.out)
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestApp_LoginWhoAmIAndLogout(t *testing.T) {
	stubPassword(t, "hunter2")
	env := newAppEnv(t)
	ctx := context.Background()

	a := env.app("jane")
	require.NoError(t, a.Login(ctx))
	require.True(t, a.isLoggedIn())
	require.Equal(t, "(jane)", a.getStatus())
	require.Contains(t, env.out.String(), "Welcome, Jane Doe!")

	require.NoError(t, a.WhoAmI(ctx))
	require.Contains(t, env.out.String(), "Jane Doe (@jane) id="+env.userID)

	require.NoError(t, a.Logout(ctx))
	require.False(t, a.isLoggedIn())
	require.Equal(t, "(guest)", a.getStatus())

	err := a.WhoAmI(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
	require.Equal(t, "please log in first", describeError(err))
}

func TestApp_LoginWrongPasswordShowsBackendMessage(t *testing.T) {
	stubPassword(t, "nope")
	env := newAppEnv(t)

	err := env.app("jane").Login(context.Background())
	require.Error(t, err)
	require.Equal(t, "Invalid credentials", describeError(err))
	require.False(t, env.app().isLoggedIn())
}

func TestApp_SetAddressAndBio(t *testing.T) {
	stubPassword(t, "hunter2")
	env := newAppEnv(t)
	ctx := context.Background()

	a := env.app(
		"jane",
		"2 Oak Ave",
		"likes ladders",
		"and drills",
		"",
	)
	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.SetAddress(ctx))
	require.NoError(t, a.SetBio(ctx))

	u := env.manager.CurrentUser()
	require.NotNil(t, u.Profile)
	require.Equal(t, "2 Oak Ave", u.Profile.Address)
	require.Equal(t, "likes ladders\nand drills", u.Profile.Bio)
}

func TestApp_RegisterVerifyThenLoggedIn(t *testing.T) {
	stubPassword(t, "s3cret")
	env := newAppEnv(t)
	ctx := context.Background()

	a := env.app(
		"bob", "Bob", "Builder", "bob@example.com", "",
		"56.95,24.1",
		"bob", fakebackend.DefaultOTP,
	)
	require.NoError(t, a.Register(ctx))
	require.NoError(t, a.Verify(ctx))

	require.True(t, a.isLoggedIn())
	require.Equal(t, "bob", env.manager.CurrentUser().Username)
	require.Contains(t, env.out.String(), "Welcome, Bob Builder!")
}

func TestApp_RegisterRejectsBadLocation(t *testing.T) {
	stubPassword(t, "s3cret")
	env := newAppEnv(t)

	a := env.app("bob", "Bob", "Builder", "bob@example.com", "", "north pole")
	require.Error(t, a.Register(context.Background()))
	require.Zero(t, env.backend.Calls("POST /auth/register"))
}

func TestApp_ForgotPassword(t *testing.T) {
	stubPassword(t, "brand-new")
	env := newAppEnv(t)
	ctx := context.Background()

	a := env.app("jane", fakebackend.DefaultOTP, "jane")
	require.NoError(t, a.Forgot(ctx))
	require.False(t, a.isLoggedIn())

	require.NoError(t, a.Login(ctx))
	require.True(t, a.isLoggedIn())
}

func TestApp_UploadAvatar(t *testing.T) {
	stubPassword(t, "hunter2")
	env := newAppEnv(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))

	a := env.app("jane")
	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.UploadAvatar(ctx, path))

	ref := env.manager.CurrentUser().AvatarRef()
	require.True(t, strings.HasPrefix(ref, "/uploads/"))
	require.Contains(t, env.out.String(), "Avatar uploaded: "+ref)

	require.Error(t, a.UploadAvatar(ctx, filepath.Join(t.TempDir(), "missing.png")))
}

func TestApp_ShowUserAndRefresh(t *testing.T) {
	stubPassword(t, "hunter2")
	env := newAppEnv(t)
	ctx := context.Background()

	a := env.app("jane")
	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.ShowUser(ctx, env.userID))
	require.Contains(t, env.out.String(), "(@jane)")

	require.NoError(t, a.Refresh(ctx))
	require.Contains(t, env.out.String(), "Session renewed.")

	require.NoError(t, a.ShowStatus(ctx))
	require.Contains(t, env.out.String(), "Logged in as jane")
}

func TestApp_ListUsersRequiresAdmin(t *testing.T) {
	stubPassword(t, "hunter2")
	env := newAppEnv(t)
	ctx := context.Background()

	a := env.app("jane")
	require.NoError(t, a.Login(ctx))
	require.Error(t, a.ListUsers(ctx))
	// A 403 is not an expired session.
	require.True(t, a.isLoggedIn())
}

func TestApp_RunExitsOnQuit(t *testing.T) {
	stubPassword(t, "hunter2")
	env := newAppEnv(t)

	env.app("login", "jane", "whoami", "quit").Run(context.Background())

	lines := outputLines(env.out)
	require.Equal(t, "Welcome to toolshare CLI (type 'help' for commands)", lines[0])
	require.Contains(t, lines, "toolshare (jane) > ")
	require.Contains(t, lines, "Bye!")
	require.Contains(t, env.out.String(), "Jane Doe (@jane)")

	// Prompts, command output and REPL messages share one writer, in order.
	out := env.out.String()
	require.Less(t, strings.Index(out, "Welcome, Jane Doe!"), strings.Index(out, "toolshare (jane) > "))
	require.Less(t, strings.Index(out, "Jane Doe (@jane)"), strings.Index(out, "Bye!"))
}

func TestDescribeEvent(t *testing.T) {
	require.Equal(t, "* signed out elsewhere", describeEvent(events.Event{Kind: events.KindLogout}, nil))
	require.Equal(t, "* signed in elsewhere", describeEvent(events.Event{Kind: events.KindLogin}, nil))
	require.Equal(t, "* profile changed elsewhere", describeEvent(events.Event{Kind: events.KindProfileUpdated}, nil))
}
