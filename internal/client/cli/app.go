package cli

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/models"
	"github.com/dmitrijs2005/toolshare/internal/client/services"
	"github.com/dmitrijs2005/toolshare/internal/client/session"
)

// Sessions is the session manager surface the CLI uses.
type Sessions interface {
	Login(ctx context.Context, identifier, secret string) (*models.Session, error)
	Logout(ctx context.Context)
	RefreshAccessToken(ctx context.Context) (string, error)
	CurrentUser() *models.User
	Status(ctx context.Context) (session.Status, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*models.User, error)
	UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (string, error)
	AvatarImage(ctx context.Context) string
	Subscribe() (<-chan events.Event, func())
	Source() string
	Wait()
}

type App struct {
	sessions  Sessions
	accounts  services.AccountService
	directory services.DirectoryService
	reader    *bufio.Reader
	out       io.Writer
}

func NewApp(sessions Sessions, accounts services.AccountService, directory services.DirectoryService, in io.Reader, out io.Writer) *App {
	return &App{
		sessions:  sessions,
		accounts:  accounts,
		directory: directory,
		reader:    bufio.NewReader(in),
		out:       &syncWriter{w: out},
	}
}

// syncWriter serialises writes from the REPL and the event watcher.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (a *App) isLoggedIn() bool {
	return a.sessions.CurrentUser() != nil
}

// getStatus renders the prompt status, e.g. "(jane)".
func (a *App) getStatus() string {
	if u := a.sessions.CurrentUser(); u != nil {
		return "(" + u.Username + ")"
	}
	return "(guest)"
}

// Run starts the event watcher and the REPL; it returns when the user exits
// or input ends. Pending background avatar downloads are awaited.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println("Welcome to toolshare CLI (type 'help' for commands)")

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.watchEvents(ctx)
	}()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	cancel()
	<-done

	waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	waited := make(chan struct{})
	go func() {
		a.sessions.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-waitCtx.Done():
	}
}

// watchEvents prints session changes made by this or another process until
// ctx is done.
func (a *App) watchEvents(ctx context.Context) {
	ch, cancel := a.sessions.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			// Own events are reported by the commands themselves.
			if e.Source == a.sessions.Source() {
				continue
			}
			a.println(describeEvent(e, a.sessions.CurrentUser()))
		}
	}
}

func describeEvent(e events.Event, u *models.User) string {
	switch e.Kind {
	case events.KindLogin:
		if u != nil {
			return "* signed in elsewhere as " + u.Username
		}
		return "* signed in elsewhere"
	case events.KindLogout:
		return "* signed out elsewhere"
	case events.KindProfileUpdated:
		return "* profile changed elsewhere"
	case events.KindAvatarUpdated:
		return "* avatar changed"
	case events.KindTokenRefreshed:
		return "* session renewed"
	default:
		return "* session changed: " + string(e.Kind)
	}
}
