package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Forgot(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ShowStatus(ctx context.Context) error
	SetBio(ctx context.Context) error
	SetAddress(ctx context.Context) error
	UploadAvatar(ctx context.Context, path string) error
	ShowUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Commands read their own prompts from the same reader, so the loop must not
// buffer ahead of them.
//
// runREPL starts a simple read–eval–print loop for the toolshare CLI.
//
// It reads a line from reader, writes prompts and messages to out, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           - show available commands
//	  - register       - create an account (sends an OTP)
//	  - verify         - confirm the OTP and sign in
//	  - forgot         - reset a forgotten password
//	  - login          - authenticate
//	  - exit | quit    - leave the program
//
//	Logged in:
//	  - help           - show available commands
//	  - whoami         - show the signed-in user
//	  - status         - show session details
//	  - bio            - edit the profile bio
//	  - address        - edit the profile address
//	  - avatar <path>  - upload a profile picture
//	  - user <id>      - show another member
//	  - users          - list members (admin)
//	  - refresh        - renew the access token
//	  - logout         - log out
//	  - exit | quit    - leave the program
//
// Errors returned by command handlers are printed here, so handlers only
// report success.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	say := func(args ...any) { fmt.Fprintln(out, args...) }

	for {
		say(fmt.Sprintf("toolshare %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				say("Available commands: whoami, status, bio, address, avatar <path>, user <id>, users, refresh, logout, exit")
			} else {
				say("Available commands: register, verify, forgot, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "verify":
			err = a.Verify(ctx)

		case "forgot":
			err = a.Forgot(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "status":
			err = a.ShowStatus(ctx)

		case "bio":
			err = a.SetBio(ctx)

		case "address":
			err = a.SetAddress(ctx)

		case "avatar":
			if len(args) == 0 {
				say("Usage: avatar <path>")
				continue
			}
			err = a.UploadAvatar(ctx, strings.Join(args, " "))

		case "user":
			if len(args) == 0 {
				say("Usage: user <id>")
				continue
			}
			err = a.ShowUser(ctx, args[0])

		case "users":
			err = a.ListUsers(ctx)

		case "refresh":
			err = a.Refresh(ctx)

		case "exit", "quit":
			say("Bye!")
			return

		default:
			say("Unknown command:", cmd)
		}

		if err != nil {
			say("Error:", describeError(err))
		}
	}
}
