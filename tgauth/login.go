package tgauth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// terminalAuth answers the auth flow's prompts on the given reader and
// writer. The phone number is collected up front by the caller.
type terminalAuth struct {
	phone string
	in    *bufio.Reader
	out   io.Writer
}

func (a terminalAuth) Phone(ctx context.Context) (string, error) {
	return a.phone, nil
}

func (a terminalAuth) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.prompt("Enter the login code: ")
}

func (a terminalAuth) Password(ctx context.Context) (string, error) {
	return a.prompt("Enter the 2FA password: ")
}

func (a terminalAuth) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	return nil
}

func (a terminalAuth) SignUp(ctx context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("phone number is not registered on Telegram")
}

func (a terminalAuth) prompt(msg string) (string, error) {
	if _, err := fmt.Fprint(a.out, msg); err != nil {
		return "", err
	}
	line, err := a.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Login runs the interactive login flow and leaves a fresh session file at
// opts.SessionPath. Prompts beyond the phone number, the login code and an
// optional 2FA password, go through in/out. Returns the logged-in account.
func Login(ctx context.Context, opts Options, phone string, in io.Reader, out io.Writer) (*tg.User, error) {
	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}

	flow := auth.NewFlow(terminalAuth{
		phone: phone,
		in:    bufio.NewReader(in),
		out:   out,
	}, auth.SendCodeOptions{})

	var self *tg.User
	err = client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		user, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetch self: %w", err)
		}
		self = user
		return nil
	})
	return self, err
}
