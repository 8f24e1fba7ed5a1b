package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
)

// Reasons sent back to clients in a Server(Error) reply.
const (
	ReasonNotSigned       = "Msg is not signed."
	ReasonBadCredentials  = "The username or password are incorrect!."
	ReasonUserExists      = "User already exist!."
	ReasonInvalidUsername = "Invalid username."
	ReasonSignupFailed    = "Could not create user."
)

// dispatch turns one client message into the hub event it causes. ok is
// false for messages that produce nothing.
func (a *Actor) dispatch(ctx context.Context, msg protocol.Message) (hub.Event, bool, error) {
	switch m := msg.(type) {
	case protocol.MsgOut:
		if err := a.users.VerifyToken(m.Token); err != nil {
			a.logger.Info(ctx, "rejected unsigned message", "user", m.Username, "error", err)
			return a.reply(protocol.NewError(ReasonNotSigned))
		}
		return a.event(hub.Broadcast(a.id), protocol.MsgIn{Username: m.Username, Data: m.Data})

	case protocol.Login:
		token, user, err := a.users.Login(ctx, m.Username, m.Password)
		if err != nil {
			if !errors.Is(err, common.ErrorUnauthorized) {
				a.logger.Error(ctx, "login failed", "user", m.Username, "error", err)
			}
			return a.reply(protocol.NewError(ReasonBadCredentials))
		}
		a.logger.Info(ctx, "user logged in", "user", user.Name)
		return a.reply(protocol.Server{Response: protocol.UserToken{Token: token, Username: user.Name}})

	case protocol.Signup:
		user, err := a.users.Signup(ctx, m.Username, m.Password)
		if err != nil {
			return a.reply(protocol.NewError(a.signupFailure(ctx, m.Username, err)))
		}
		a.logger.Info(ctx, "user created", "user", user.Name, "id", user.ID)
		return a.reply(protocol.Server{Response: protocol.UserCreated{}})

	case protocol.MsgIn, protocol.Server:
		a.logger.Debug(ctx, "ignoring server-side message from client", "type", fmt.Sprintf("%T", m))
		return hub.Event{}, false, nil
	}

	return hub.Event{}, false, fmt.Errorf("%w: unexpected message %T", protocol.ErrProtocol, msg)
}

func (a *Actor) signupFailure(ctx context.Context, username string, err error) string {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		return ReasonUserExists
	case errors.Is(err, common.ErrInvalidUsername):
		return ReasonInvalidUsername
	default:
		a.logger.Error(ctx, "signup failed", "user", username, "error", err)
		return ReasonSignupFailed
	}
}

func (a *Actor) reply(msg protocol.Message) (hub.Event, bool, error) {
	return a.event(hub.Directed(a.id), msg)
}

func (a *Actor) event(scope hub.Scope, msg protocol.Message) (hub.Event, bool, error) {
	payload, err := protocol.Marshal(msg)
	if err != nil {
		return hub.Event{}, false, err
	}
	return hub.Event{Scope: scope, Payload: payload}, true, nil
}
