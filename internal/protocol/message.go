package protocol

// Message is the tagged union exchanged between clients and the server.
// Its variants are MsgIn, MsgOut, Login, Signup and Server.
type Message interface {
	isMessage()
}

// Response is the payload of a Server message.
// Its variants are ErrorResponse, UserToken and UserCreated.
type Response interface {
	isResponse()
}

// MsgData is the content of a chat message: Text or Image.
type MsgData interface {
	isMsgData()
}

// Text is a plain text chat message.
type Text string

// Image is a raw image chat message.
type Image []byte

func (Text) isMsgData()  {}
func (Image) isMsgData() {}

// Credentials carries a username and a plaintext password.
type Credentials struct {
	Username string
	Password string
}

// MsgIn is a relayed chat message, sent by the server to clients.
type MsgIn struct {
	Username string
	Data     MsgData
}

// MsgOut is a chat message a client asks the server to relay.
type MsgOut struct {
	Username string
	Data     MsgData
	Token    string
}

// Login asks the server for a token.
type Login struct {
	Credentials
}

// Signup asks the server to create an account.
type Signup struct {
	Credentials
}

// Server wraps a server response addressed to a single client.
type Server struct {
	Response Response
}

func (MsgIn) isMessage()  {}
func (MsgOut) isMessage() {}
func (Login) isMessage()  {}
func (Signup) isMessage() {}
func (Server) isMessage() {}

// ErrorResponse is the Error variant of Response: a human readable reason.
type ErrorResponse struct {
	Reason string
}

// UserToken is returned after a successful login.
type UserToken struct {
	Token    string
	Username string
}

// UserCreated is returned after a successful signup.
type UserCreated struct{}

func (ErrorResponse) isResponse() {}
func (UserToken) isResponse()     {}
func (UserCreated) isResponse()   {}

// NewError builds a Server message carrying an ErrorResponse.
func NewError(reason string) Server {
	return Server{Response: ErrorResponse{Reason: reason}}
}
