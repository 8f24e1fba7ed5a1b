package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestMessage_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{name: "msg in text", msg: MsgIn{Username: "alice", Data: Text("hi")}},
		{name: "msg in image", msg: MsgIn{Username: "alice", Data: Image{0x89, 'P', 'N', 'G'}}},
		{name: "msg in empty text", msg: MsgIn{Username: "", Data: Text("")}},
		{name: "msg out", msg: MsgOut{Username: "bob", Data: Text("hello there"), Token: "a.b.c"}},
		{name: "msg out image", msg: MsgOut{Username: "bob", Data: Image{1, 2, 3}, Token: "t"}},
		{name: "login", msg: Login{Credentials{Username: "alice", Password: "pw"}}},
		{name: "signup", msg: Signup{Credentials{Username: "alice", Password: "pw"}}},
		{name: "server error", msg: NewError("Msg is not signed.")},
		{name: "server token", msg: Server{Response: UserToken{Token: "tok", Username: "alice"}}},
		{name: "server created", msg: Server{Response: UserCreated{}}},
		{name: "unicode", msg: MsgIn{Username: "ålice", Data: Text("héllo, мир")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := EncodeMessage(tt.msg)
			require.NoError(t, err)

			body, err := ReadFrame(bytes.NewReader(frame), DefaultMaxFrameSize)
			require.NoError(t, err)

			got, err := DecodeMessage(body)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)
		})
	}
}

func TestMarshal_UnsupportedTypes(t *testing.T) {
	_, err := Marshal(nil)
	assert.Error(t, err)

	_, err = Marshal(MsgIn{Username: "a"})
	assert.Error(t, err, "nil data must be rejected")

	_, err = Marshal(Server{})
	assert.Error(t, err, "nil response must be rejected")
}

func TestUnmarshal_Invalid(t *testing.T) {
	valid, err := Marshal(MsgOut{Username: "bob", Data: Text("x"), Token: "t"})
	require.NoError(t, err)

	unknown := protowire.AppendTag(nil, 9, protowire.BytesType)
	unknown = protowire.AppendBytes(unknown, []byte("?"))

	varint := protowire.AppendTag(nil, fieldLogin, protowire.VarintType)
	varint = protowire.AppendVarint(varint, 7)

	twoVariants := append(append([]byte(nil), valid...), valid...)

	badUTF8 := protowire.AppendTag(nil, fieldServer, protowire.BytesType)
	badUTF8 = protowire.AppendBytes(badUTF8, protowire.AppendBytes(
		protowire.AppendTag(nil, fieldError, protowire.BytesType), []byte{0xff, 0xfe}))

	missingPassword := protowire.AppendTag(nil, fieldLogin, protowire.BytesType)
	missingPassword = protowire.AppendBytes(missingPassword, protowire.AppendString(
		protowire.AppendTag(nil, fieldUsername, protowire.BytesType), "alice"))

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty", input: nil},
		{name: "truncated", input: valid[:len(valid)-2]},
		{name: "garbage", input: []byte{0xff, 0xff, 0xff}},
		{name: "unknown tag", input: unknown},
		{name: "wrong wire type", input: varint},
		{name: "two variants", input: twoVariants},
		{name: "invalid utf8", input: badUTF8},
		{name: "missing field", input: missingPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestUnmarshal_CopiesImageBytes(t *testing.T) {
	body, err := Marshal(MsgIn{Username: "a", Data: Image{1, 2, 3}})
	require.NoError(t, err)

	m, err := Unmarshal(body)
	require.NoError(t, err)

	for i := range body {
		body[i] = 0
	}
	assert.Equal(t, Image{1, 2, 3}, m.(MsgIn).Data)
}
