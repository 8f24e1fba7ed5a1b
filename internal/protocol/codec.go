package protocol

import (
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the Message union, in variant order.
const (
	fieldMsgIn  protowire.Number = 1
	fieldMsgOut protowire.Number = 2
	fieldLogin  protowire.Number = 3
	fieldSignup protowire.Number = 4
	fieldServer protowire.Number = 5
)

// Field numbers shared by the nested records.
const (
	fieldUsername protowire.Number = 1
	fieldData     protowire.Number = 2
	fieldToken    protowire.Number = 3
	fieldPassword protowire.Number = 2

	fieldText  protowire.Number = 1
	fieldImage protowire.Number = 2

	fieldError       protowire.Number = 1
	fieldUserToken   protowire.Number = 2
	fieldUserCreated protowire.Number = 3

	fieldTokenValue    protowire.Number = 1
	fieldTokenUsername protowire.Number = 2
)

// EncodeMessage serializes m and wraps it in a frame.
func EncodeMessage(m Message) ([]byte, error) {
	body, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(body), nil
}

// DecodeMessage decodes a frame body into a Message.
func DecodeMessage(body []byte) (Message, error) {
	return Unmarshal(body)
}

// Marshal serializes m without the frame header.
func Marshal(m Message) ([]byte, error) {
	switch v := m.(type) {
	case MsgIn:
		data, err := marshalData(v.Data)
		if err != nil {
			return nil, err
		}
		var b []byte
		b = protowire.AppendTag(b, fieldUsername, protowire.BytesType)
		b = protowire.AppendString(b, v.Username)
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
		return appendField(nil, fieldMsgIn, b), nil

	case MsgOut:
		data, err := marshalData(v.Data)
		if err != nil {
			return nil, err
		}
		var b []byte
		b = protowire.AppendTag(b, fieldUsername, protowire.BytesType)
		b = protowire.AppendString(b, v.Username)
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
		b = protowire.AppendTag(b, fieldToken, protowire.BytesType)
		b = protowire.AppendString(b, v.Token)
		return appendField(nil, fieldMsgOut, b), nil

	case Login:
		return appendField(nil, fieldLogin, marshalCredentials(v.Credentials)), nil

	case Signup:
		return appendField(nil, fieldSignup, marshalCredentials(v.Credentials)), nil

	case Server:
		res, err := marshalResponse(v.Response)
		if err != nil {
			return nil, err
		}
		return appendField(nil, fieldServer, res), nil
	}

	return nil, fmt.Errorf("unsupported message type %T", m)
}

// Unmarshal decodes a frame body produced by Marshal.
func Unmarshal(b []byte) (Message, error) {
	num, val, err := decodeUnion(b, fieldMsgIn, fieldMsgOut, fieldLogin, fieldSignup, fieldServer)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}

	switch num {
	case fieldMsgIn:
		f, err := decodeFields(val, fieldUsername, fieldData)
		if err != nil {
			return nil, fmt.Errorf("msg in: %w", err)
		}
		username, err := stringField(f, fieldUsername)
		if err != nil {
			return nil, fmt.Errorf("msg in: %w", err)
		}
		data, err := unmarshalData(f[fieldData])
		if err != nil {
			return nil, fmt.Errorf("msg in: %w", err)
		}
		return MsgIn{Username: username, Data: data}, nil

	case fieldMsgOut:
		f, err := decodeFields(val, fieldUsername, fieldData, fieldToken)
		if err != nil {
			return nil, fmt.Errorf("msg out: %w", err)
		}
		username, err := stringField(f, fieldUsername)
		if err != nil {
			return nil, fmt.Errorf("msg out: %w", err)
		}
		token, err := stringField(f, fieldToken)
		if err != nil {
			return nil, fmt.Errorf("msg out: %w", err)
		}
		data, err := unmarshalData(f[fieldData])
		if err != nil {
			return nil, fmt.Errorf("msg out: %w", err)
		}
		return MsgOut{Username: username, Data: data, Token: token}, nil

	case fieldLogin:
		c, err := unmarshalCredentials(val)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		return Login{Credentials: c}, nil

	case fieldSignup:
		c, err := unmarshalCredentials(val)
		if err != nil {
			return nil, fmt.Errorf("signup: %w", err)
		}
		return Signup{Credentials: c}, nil

	default:
		res, err := unmarshalResponse(val)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		return Server{Response: res}, nil
	}
}

func appendField(b []byte, num protowire.Number, val []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, val)
}

func marshalData(d MsgData) ([]byte, error) {
	switch v := d.(type) {
	case Text:
		b := protowire.AppendTag(nil, fieldText, protowire.BytesType)
		return protowire.AppendString(b, string(v)), nil
	case Image:
		return appendField(nil, fieldImage, v), nil
	}
	return nil, fmt.Errorf("unsupported message data type %T", d)
}

func unmarshalData(b []byte) (MsgData, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: missing data", ErrProtocol)
	}
	num, val, err := decodeUnion(b, fieldText, fieldImage)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	if num == fieldText {
		if !utf8.Valid(val) {
			return nil, fmt.Errorf("%w: text is not valid utf-8", ErrProtocol)
		}
		return Text(val), nil
	}
	return Image(append([]byte(nil), val...)), nil
}

func marshalCredentials(c Credentials) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldUsername, protowire.BytesType)
	b = protowire.AppendString(b, c.Username)
	b = protowire.AppendTag(b, fieldPassword, protowire.BytesType)
	return protowire.AppendString(b, c.Password)
}

func unmarshalCredentials(b []byte) (Credentials, error) {
	f, err := decodeFields(b, fieldUsername, fieldPassword)
	if err != nil {
		return Credentials{}, err
	}
	username, err := stringField(f, fieldUsername)
	if err != nil {
		return Credentials{}, err
	}
	password, err := stringField(f, fieldPassword)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Username: username, Password: password}, nil
}

func marshalResponse(r Response) ([]byte, error) {
	switch v := r.(type) {
	case ErrorResponse:
		b := protowire.AppendTag(nil, fieldError, protowire.BytesType)
		return protowire.AppendString(b, v.Reason), nil
	case UserToken:
		var t []byte
		t = protowire.AppendTag(t, fieldTokenValue, protowire.BytesType)
		t = protowire.AppendString(t, v.Token)
		t = protowire.AppendTag(t, fieldTokenUsername, protowire.BytesType)
		t = protowire.AppendString(t, v.Username)
		return appendField(nil, fieldUserToken, t), nil
	case UserCreated:
		return appendField(nil, fieldUserCreated, nil), nil
	}
	return nil, fmt.Errorf("unsupported response type %T", r)
}

func unmarshalResponse(b []byte) (Response, error) {
	num, val, err := decodeUnion(b, fieldError, fieldUserToken, fieldUserCreated)
	if err != nil {
		return nil, err
	}

	switch num {
	case fieldError:
		if !utf8.Valid(val) {
			return nil, fmt.Errorf("%w: error is not valid utf-8", ErrProtocol)
		}
		return ErrorResponse{Reason: string(val)}, nil

	case fieldUserToken:
		f, err := decodeFields(val, fieldTokenValue, fieldTokenUsername)
		if err != nil {
			return nil, fmt.Errorf("user token: %w", err)
		}
		token, err := stringField(f, fieldTokenValue)
		if err != nil {
			return nil, fmt.Errorf("user token: %w", err)
		}
		username, err := stringField(f, fieldTokenUsername)
		if err != nil {
			return nil, fmt.Errorf("user token: %w", err)
		}
		return UserToken{Token: token, Username: username}, nil

	default:
		if len(val) != 0 {
			return nil, fmt.Errorf("%w: user created carries a payload", ErrProtocol)
		}
		return UserCreated{}, nil
	}
}

// decodeFields splits b into its length-delimited fields. Every field must be
// one of allowed and appear at most once.
func decodeFields(b []byte, allowed ...protowire.Number) (map[protowire.Number][]byte, error) {
	fields := make(map[protowire.Number][]byte, len(allowed))

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: field %d has wire type %d", ErrProtocol, num, typ)
		}
		if !isAllowed(num, allowed) {
			return nil, fmt.Errorf("%w: unknown field %d", ErrProtocol, num)
		}
		if _, dup := fields[num]; dup {
			return nil, fmt.Errorf("%w: duplicate field %d", ErrProtocol, num)
		}

		val, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %v", ErrProtocol, num, protowire.ParseError(n))
		}
		b = b[n:]

		if val == nil {
			val = []byte{}
		}
		fields[num] = val
	}

	return fields, nil
}

// decodeUnion decodes a record where exactly one of variants is present.
func decodeUnion(b []byte, variants ...protowire.Number) (protowire.Number, []byte, error) {
	fields, err := decodeFields(b, variants...)
	if err != nil {
		return 0, nil, err
	}
	if len(fields) != 1 {
		return 0, nil, fmt.Errorf("%w: expected one variant, got %d", ErrProtocol, len(fields))
	}

	var (
		num protowire.Number
		val []byte
	)
	for n, v := range fields {
		num, val = n, v
	}
	return num, val, nil
}

func stringField(fields map[protowire.Number][]byte, num protowire.Number) (string, error) {
	val, ok := fields[num]
	if !ok {
		return "", fmt.Errorf("%w: missing field %d", ErrProtocol, num)
	}
	if !utf8.Valid(val) {
		return "", fmt.Errorf("%w: field %d is not valid utf-8", ErrProtocol, num)
	}
	return string(val), nil
}

func isAllowed(num protowire.Number, allowed []protowire.Number) bool {
	for _, a := range allowed {
		if a == num {
			return true
		}
	}
	return false
}
