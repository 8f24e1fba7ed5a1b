package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	logging.Logger
	debug []string
	args  [][]any
}

func (r *recordingLogger) Debug(ctx context.Context, msg string, args ...any) {
	r.debug = append(r.debug, msg)
	r.args = append(r.args, args)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	rec := &recordingLogger{Logger: logging.Nop()}
	s := &HealthServer{logger: rec}

	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(rec.debug) != 1 {
		t.Fatalf("expected one log line, got %d", len(rec.debug))
	}
	if rec.args[0][1] != "/pkg.Service/Method" || rec.args[0][3] != codes.OK.String() {
		t.Fatalf("unexpected log args: %v", rec.args[0])
	}
}

func TestLoggingInterceptor_ReturnsHandlerError(t *testing.T) {
	rec := &recordingLogger{Logger: logging.Nop()}
	s := &HealthServer{logger: rec}

	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}
	want := status.Error(codes.NotFound, "nope")

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if rec.args[0][3] != codes.NotFound.String() {
		t.Fatalf("unexpected code logged: %v", rec.args[0][3])
	}
}
