package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewLoginThrottle_Defaults(t *testing.T) {
	th := NewLoginThrottle(nil, 0, 0)
	if th.maxAttempts != defaultMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", th.maxAttempts)
	}
	if th.window != defaultWindow {
		t.Fatalf("expected default window, got %s", th.window)
	}

	th = NewLoginThrottle(nil, 3, time.Minute)
	if th.maxAttempts != 3 || th.window != time.Minute {
		t.Fatalf("unexpected settings: %d %s", th.maxAttempts, th.window)
	}
}

func TestLoginThrottle_Key(t *testing.T) {
	th := NewLoginThrottle(nil, 0, 0)
	if got := th.key("a@x.com"); got != "login_failures:a@x.com" {
		t.Fatalf("unexpected key: %s", got)
	}
}

// fakeCmdable implements only the commands the throttle issues.
type fakeCmdable struct {
	redis.Cmdable
	values  map[string]string
	getErr  error
	txErr   error
	deleted []string
	queued  []string
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCmdable) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	pipe := &fakePipeliner{}
	if err := fn(pipe); err != nil {
		return nil, err
	}
	f.queued = append(f.queued, pipe.queued...)
	return nil, nil
}

// fakePipeliner records queued commands as "<cmd> <key> [arg]".
type fakePipeliner struct {
	redis.Pipeliner
	queued []string
}

func (p *fakePipeliner) Incr(ctx context.Context, key string) *redis.IntCmd {
	p.queued = append(p.queued, "incr "+key)
	return redis.NewIntResult(0, nil)
}

func (p *fakePipeliner) ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	p.queued = append(p.queued, "expirenx "+key+" "+expiration.String())
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.deleted = append(f.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestLoginThrottle_Allowed(t *testing.T) {
	client := &fakeCmdable{values: map[string]string{
		"login_failures:few@x.com":  "2",
		"login_failures:many@x.com": "3",
	}}
	th := NewLoginThrottle(client, 3, time.Minute)
	ctx := context.Background()

	cases := map[string]bool{
		"new@x.com":  true,
		"few@x.com":  true,
		"many@x.com": false,
	}
	for email, want := range cases {
		got, err := th.Allowed(ctx, email)
		if err != nil {
			t.Fatalf("Allowed(%s) error: %v", email, err)
		}
		if got != want {
			t.Fatalf("Allowed(%s) = %v, want %v", email, got, want)
		}
	}
}

func TestLoginThrottle_AllowedPropagatesErrors(t *testing.T) {
	th := NewLoginThrottle(&fakeCmdable{getErr: errors.New("connection refused")}, 0, 0)
	if _, err := th.Allowed(context.Background(), "a@x.com"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoginThrottle_Reset(t *testing.T) {
	client := &fakeCmdable{}
	th := NewLoginThrottle(client, 0, 0)
	if err := th.Reset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "login_failures:a@x.com" {
		t.Fatalf("unexpected deletes: %v", client.deleted)
	}
}

func TestLoginThrottle_RecordFailure(t *testing.T) {
	client := &fakeCmdable{}
	th := NewLoginThrottle(client, 3, 10*time.Minute)

	if err := th.RecordFailure(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("RecordFailure error: %v", err)
	}

	want := []string{"incr login_failures:a@x.com", "expirenx login_failures:a@x.com 10m0s"}
	if len(client.queued) != len(want) {
		t.Fatalf("expected %v, got %v", want, client.queued)
	}
	for i := range want {
		if client.queued[i] != want[i] {
			t.Fatalf("command %d: expected %q, got %q", i, want[i], client.queued[i])
		}
	}
}

func TestLoginThrottle_RecordFailureWrapsErrors(t *testing.T) {
	cause := errors.New("READONLY")
	th := NewLoginThrottle(&fakeCmdable{txErr: cause}, 0, 0)

	err := th.RecordFailure(context.Background(), "a@x.com")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
