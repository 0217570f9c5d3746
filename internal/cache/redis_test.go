package cache

import (
	"context"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
)

func TestRedisGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "iparuby:ipa:hall")).
		Return(mock.Result(mock.RedisString("hɔːl")))

	r := &Redis{client: c}
	v, ok, err := r.Get(context.Background(), "hall")
	if err != nil || !ok || v != "hɔːl" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestRedisGetMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "iparuby:ipa:hall")).
		Return(mock.Result(mock.RedisNil()))

	r := &Redis{client: c}
	if _, ok, err := r.Get(context.Background(), "hall"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestRedisGetEmptyValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "iparuby:ipa:xyzzy")).
		Return(mock.Result(mock.RedisString("")))

	r := &Redis{client: c}
	if v, ok, err := r.Get(context.Background(), "xyzzy"); err != nil || !ok || v != "" {
		t.Fatalf("expected cached empty, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestRedisSetAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "iparuby:ipa:hall", "hɔːl")).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "iparuby:ipa:hall")).
		Return(mock.Result(mock.RedisInt64(1)))

	r := &Redis{client: c}
	if err := r.Set(context.Background(), "hall", "hɔːl"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Delete(context.Background(), "hall"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRedisError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "iparuby:ipa:hall")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	r := &Redis{client: c}
	if _, _, err := r.Get(context.Background(), "hall"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRedisRequiresAddrs(t *testing.T) {
	if _, err := NewRedis(RedisConfig{}); err == nil {
		t.Error("expected error without addrs")
	}
}
