package lazy

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRegistryRefIsStable(t *testing.T) {
	reg := NewRegistry(NewStaticLoader(nil))
	a := reg.Ref("pages/HomePage")
	b := reg.Ref("pages/HomePage")
	if a != b {
		t.Error("Ref returned different handles for the same name")
	}
	if a.Loaded() {
		t.Error("Ref loaded eagerly")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry(NewStaticLoader(nil))
	reg.Ref("pages/MyPage")
	reg.Ref("pages/HomePage")
	reg.Ref("pages/MyPage")

	want := []string{"pages/HomePage", "pages/MyPage"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestRegistryPreload(t *testing.T) {
	loader := NewStaticLoader(map[string][]byte{
		"pages/HomePage":  []byte("h"),
		"pages/LoginPage": []byte("l"),
	})
	reg := NewRegistry(loader)
	home := reg.Ref("pages/HomePage")
	login := reg.Ref("pages/LoginPage")

	if err := reg.Preload(context.Background()); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if !home.Loaded() || !login.Loaded() {
		t.Error("Preload did not load every registered component")
	}
}

func TestRegistryPreloadFailure(t *testing.T) {
	reg := NewRegistry(NewStaticLoader(map[string][]byte{"a": nil}))
	err := reg.Preload(context.Background(), "a", "missing")
	if !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("Preload error = %v, want ErrChunkNotFound", err)
	}
	if !reg.Ref("a").Loaded() {
		t.Error("successful preload was not kept")
	}
}

func TestRegistryPreloadFailureDoesNotCancelSiblings(t *testing.T) {
	failed := make(chan struct{})
	loader := LoaderFunc(func(ctx context.Context, name string) (*Component, error) {
		if name == "broken" {
			close(failed)
			return nil, ErrChunkNotFound
		}
		<-failed
		time.Sleep(20 * time.Millisecond)
		return NewComponent(name, name+".js", "text/javascript", []byte(name)), nil
	})
	reg := NewRegistry(loader)

	err := reg.Preload(context.Background(), "broken", "slow")
	if !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("Preload error = %v, want ErrChunkNotFound", err)
	}
	if !reg.Ref("slow").Loaded() {
		t.Error("sibling load was abandoned after the first failure")
	}
}
