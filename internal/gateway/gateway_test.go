package gateway_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/geocoder89/avajson/internal/documents"
	"github.com/geocoder89/avajson/internal/domain/user"
	"github.com/geocoder89/avajson/internal/gateway"
	"github.com/geocoder89/avajson/internal/registry"
)

type fakeRegistry struct {
	calls int
	reg   user.Registry
	err   error
}

func (f *fakeRegistry) Load(context.Context) (user.Registry, error) {
	f.calls++
	return f.reg, f.err
}

type recordedOutcome struct{ file, outcome string }

type fakeObserver struct{ got []recordedOutcome }

func (f *fakeObserver) ObserveOutcome(file, outcome string) {
	f.got = append(f.got, recordedOutcome{file, outcome})
}

func aliceRegistry() *fakeRegistry {
	return &fakeRegistry{reg: user.Registry{"alice": {Identifier: "alice", PIN: "1234"}}}
}

// scenario fixture: allow-list [dastan modes], only dastan.json on disk
func newGateway(t *testing.T, users registry.Loader, obs gateway.OutcomeObserver) *gateway.Gateway {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dastan.json"), []byte(`{"x":1}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	g, err := gateway.New(
		gateway.Options{AllowedFiles: []string{"dastan", "modes"}},
		users,
		documents.NewFileStore(dir, documents.Ext, nil),
		obs,
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	return g
}

func strPtr(s string) *string { return &s }

func TestServe_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		req      gateway.ServeRequest
		wantErr  error
		wantBody string
	}{
		{
			name:     "A default file with valid credentials",
			req:      gateway.ServeRequest{Name: "alice", PIN: "1234"},
			wantBody: `{"x":1}`,
		},
		{
			name:    "B wrong pin",
			req:     gateway.ServeRequest{Name: "alice", PIN: "0000"},
			wantErr: gateway.ErrUnauthorized,
		},
		{
			name:    "C file outside allow-list",
			req:     gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("secret")},
			wantErr: gateway.ErrBadRequest,
		},
		{
			name:    "D allow-listed file missing on disk",
			req:     gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("modes")},
			wantErr: gateway.ErrNotFound,
		},
		{
			name:     "explicit allowed file",
			req:      gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("dastan")},
			wantBody: `{"x":1}`,
		},
		{
			name:    "explicit empty file is not the default",
			req:     gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("")},
			wantErr: gateway.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, aliceRegistry(), nil)

			doc, err := g.Serve(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got err %v want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(doc.Body) != tt.wantBody {
				t.Fatalf("got body %s want %s", doc.Body, tt.wantBody)
			}
		})
	}
}

func TestServe_MissingCredentialsAlwaysBadRequest(t *testing.T) {
	reqs := []gateway.ServeRequest{
		{PIN: "1234"},
		{Name: "alice"},
		{},
		{PIN: "1234", File: strPtr("secret")},
		{Name: "alice", File: strPtr("modes")},
	}

	for _, req := range reqs {
		users := aliceRegistry()
		g := newGateway(t, users, nil)

		_, err := g.Serve(context.Background(), req)
		if !errors.Is(err, gateway.ErrBadRequest) {
			t.Fatalf("%+v: got %v want ErrBadRequest", req, err)
		}

		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) || gwErr.Message != "Missing name or PIN" {
			t.Fatalf("%+v: unexpected error message: %v", req, err)
		}
		if users.calls != 0 {
			t.Fatalf("registry must not be read for incomplete input")
		}
	}
}

func TestServe_AllowListCheckedBeforeRegistry(t *testing.T) {
	users := aliceRegistry()
	g := newGateway(t, users, nil)

	_, err := g.Serve(context.Background(), gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("../users")})
	if !errors.Is(err, gateway.ErrBadRequest) {
		t.Fatalf("got %v want ErrBadRequest", err)
	}
	if users.calls != 0 {
		t.Fatalf("registry read %d times for a disallowed file", users.calls)
	}
}

func TestServe_UnknownNameLooksLikeWrongPin(t *testing.T) {
	g := newGateway(t, aliceRegistry(), nil)

	_, unknownErr := g.Serve(context.Background(), gateway.ServeRequest{Name: "mallory", PIN: "1234"})
	_, wrongPinErr := g.Serve(context.Background(), gateway.ServeRequest{Name: "alice", PIN: "4321"})

	if !errors.Is(unknownErr, gateway.ErrUnauthorized) || !errors.Is(wrongPinErr, gateway.ErrUnauthorized) {
		t.Fatalf("both should be unauthorized: %v / %v", unknownErr, wrongPinErr)
	}
	if unknownErr.Error() != wrongPinErr.Error() {
		t.Fatalf("messages differ: %q vs %q", unknownErr, wrongPinErr)
	}
}

func TestServe_PinIsCaseSensitive(t *testing.T) {
	users := &fakeRegistry{reg: user.Registry{"alice": {Identifier: "alice", PIN: "abcd"}}}
	g := newGateway(t, users, nil)

	if _, err := g.Serve(context.Background(), gateway.ServeRequest{Name: "alice", PIN: "ABCD"}); !errors.Is(err, gateway.ErrUnauthorized) {
		t.Fatalf("got %v want ErrUnauthorized", err)
	}
}

func TestServe_Idempotent(t *testing.T) {
	g := newGateway(t, aliceRegistry(), nil)
	req := gateway.ServeRequest{Name: "alice", PIN: "1234"}

	first, err := g.Serve(context.Background(), req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := g.Serve(context.Background(), req)
		if err != nil {
			t.Fatalf("repeat %d: %v", i, err)
		}
		if !bytes.Equal(first.Body, again.Body) {
			t.Fatalf("repeat %d returned different bytes", i)
		}
	}
}

func TestServe_RegistryErrors(t *testing.T) {
	t.Run("missing registry is not found", func(t *testing.T) {
		g := newGateway(t, &fakeRegistry{err: registry.ErrRegistryNotFound}, nil)

		_, err := g.Serve(context.Background(), gateway.ServeRequest{Name: "alice", PIN: "1234"})
		if !errors.Is(err, gateway.ErrNotFound) {
			t.Fatalf("got %v want ErrNotFound", err)
		}
	})

	t.Run("unparseable registry is internal", func(t *testing.T) {
		g := newGateway(t, &fakeRegistry{err: registry.ErrRegistryParse}, nil)

		_, err := g.Serve(context.Background(), gateway.ServeRequest{Name: "alice", PIN: "1234"})
		if !errors.Is(err, registry.ErrRegistryParse) {
			t.Fatalf("got %v want ErrRegistryParse", err)
		}
		if gateway.Outcome(err) != "error" {
			t.Fatalf("parse failures are internal, got outcome %q", gateway.Outcome(err))
		}
	})
}

func TestServe_ObservesOutcomes(t *testing.T) {
	obs := &fakeObserver{}
	g := newGateway(t, aliceRegistry(), obs)
	ctx := context.Background()

	_, _ = g.Serve(ctx, gateway.ServeRequest{Name: "alice", PIN: "1234"})
	_, _ = g.Serve(ctx, gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("secret")})
	_, _ = g.Serve(ctx, gateway.ServeRequest{Name: "alice", PIN: "0", File: strPtr("modes")})
	_, _ = g.Serve(ctx, gateway.ServeRequest{Name: "alice", PIN: "1234", File: strPtr("modes")})

	want := []recordedOutcome{
		{"dastan", "ok"},
		{"other", "bad_request"},
		{"modes", "unauthorized"},
		{"modes", "not_found"},
	}
	if !reflect.DeepEqual(obs.got, want) {
		t.Fatalf("got %v want %v", obs.got, want)
	}
}

func TestNew_ValidatesOptions(t *testing.T) {
	docs := documents.NewFileStore(t.TempDir(), documents.Ext, nil)

	if _, err := gateway.New(gateway.Options{}, aliceRegistry(), docs, nil); err == nil {
		t.Fatalf("empty allow-list should be rejected")
	}

	if _, err := gateway.New(gateway.Options{AllowedFiles: []string{"dastan"}, DefaultFile: "secret"}, aliceRegistry(), docs, nil); err == nil {
		t.Fatalf("default outside the allow-list should be rejected")
	}

	allowed := []string{"modes", "dastan"}
	g, err := gateway.New(gateway.Options{AllowedFiles: allowed}, aliceRegistry(), docs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.DefaultFile() != "modes" {
		t.Fatalf("default should be the first allowed file, got %q", g.DefaultFile())
	}

	allowed[0] = "secret"
	if g.Allowed("secret") || !g.Allowed("modes") {
		t.Fatalf("allow-list must not follow later mutation of the caller's slice")
	}
}

func TestDescribe(t *testing.T) {
	g := newGateway(t, &fakeRegistry{reg: user.Registry{
		"bob":   {Identifier: "bob", PIN: "1"},
		"alice": {Identifier: "alice", PIN: "2"},
	}}, nil)

	d, err := g.Describe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Message != gateway.RootMessage {
		t.Fatalf("message: got %q", d.Message)
	}
	if !reflect.DeepEqual(d.AvailableFiles, []string{"dastan"}) {
		t.Fatalf("files: got %v", d.AvailableFiles)
	}
	if !reflect.DeepEqual(d.RegisteredUsers, []string{"alice", "bob"}) {
		t.Fatalf("users: got %v", d.RegisteredUsers)
	}
}

func TestDescribe_MissingRegistry(t *testing.T) {
	g := newGateway(t, &fakeRegistry{err: registry.ErrRegistryNotFound}, nil)

	if _, err := g.Describe(context.Background()); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}
