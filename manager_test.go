package atelier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atelier "github.com/atelier-market/atelier-go"
)

func newTestManager(t *testing.T, handler http.HandlerFunc, store atelier.CredentialStore, opts ...atelier.ManagerOption) *atelier.Manager {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := atelier.NewClient(atelier.ClientConfig{BaseURL: server.URL})
	return atelier.NewManager(client, store, opts...)
}

func writeAuthResponse(w http.ResponseWriter, token string, user map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token": map[string]any{"token": token},
		"data":  user,
	})
}

func writeMeResponse(w http.ResponseWriter, user map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": user})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"message": message})
}

func TestManagerBootstrap(t *testing.T) {
	t.Run("empty store settles unauthenticated without a network call", func(t *testing.T) {
		var calls int
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		}, atelier.NewMemoryCredentialStore())

		session := manager.Bootstrap(context.Background())

		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.False(t, session.Authenticated())
		assert.Empty(t, session.Token)
		assert.Zero(t, calls)
	})

	t.Run("restores persisted token and resolves an admin identity", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("T1")

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/me", r.URL.Path)
			require.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
			writeMeResponse(w, map[string]any{"id": "u1", "roles": []string{"admin"}})
		}, store)

		session := manager.Bootstrap(context.Background())

		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.Equal(t, atelier.RoleAdmin, session.Role())
		require.NotNil(t, session.User)
		assert.Equal(t, "u1", session.User.ID)
		assert.Equal(t, "T1", session.Token)
	})

	t.Run("clears a token the backend rejects", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("stale")

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "token expired")
		}, store)

		session := manager.Bootstrap(context.Background())

		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.False(t, session.Authenticated())
		assert.Empty(t, session.Token)

		_, ok := store.Token()
		assert.False(t, ok, "rejected token must not survive bootstrap")
	})

	t.Run("clears the token on transport failure too", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("unreachable")

		client := atelier.NewClient(atelier.ClientConfig{BaseURL: "http://127.0.0.1:0"})
		manager := atelier.NewManager(client, store)

		session := manager.Bootstrap(context.Background())

		assert.False(t, session.Authenticated())
		_, ok := store.Token()
		assert.False(t, ok)
	})

	t.Run("runs once", func(t *testing.T) {
		var calls int
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("T1")

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			writeMeResponse(w, map[string]any{"id": "u1", "roles": []string{"user"}})
		}, store)

		manager.Bootstrap(context.Background())
		second := manager.Bootstrap(context.Background())

		assert.Equal(t, 1, calls)
		assert.True(t, second.Authenticated())
	})
}

func TestManagerLogin(t *testing.T) {
	userPayload := map[string]any{"id": "u1", "username": "maker", "roles": []string{"user"}}

	t.Run("persists token and identity together", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		var gotBody map[string]any

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/signin", r.URL.Path)
			json.NewDecoder(r.Body).Decode(&gotBody)
			writeAuthResponse(w, "fresh-token", userPayload)
		}, store)

		session, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com",
			Password:   "hunter22",
		})

		require.NoError(t, err)
		assert.Equal(t, "a@b.com", gotBody["identifier"])
		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.Equal(t, "fresh-token", session.Token)
		require.NotNil(t, session.User)
		assert.Equal(t, "u1", session.User.ID)

		stored, ok := store.Token()
		require.True(t, ok)
		assert.Equal(t, "fresh-token", stored)
	})

	t.Run("failed login leaves the store untouched", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		}, store)

		session, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com",
			Password:   "bad",
		})

		apiErr, ok := atelier.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "Invalid credentials", apiErr.Message)

		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.False(t, session.Authenticated())

		_, stored := store.Token()
		assert.False(t, stored, "no partial token may be persisted")
	})

	t.Run("failed login restores the prior authenticated state", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		var fail bool

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			if fail {
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			writeAuthResponse(w, "first-token", userPayload)
		}, store)

		_, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com", Password: "good",
		})
		require.NoError(t, err)

		fail = true
		session, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com", Password: "bad",
		})
		require.Error(t, err)

		assert.Equal(t, "first-token", session.Token)
		require.NotNil(t, session.User)
		assert.Equal(t, "u1", session.User.ID)

		stored, ok := store.Token()
		require.True(t, ok)
		assert.Equal(t, "first-token", stored)
	})

	t.Run("password flow requires a password", func(t *testing.T) {
		var calls int
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		}, atelier.NewMemoryCredentialStore())

		_, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com",
		})

		assert.ErrorIs(t, err, atelier.ErrMissingPassword)
		assert.Zero(t, calls, "validation failures must not reach the network")
	})

	t.Run("wallet flow posts the signed challenge", func(t *testing.T) {
		var gotBody map[string]any
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/signin/wallet", r.URL.Path)
			json.NewDecoder(r.Body).Decode(&gotBody)
			writeAuthResponse(w, "wallet-token", userPayload)
		}, atelier.NewMemoryCredentialStore())

		session, err := manager.Login(context.Background(), atelier.LoginRequest{
			WalletFlow:      true,
			WalletAddress:   "0xabc",
			SignedMessage:   "signed",
			OriginalMessage: "challenge",
		})

		require.NoError(t, err)
		assert.Equal(t, "0xabc", gotBody["walletAddress"])
		assert.Equal(t, "signed", gotBody["signedMessage"])
		assert.Equal(t, "challenge", gotBody["originalMessage"])
		assert.Equal(t, "wallet-token", session.Token)
	})

	t.Run("wallet flow requires the challenge pair", func(t *testing.T) {
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}, atelier.NewMemoryCredentialStore())

		_, err := manager.Login(context.Background(), atelier.LoginRequest{
			WalletFlow:    true,
			WalletAddress: "0xabc",
		})

		assert.ErrorIs(t, err, atelier.ErrMissingWalletChallenge)
	})

	t.Run("rejects a success response missing token or user", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"data": nil})
		}, store)

		session, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com", Password: "pw123456",
		})

		require.Error(t, err)
		assert.False(t, session.Authenticated())
		_, ok := store.Token()
		assert.False(t, ok)
	})
}

func TestManagerSignup(t *testing.T) {
	t.Run("creates and authenticates in one step", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		var gotBody map[string]any

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/signup", r.URL.Path)
			json.NewDecoder(r.Body).Decode(&gotBody)
			writeAuthResponse(w, "new-token", map[string]any{
				"id": "u9", "username": "newbie", "roles": []string{"user"},
			})
		}, store)

		session, err := manager.Signup(context.Background(), atelier.SignupRequest{
			Username:      "newbie",
			Email:         "new@b.com",
			Password:      "pw1234567",
			WalletAddress: "0xdef",
		})

		require.NoError(t, err)
		assert.Equal(t, "newbie", gotBody["username"])
		assert.Equal(t, "0xdef", gotBody["walletAddress"])
		assert.Equal(t, "new-token", session.Token)
		require.NotNil(t, session.User)
		assert.Equal(t, "u9", session.User.ID)

		stored, ok := store.Token()
		require.True(t, ok)
		assert.Equal(t, "new-token", stored)
	})

	t.Run("validates the payload before any network call", func(t *testing.T) {
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}, atelier.NewMemoryCredentialStore())

		_, err := manager.Signup(context.Background(), atelier.SignupRequest{
			Username: "x",
			Email:    "not-an-email",
			Password: "short",
		})

		assert.Error(t, err)
	})

	t.Run("failed signup leaves the store untouched", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusConflict, "username taken")
		}, store)

		_, err := manager.Signup(context.Background(), atelier.SignupRequest{
			Username: "newbie",
			Email:    "new@b.com",
			Password: "pw1234567",
		})

		require.Error(t, err)
		_, ok := store.Token()
		assert.False(t, ok)
	})
}

func TestManagerLogout(t *testing.T) {
	t.Run("clears store and memory after login", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			writeAuthResponse(w, "tok", map[string]any{"id": "u1", "roles": []string{"user"}})
		}, store)

		_, err := manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com", Password: "pw123456",
		})
		require.NoError(t, err)

		session := manager.Logout()

		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.False(t, session.Authenticated())
		assert.Empty(t, session.Token)
		_, ok := store.Token()
		assert.False(t, ok)
	})

	t.Run("is idempotent when already unauthenticated", func(t *testing.T) {
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		}, atelier.NewMemoryCredentialStore())

		first := manager.Logout()
		second := manager.Logout()

		assert.Equal(t, first, second)
		assert.False(t, second.Authenticated())
	})

	t.Run("works with a nil credential store", func(t *testing.T) {
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		}, nil)

		assert.NotPanics(t, func() {
			session := manager.Logout()
			assert.False(t, session.Authenticated())
		})
	})
}

func TestManagerRefresh(t *testing.T) {
	userPayload := map[string]any{"id": "u1", "username": "maker", "roles": []string{"user"}}

	t.Run("re-resolves the identity snapshot", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("T1")
		username := "before"

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			writeMeResponse(w, map[string]any{"id": "u1", "username": username, "roles": []string{"user"}})
		}, store)

		manager.Bootstrap(context.Background())

		username = "after"
		session, err := manager.Refresh(context.Background())

		require.NoError(t, err)
		require.NotNil(t, session.User)
		assert.Equal(t, "after", session.User.Username)
	})

	t.Run("with no token settles unauthenticated without error", func(t *testing.T) {
		var calls int
		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		}, atelier.NewMemoryCredentialStore())

		session, err := manager.Refresh(context.Background())

		require.NoError(t, err)
		assert.False(t, session.Authenticated())
		assert.Equal(t, atelier.PhaseReady, session.Phase)
		assert.Zero(t, calls)
	})

	t.Run("clears a token rejected with 4xx", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("T1")

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "token revoked")
		}, store)

		session, err := manager.Refresh(context.Background())

		require.Error(t, err)
		assert.False(t, session.Authenticated())
		_, ok := store.Token()
		assert.False(t, ok)
	})

	t.Run("keeps the prior snapshot on server failure", func(t *testing.T) {
		store := atelier.NewMemoryCredentialStore()
		store.SetToken("T1")
		var failing bool

		manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
			if failing {
				writeError(w, http.StatusInternalServerError, "backend down")
				return
			}
			writeMeResponse(w, userPayload)
		}, store)

		manager.Bootstrap(context.Background())

		failing = true
		session, err := manager.Refresh(context.Background())

		require.Error(t, err)
		require.NotNil(t, session.User, "a server blip must not sign the user out")
		assert.Equal(t, "u1", session.User.ID)

		stored, ok := store.Token()
		require.True(t, ok)
		assert.Equal(t, "T1", stored)
	})
}

func TestManagerStaleResolutionDiscarded(t *testing.T) {
	store := atelier.NewMemoryCredentialStore()
	store.SetToken("T1")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		writeMeResponse(w, map[string]any{"id": "u1", "roles": []string{"admin"}})
	}, store)

	var wg sync.WaitGroup
	wg.Add(1)
	var refreshed atelier.Session
	go func() {
		defer wg.Done()
		refreshed, _ = manager.Refresh(context.Background())
	}()

	<-entered
	require.Equal(t, atelier.PhaseResolving, manager.Current().Phase)

	loggedOut := manager.Logout()
	require.False(t, loggedOut.Authenticated())

	close(release)
	wg.Wait()

	assert.False(t, refreshed.Authenticated(), "in-flight success must not resurrect the session")
	final := manager.Current()
	assert.Equal(t, atelier.PhaseReady, final.Phase)
	assert.False(t, final.Authenticated())
	assert.Empty(t, final.Token)

	_, ok := store.Token()
	assert.False(t, ok)
}

func TestManagerLoginSupersededByLogout(t *testing.T) {
	store := atelier.NewMemoryCredentialStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		writeAuthResponse(w, "late-token", map[string]any{"id": "u1", "roles": []string{"user"}})
	}, store)

	var wg sync.WaitGroup
	wg.Add(1)
	var session atelier.Session
	var loginErr error
	go func() {
		defer wg.Done()
		session, loginErr = manager.Login(context.Background(), atelier.LoginRequest{
			Identifier: "a@b.com", Password: "pw123456",
		})
	}()

	<-entered
	manager.Logout()
	close(release)
	wg.Wait()

	assert.ErrorIs(t, loginErr, atelier.ErrSessionSuperseded,
		"a discarded login must be distinguishable from a successful one")
	assert.False(t, session.Authenticated())
	assert.Empty(t, session.Token)

	_, ok := store.Token()
	assert.False(t, ok, "the late token must not be persisted")
}

func TestManagerActivitySink(t *testing.T) {
	var mu sync.Mutex
	var events []atelier.ActivityEvent

	sink := atelier.ActivitySinkFunc(func(ctx context.Context, event atelier.ActivityEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	manager := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		writeAuthResponse(w, "tok", map[string]any{"id": "u1", "roles": []string{"user"}})
	}, atelier.NewMemoryCredentialStore(),
		atelier.WithManagerActivitySink(sink),
		atelier.WithManagerClock(func() time.Time { return fixed }),
	)

	_, err := manager.Login(context.Background(), atelier.LoginRequest{
		Identifier: "a@b.com", Password: "pw123456",
	})
	require.NoError(t, err)
	manager.Logout()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, atelier.ActivityEventLoginSuccess, events[0].EventType)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, fixed, events[0].OccurredAt)
	assert.Equal(t, atelier.ActivityEventLogout, events[1].EventType)
	assert.Equal(t, true, events[1].Metadata["was_authenticated"])
}
