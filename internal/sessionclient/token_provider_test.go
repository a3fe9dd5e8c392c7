package sessionclient_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SimpnicServerTeam/timesheet-session/internal/mocks"
	"github.com/SimpnicServerTeam/timesheet-session/internal/sessionclient"
)

func TestTokenProvider_GetTokenCaches(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	raw := signTestToken(t, testUserID, time.Hour)
	identity.On("FetchToken", false).Return(raw, nil).Once()

	provider := sessionclient.NewTokenProvider(identity)

	first, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	second, err := provider.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, raw, first.Raw)
	assert.Equal(t, testUserID, first.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), first.ExpiresAt, 5*time.Second)
	assert.Equal(t, first, second)
	identity.AssertNumberOfCalls(t, "FetchToken", 1)
}

func TestTokenProvider_StaleTokenIsRefetched(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	identity.On("FetchToken", false).Return(signTestToken(t, testUserID, 5*time.Second), nil).Once()
	identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil).Once()

	provider := sessionclient.NewTokenProvider(identity)
	_, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	// Within the leeway, so the next call fetches again.
	_, err = provider.GetToken(context.Background())
	require.NoError(t, err)

	identity.AssertExpectations(t)
}

func TestTokenProvider_RefreshTokenForces(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil).Once()
	identity.On("FetchToken", true).Return(signTestToken(t, testUserID, 2*time.Hour), nil).Once()

	provider := sessionclient.NewTokenProvider(identity)
	_, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	refreshed, err := provider.RefreshToken(context.Background())
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(2*time.Hour), refreshed.ExpiresAt, 5*time.Second)
	identity.AssertExpectations(t)
}

func TestTokenProvider_NoTokenAvailable(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		err  error
	}{
		{"ProviderError", "", errors.New("not signed in")},
		{"EmptyToken", "", nil},
		{"Garbage", "not-a-jwt", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			identity := new(mocks.MockIdentityProvider)
			identity.On("FetchToken", false).Return(tc.raw, tc.err).Once()

			_, err := sessionclient.NewTokenProvider(identity).GetToken(context.Background())
			assert.ErrorIs(t, err, sessionclient.ErrNoTokenAvailable)
		})
	}
}

func TestTokenProvider_Subject(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil).Once()

	subject, err := sessionclient.NewTokenProvider(identity).Subject(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testUserID, subject)
}

func TestTokenProvider_ForgetDropsCache(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil).Twice()

	provider := sessionclient.NewTokenProvider(identity)
	_, err := provider.GetToken(context.Background())
	require.NoError(t, err)
	provider.Forget()
	_, err = provider.GetToken(context.Background())
	require.NoError(t, err)

	identity.AssertNumberOfCalls(t, "FetchToken", 2)
}

func TestTokenProvider_ForgetDoesNotWaitForFetch(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	entered := make(chan struct{})
	release := make(chan struct{})
	identity.On("FetchToken", false).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(signTestToken(t, testUserID, time.Hour), nil).Once()

	provider := sessionclient.NewTokenProvider(identity)
	fetched := make(chan error, 1)
	go func() {
		_, err := provider.GetToken(context.Background())
		fetched <- err
	}()
	<-entered

	forgotten := make(chan struct{})
	go func() {
		provider.Forget()
		close(forgotten)
	}()
	select {
	case <-forgotten:
	case <-time.After(time.Second):
		t.Fatal("Forget blocked on an in-flight fetch")
	}

	close(release)
	err := <-fetched
	assert.ErrorIs(t, err, sessionclient.ErrNoTokenAvailable)

	// The token fetched for the forgotten credentials was not cached.
	identity.On("FetchToken", false).Return("", errors.New("signed out")).Once()
	_, err = provider.GetToken(context.Background())
	assert.ErrorIs(t, err, sessionclient.ErrNoTokenAvailable)
	identity.AssertNumberOfCalls(t, "FetchToken", 2)
}

func TestTokenProvider_ConcurrentGetTokenFetchesOnce(t *testing.T) {
	identity := new(mocks.MockIdentityProvider)
	identity.On("FetchToken", false).Run(func(mock.Arguments) {
		time.Sleep(20 * time.Millisecond)
	}).Return(signTestToken(t, testUserID, time.Hour), nil).Once()

	provider := sessionclient.NewTokenProvider(identity)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := provider.GetToken(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	identity.AssertNumberOfCalls(t, "FetchToken", 1)
}
