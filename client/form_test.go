package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fillSignUp(f *Form) {
	f.SetName("Ann")
	f.SetEmail("ann@example.com")
	f.SetPhone("+12015550123")
	f.SetAge("20")
	f.SetPassword("secret1")
	f.SetAgreed(true)
}

func TestForm_SignUpCreatesProfile(t *testing.T) {
	passwords := &MockPasswordProvider{}
	profiles := &MockProfileWriter{}
	principal := &Principal{UID: "uid-1", Email: "ann@example.com", IDToken: "tok"}

	passwords.On("SignUpWithPassword", mock.Anything, "ann@example.com", "secret1").Return(principal, nil)
	profiles.On("CreateProfile", mock.Anything, principal, &auth.ProfileAttributes{
		DisplayName: "Ann",
		Phone:       "+12015550123",
		Age:         20,
	}).Return(nil)

	var notified []*Principal
	form := NewForm(Dependencies{Passwords: passwords, Profiles: profiles},
		WithMode(ModeSignUp),
		WithLogger(nopLogger{}),
		WithListener(func(p *Principal) { notified = append(notified, p) }),
	)
	fillSignUp(form)

	got, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Same(t, principal, got)
	assert.Equal(t, []*Principal{principal}, notified)

	state := form.State()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
	assert.Equal(t, KindNone, state.ErrorKind)

	passwords.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestForm_ValidationFailureSkipsProvider(t *testing.T) {
	passwords := &MockPasswordProvider{}
	form := NewForm(Dependencies{Passwords: passwords}, WithMode(ModeSignUp), WithLogger(nopLogger{}))
	fillSignUp(form)
	form.SetAge("16")
	form.SetPhone("")

	_, err := form.Submit(context.Background())
	require.Error(t, err)

	state := form.State()
	assert.Equal(t, MsgAgeRequirement, state.Error)
	assert.Equal(t, KindValidation, state.ErrorKind)
	assert.False(t, state.Loading)
	passwords.AssertNotCalled(t, "SignUpWithPassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestForm_SignUpProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantMsg  string
		wantKind ErrorKind
	}{
		{name: "duplicate account", code: CodeEmailAlreadyInUse, wantMsg: MsgEmailAlreadyInUse, wantKind: KindDuplicateAccount},
		{name: "weak password", code: CodeWeakPassword, wantMsg: MsgWeakPassword, wantKind: KindWeakCredential},
		{name: "invalid email", code: CodeInvalidEmail, wantMsg: MsgInvalidEmail, wantKind: KindMalformedEmail},
		{name: "anything else", code: CodeTooManyRequests, wantMsg: MsgSignUpFailed, wantKind: KindAuthFailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passwords := &MockPasswordProvider{}
			profiles := &MockProfileWriter{}
			passwords.On("SignUpWithPassword", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, &ProviderError{Provider: "firebase", Code: tt.code, Description: "raw provider text"})

			form := NewForm(Dependencies{Passwords: passwords, Profiles: profiles}, WithMode(ModeSignUp), WithLogger(nopLogger{}))
			fillSignUp(form)

			got, err := form.Submit(context.Background())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.wantMsg, MessageOf(err))
			assert.Equal(t, tt.wantKind, KindOf(err))

			state := form.State()
			assert.Equal(t, tt.wantMsg, state.Error)
			assert.Equal(t, tt.wantKind, state.ErrorKind)
			assert.False(t, state.Loading)
			profiles.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestForm_SignUpProfileFailureStillSignsIn(t *testing.T) {
	passwords := &MockPasswordProvider{}
	profiles := &MockProfileWriter{}
	principal := &Principal{UID: "uid-1", IDToken: "tok"}

	passwords.On("SignUpWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(principal, nil)
	profiles.On("CreateProfile", mock.Anything, principal, mock.Anything).Return(errors.New("graphql down"))

	session := NewSession()
	form := NewForm(Dependencies{Passwords: passwords, Profiles: profiles},
		WithMode(ModeSignUp), WithLogger(nopLogger{}), WithSession(session))
	fillSignUp(form)

	got, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Same(t, principal, got)
	assert.Equal(t, KindProfileWriteFailure, KindOf(err))
	assert.Equal(t, MsgSignUpFailed, form.State().Error)

	current, ok := session.Current()
	assert.True(t, ok)
	assert.Same(t, principal, current)
}

func TestForm_SignInFailureIsGeneric(t *testing.T) {
	codes := []string{CodeWrongPassword, CodeUserNotFound, CodeInvalidCredential, CodeUserDisabled, ""}

	for _, code := range codes {
		t.Run("code "+code, func(t *testing.T) {
			passwords := &MockPasswordProvider{}
			passwords.On("SignInWithPassword", mock.Anything, "ann@example.com", "whatever").
				Return(nil, &ProviderError{Code: code, Description: "INVALID_LOGIN_CREDENTIALS"})

			form := NewForm(Dependencies{Passwords: passwords}, WithLogger(nopLogger{}))
			form.SetEmail("ann@example.com")
			form.SetPassword("whatever")

			_, err := form.Submit(context.Background())
			require.Error(t, err)
			assert.Equal(t, MsgSignInFailed, form.State().Error)
			assert.Equal(t, KindAuthFailureGeneric, form.State().ErrorKind)
		})
	}
}

func TestForm_SignInReconcilesProfile(t *testing.T) {
	principal := &Principal{UID: "uid-1", IDToken: "tok"}

	t.Run("enabled by default and best effort", func(t *testing.T) {
		passwords := &MockPasswordProvider{}
		profiles := &MockProfileWriter{}
		passwords.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(principal, nil)
		profiles.On("CreateProfile", mock.Anything, principal, (*auth.ProfileAttributes)(nil)).Return(errors.New("boom"))

		form := NewForm(Dependencies{Passwords: passwords, Profiles: profiles}, WithLogger(nopLogger{}))
		form.SetEmail("ann@example.com")
		form.SetPassword("x")

		got, err := form.Submit(context.Background())
		require.NoError(t, err)
		assert.Same(t, principal, got)
		assert.Empty(t, form.State().Error)
		profiles.AssertExpectations(t)
	})

	t.Run("disabled", func(t *testing.T) {
		passwords := &MockPasswordProvider{}
		profiles := &MockProfileWriter{}
		passwords.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(principal, nil)

		form := NewForm(Dependencies{Passwords: passwords, Profiles: profiles},
			WithLogger(nopLogger{}), WithProfileReconciliation(false))
		form.SetEmail("ann@example.com")
		form.SetPassword("x")

		_, err := form.Submit(context.Background())
		require.NoError(t, err)
		profiles.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestForm_SignInRepairsWithSignUpAttributes(t *testing.T) {
	passwords := &MockPasswordProvider{}
	profiles := &MockProfileWriter{}
	principal := &Principal{UID: "uid-1", Email: "ann@example.com", IDToken: "tok"}
	attrs := &auth.ProfileAttributes{DisplayName: "Ann", Phone: "+12015550123", Age: 20}

	passwords.On("SignUpWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(principal, nil)
	passwords.On("SignInWithPassword", mock.Anything, mock.Anything, mock.Anything).Return(principal, nil)
	profiles.On("CreateProfile", mock.Anything, principal, attrs).Return(errors.New("graphql down")).Once()
	profiles.On("CreateProfile", mock.Anything, principal, attrs).Return(nil).Once()
	profiles.On("CreateProfile", mock.Anything, principal, (*auth.ProfileAttributes)(nil)).Return(nil).Once()

	form := NewForm(Dependencies{Passwords: passwords, Profiles: profiles},
		WithMode(ModeSignUp), WithLogger(nopLogger{}))
	fillSignUp(form)

	_, err := form.Submit(context.Background())
	assert.Equal(t, KindProfileWriteFailure, KindOf(err))

	form.ToggleMode()
	_, err = form.Submit(context.Background())
	require.NoError(t, err)

	_, err = form.Submit(context.Background())
	require.NoError(t, err)

	profiles.AssertExpectations(t)
}

type panickingPasswords struct{}

func (panickingPasswords) SignInWithPassword(context.Context, string, string) (*Principal, error) {
	panic("provider crashed")
}

func (panickingPasswords) SignUpWithPassword(context.Context, string, string) (*Principal, error) {
	panic("provider crashed")
}

func TestForm_PanicReleasesLoading(t *testing.T) {
	form := NewForm(Dependencies{Passwords: panickingPasswords{}}, WithLogger(nopLogger{}))
	form.SetEmail("ann@example.com")
	form.SetPassword("x")

	assert.Panics(t, func() { _, _ = form.Submit(context.Background()) })
	assert.False(t, form.State().Loading)

	assert.Panics(t, func() { _, _ = form.Submit(context.Background()) })
	assert.False(t, form.State().Loading)
}

func TestForm_Federated(t *testing.T) {
	principal := &Principal{UID: "g-1", IDToken: "tok", ProviderID: "google.com"}

	t.Run("success writes profile", func(t *testing.T) {
		federated := &MockFederatedProvider{}
		profiles := &MockProfileWriter{}
		federated.On("SignInWithFederatedProvider", mock.Anything).Return(principal, nil)
		profiles.On("CreateProfile", mock.Anything, principal, (*auth.ProfileAttributes)(nil)).Return(nil)

		form := NewForm(Dependencies{Federated: federated, Profiles: profiles}, WithLogger(nopLogger{}))
		got, err := form.SignInWithFederated(context.Background())
		require.NoError(t, err)
		assert.Same(t, principal, got)
		profiles.AssertExpectations(t)
	})

	t.Run("failure message", func(t *testing.T) {
		federated := &MockFederatedProvider{}
		federated.On("SignInWithFederatedProvider", mock.Anything).
			Return(nil, &ProviderError{Code: "auth/popup-closed-by-user"})

		form := NewForm(Dependencies{Federated: federated}, WithLogger(nopLogger{}))
		_, err := form.SignInWithFederated(context.Background())
		require.Error(t, err)
		assert.Equal(t, MsgFederatedFailed, form.State().Error)
		assert.False(t, form.State().Loading)
	})

	t.Run("does not validate the form", func(t *testing.T) {
		federated := &MockFederatedProvider{}
		profiles := &MockProfileWriter{}
		federated.On("SignInWithFederatedProvider", mock.Anything).Return(principal, nil)
		profiles.On("CreateProfile", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		form := NewForm(Dependencies{Federated: federated, Profiles: profiles}, WithMode(ModeSignUp), WithLogger(nopLogger{}))
		_, err := form.SignInWithFederated(context.Background())
		assert.NoError(t, err)
	})
}

// blockingPasswords blocks every call until release is closed.
type blockingPasswords struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (b *blockingPasswords) SignInWithPassword(ctx context.Context, _, _ string) (*Principal, error) {
	close(b.started)
	<-b.release
	if b.err != nil {
		return nil, b.err
	}
	return &Principal{UID: "uid-1"}, nil
}

func (b *blockingPasswords) SignUpWithPassword(ctx context.Context, email, password string) (*Principal, error) {
	return b.SignInWithPassword(ctx, email, password)
}

func TestForm_SingleInFlight(t *testing.T) {
	passwords := &blockingPasswords{started: make(chan struct{}), release: make(chan struct{})}
	form := NewForm(Dependencies{Passwords: passwords}, WithLogger(nopLogger{}), WithProfileReconciliation(false))
	form.SetEmail("ann@example.com")
	form.SetPassword("x")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := form.Submit(context.Background())
		assert.NoError(t, err)
	}()

	select {
	case <-passwords.started:
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition did not start")
	}

	assert.True(t, form.State().Loading)

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindSubmitInProgress, KindOf(err))

	_, err = form.SignInWithFederated(context.Background())
	assert.Equal(t, KindSubmitInProgress, KindOf(err))

	close(passwords.release)
	wg.Wait()

	assert.False(t, form.State().Loading)
}

func TestForm_ToggleDiscardsStaleError(t *testing.T) {
	passwords := &blockingPasswords{
		started: make(chan struct{}),
		release: make(chan struct{}),
		err:     &ProviderError{Code: CodeWrongPassword},
	}
	form := NewForm(Dependencies{Passwords: passwords}, WithLogger(nopLogger{}))
	form.SetEmail("ann@example.com")
	form.SetPassword("x")

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()
	<-passwords.started

	assert.Equal(t, ModeSignUp, form.ToggleMode())

	close(passwords.release)
	err := <-done
	require.Error(t, err)
	assert.Equal(t, MsgSignInFailed, MessageOf(err))

	state := form.State()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
	assert.Equal(t, ModeSignUp, state.Mode)
}

func TestForm_ToggleMode(t *testing.T) {
	form := NewForm(Dependencies{}, WithLogger(nopLogger{}))
	form.SetEmail("bad")

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgInvalidEmail, form.State().Error)

	assert.Equal(t, ModeSignUp, form.ToggleMode())
	state := form.State()
	assert.Empty(t, state.Error)
	assert.Equal(t, "bad", state.Email)

	assert.Equal(t, ModeSignIn, form.ToggleMode())
	assert.Equal(t, "sign_in", form.State().Mode.String())
}

func TestForm_MissingProvider(t *testing.T) {
	form := NewForm(Dependencies{}, WithLogger(nopLogger{}))
	form.SetEmail("ann@example.com")
	form.SetPassword("x")

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgSignInFailed, MessageOf(err))
	assert.Equal(t, CodeOperationNotAllow, ProviderCode(err))
}
