package client

import (
	"context"
	"strings"
	"sync"

	auth "github.com/goliatone/go-auth-gate"
	goerrors "github.com/goliatone/go-errors"
)

// Mode is the form mode.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

func (m Mode) String() string {
	if m == ModeSignUp {
		return "sign_up"
	}
	return "sign_in"
}

// FormState is a snapshot of the form.
type FormState struct {
	Mode      Mode
	Name      string
	Email     string
	Phone     string
	Age       string
	Password  string
	Agreed    bool
	Error     string
	ErrorKind ErrorKind
	Loading   bool
}

// Dependencies are the capabilities the form drives.
type Dependencies struct {
	Passwords PasswordProvider
	Federated FederatedProvider
	Profiles  ProfileWriter
}

// Form coordinates form state, validation and credential acquisition. A
// form runs one acquisition at a time.
type Form struct {
	mu         sync.Mutex
	state      FormState
	generation uint64

	passwords PasswordProvider
	federated FederatedProvider
	profiles  ProfileWriter

	validator Validator
	logger    auth.Logger
	listeners []PrincipalListener
	reconcile bool

	// sign-up attributes whose profile write failed, by uid
	pending map[string]*auth.ProfileAttributes
}

// Option configures a Form.
type Option func(*Form)

// WithLogger overrides the logger used by the form.
func WithLogger(logger auth.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithPhoneRegion sets the region used to parse local phone numbers.
func WithPhoneRegion(region string) Option {
	return func(f *Form) {
		f.validator.PhoneRegion = region
	}
}

// WithListener registers a listener for successful acquisitions.
func WithListener(listener PrincipalListener) Option {
	return func(f *Form) {
		if listener != nil {
			f.listeners = append(f.listeners, listener)
		}
	}
}

// WithSession keeps session updated with every acquired principal.
func WithSession(session *Session) Option {
	return func(f *Form) {
		if session != nil {
			f.listeners = append(f.listeners, session.Set)
		}
	}
}

// WithProfileReconciliation toggles the create-if-absent profile write run
// after a password sign-in. It is enabled by default and repairs accounts
// whose profile write failed during sign-up, using the sign-up attributes
// when this form still holds them.
func WithProfileReconciliation(enabled bool) Option {
	return func(f *Form) {
		f.reconcile = enabled
	}
}

// WithMode sets the initial mode.
func WithMode(mode Mode) Option {
	return func(f *Form) {
		f.state.Mode = mode
	}
}

// NewForm creates a form in sign-in mode.
func NewForm(deps Dependencies, opts ...Option) *Form {
	f := &Form{
		passwords: deps.Passwords,
		federated: deps.Federated,
		profiles:  deps.Profiles,
		logger:    auth.DefaultLogger(),
		reconcile: true,
		pending:   make(map[string]*auth.ProfileAttributes),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// State returns a snapshot of the form.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetName sets the full name field.
func (f *Form) SetName(v string) { f.update(func(s *FormState) { s.Name = v }) }

// SetEmail sets the email field.
func (f *Form) SetEmail(v string) { f.update(func(s *FormState) { s.Email = v }) }

// SetPhone sets the phone field.
func (f *Form) SetPhone(v string) { f.update(func(s *FormState) { s.Phone = v }) }

// SetAge sets the age field.
func (f *Form) SetAge(v string) { f.update(func(s *FormState) { s.Age = v }) }

// SetPassword sets the password field.
func (f *Form) SetPassword(v string) { f.update(func(s *FormState) { s.Password = v }) }

// SetAgreed sets the terms agreement flag.
func (f *Form) SetAgreed(v bool) { f.update(func(s *FormState) { s.Agreed = v }) }

func (f *Form) update(fn func(*FormState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
}

// ToggleMode flips between sign-in and sign-up. Pending errors are cleared,
// field values are kept. An acquisition still in flight is not cancelled,
// but its error will not be written back to the form.
func (f *Form) ToggleMode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Mode == ModeSignIn {
		f.state.Mode = ModeSignUp
	} else {
		f.state.Mode = ModeSignIn
	}
	f.state.Error = ""
	f.state.ErrorKind = KindNone
	f.generation++

	return f.state.Mode
}

// Submit validates the form and runs the acquisition for the current mode.
func (f *Form) Submit(ctx context.Context) (*Principal, error) {
	state, gen, err := f.begin(true)
	if err != nil {
		return nil, err
	}

	var (
		principal *Principal
		richErr   *goerrors.Error
	)
	defer func() { f.end(gen, richErr) }()

	if state.Mode == ModeSignUp {
		principal, richErr = f.signUp(ctx, state)
	} else {
		principal, richErr = f.signIn(ctx, state)
	}

	if richErr != nil {
		return principal, richErr
	}
	return principal, nil
}

// SignInWithFederated runs the federated sign-in flow and creates the
// principal profile if it does not exist yet.
func (f *Form) SignInWithFederated(ctx context.Context) (*Principal, error) {
	_, gen, err := f.begin(false)
	if err != nil {
		return nil, err
	}

	var richErr *goerrors.Error
	defer func() { f.end(gen, richErr) }()

	var principal *Principal
	principal, richErr = f.federatedSignIn(ctx)
	if richErr != nil {
		return principal, richErr
	}
	return principal, nil
}

// begin claims the loading flag. When validate is set the local rules run
// first and a failure is recorded without starting an acquisition.
func (f *Form) begin(validate bool) (FormState, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Loading {
		return FormState{}, 0, ErrSubmitInProgress.Clone()
	}

	if validate {
		if err := f.validator.Validate(f.state); err != nil {
			f.state.Error = MessageOf(err)
			f.state.ErrorKind = KindOf(err)
			return FormState{}, 0, err
		}
	}

	f.state.Loading = true
	f.state.Error = ""
	f.state.ErrorKind = KindNone

	return f.state, f.generation, nil
}

// end releases the loading flag and records err when the acquisition still
// belongs to the current generation.
func (f *Form) end(gen uint64, err *goerrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.Loading = false
	if err == nil {
		return
	}
	if gen != f.generation {
		f.logger.Debug("discarding stale acquisition result",
			"generation", gen,
			"current", f.generation,
		)
		return
	}
	f.state.Error = err.Message
	f.state.ErrorKind = ErrorKind(err.TextCode)
}

func (f *Form) signIn(ctx context.Context, state FormState) (*Principal, *goerrors.Error) {
	if f.passwords == nil {
		return nil, ClassifySignInError(errProviderMissing("password"))
	}

	principal, err := f.passwords.SignInWithPassword(ctx, state.Email, state.Password)
	if err == nil && principal == nil {
		err = errEmptyPrincipal("sign_in")
	}
	if err != nil {
		f.logger.Warn("password sign-in failed", "error", err, "code", ProviderCode(err))
		return nil, ClassifySignInError(err)
	}

	if f.reconcile && f.profiles != nil {
		attrs := f.pendingAttributes(principal.UID)
		if err := f.profiles.CreateProfile(ctx, principal, attrs); err != nil {
			f.logger.Warn("profile reconciliation failed", "uid", principal.UID, "error", err)
		} else {
			f.clearPending(principal.UID)
		}
	}

	f.notify(principal)
	return principal, nil
}

func (f *Form) signUp(ctx context.Context, state FormState) (*Principal, *goerrors.Error) {
	if f.passwords == nil {
		return nil, ClassifySignUpError(errProviderMissing("password"))
	}

	principal, err := f.passwords.SignUpWithPassword(ctx, state.Email, state.Password)
	if err == nil && principal == nil {
		err = errEmptyPrincipal("sign_up")
	}
	if err != nil {
		f.logger.Warn("password sign-up failed", "error", err, "code", ProviderCode(err))
		return nil, ClassifySignUpError(err)
	}

	age, _ := ParseAge(state.Age)
	attrs := &auth.ProfileAttributes{
		DisplayName: strings.TrimSpace(state.Name),
		Phone:       strings.TrimSpace(state.Phone),
		Age:         age,
	}

	if err := f.writeProfile(ctx, principal, attrs); err != nil {
		f.logger.Error("account created but profile write failed", "uid", principal.UID, "error", err)
		f.setPending(principal.UID, attrs)
		f.notify(principal)
		return principal, newAuthError(KindProfileWriteFailure, MsgSignUpFailed, err)
	}

	f.notify(principal)
	return principal, nil
}

func (f *Form) federatedSignIn(ctx context.Context) (*Principal, *goerrors.Error) {
	if f.federated == nil {
		return nil, ClassifyFederatedError(errProviderMissing("federated"))
	}

	principal, err := f.federated.SignInWithFederatedProvider(ctx)
	if err == nil && principal == nil {
		err = errEmptyPrincipal("federated_sign_in")
	}
	if err != nil {
		f.logger.Warn("federated sign-in failed", "error", err, "code", ProviderCode(err))
		return nil, ClassifyFederatedError(err)
	}

	if err := f.writeProfile(ctx, principal, f.pendingAttributes(principal.UID)); err != nil {
		f.logger.Error("federated profile write failed", "uid", principal.UID, "error", err)
		f.notify(principal)
		return principal, newAuthError(KindProfileWriteFailure, MsgFederatedFailed, err)
	}
	f.clearPending(principal.UID)

	f.notify(principal)
	return principal, nil
}

func (f *Form) writeProfile(ctx context.Context, principal *Principal, attrs *auth.ProfileAttributes) error {
	if f.profiles == nil {
		return errProviderMissing("profile")
	}
	return f.profiles.CreateProfile(ctx, principal, attrs)
}

func (f *Form) pendingAttributes(uid string) *auth.ProfileAttributes {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[uid]
}

func (f *Form) setPending(uid string, attrs *auth.ProfileAttributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[uid] = attrs
}

func (f *Form) clearPending(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, uid)
}

func (f *Form) notify(principal *Principal) {
	for _, listener := range f.listeners {
		listener(principal)
	}
}

func errProviderMissing(name string) error {
	return &ProviderError{
		Provider:    name,
		Code:        CodeOperationNotAllow,
		Description: name + " provider is not configured",
	}
}

func errEmptyPrincipal(operation string) error {
	return &ProviderError{
		Operation:   operation,
		Code:        CodeInternalError,
		Description: "provider returned no principal",
	}
}
