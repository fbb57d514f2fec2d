package client

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Provider error codes, in the identity provider's "auth/..." namespace.
const (
	CodeWeakPassword       = "auth/weak-password"
	CodeEmailAlreadyInUse  = "auth/email-already-in-use"
	CodeInvalidEmail       = "auth/invalid-email"
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodeInvalidCredential  = "auth/invalid-credential"
	CodeUserDisabled       = "auth/user-disabled"
	CodeTooManyRequests    = "auth/too-many-requests"
	CodeOperationNotAllow  = "auth/operation-not-allowed"
	CodeNetworkRequestFail = "auth/network-request-failed"
	CodeInternalError      = "auth/internal-error"
)

// ErrorKind classifies the errors surfaced by the form.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindValidation          ErrorKind = "VALIDATION_ERROR"
	KindWeakCredential      ErrorKind = "WEAK_CREDENTIAL"
	KindDuplicateAccount    ErrorKind = "DUPLICATE_ACCOUNT"
	KindMalformedEmail      ErrorKind = "MALFORMED_EMAIL"
	KindAuthFailureGeneric  ErrorKind = "AUTH_FAILURE"
	KindProfileWriteFailure ErrorKind = "PROFILE_WRITE_FAILURE"
	KindSubmitInProgress    ErrorKind = "SUBMIT_IN_PROGRESS"
)

// User facing messages.
const (
	MsgNameRequired      = "Full name is required."
	MsgAgeRequirement    = "You must be at least 18 years old to sign up."
	MsgInvalidPhone      = "Please enter a valid phone number."
	MsgInvalidEmail      = "Please enter a valid email address."
	MsgPasswordTooShort  = "Password should be at least 6 characters."
	MsgTermsRequired     = "You must agree to the terms and conditions to sign up."
	MsgSignInFailed      = "Failed to sign in. Please check your email and password."
	MsgFederatedFailed   = "Failed to sign in with Google. Please try again."
	MsgEmailAlreadyInUse = "An account with this email already exists. Please sign in instead."
	MsgWeakPassword      = "Password should be at least 6 characters."
	MsgSignUpFailed      = "Failed to create an account. Please try again."
	MsgSubmitInProgress  = "A request is already in progress."
)

// ErrSubmitInProgress is returned when an acquisition is already running for
// the form.
var ErrSubmitInProgress = goerrors.New(MsgSubmitInProgress, goerrors.CategoryOperation).
	WithTextCode(string(KindSubmitInProgress)).
	WithCode(goerrors.CodeConflict)

// ProviderError captures normalized identity provider response details.
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	scope := "provider"
	if e.Provider != "" && e.Operation != "" {
		scope = fmt.Sprintf("%s %s", e.Provider, e.Operation)
	} else if e.Provider != "" {
		scope = e.Provider
	}

	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s failed: %s (%s)", scope, e.Description, e.Code)
	case e.Code != "":
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	case e.Description != "":
		return fmt.Sprintf("%s failed: %s", scope, e.Description)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}
	return fmt.Sprintf("%s failed", scope)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderCode returns the provider error code carried by err, if any.
func ProviderCode(err error) string {
	for depth := 0; err != nil && depth < 8; depth++ {
		var perr *ProviderError
		if errors.As(err, &perr) && perr != nil {
			return perr.Code
		}
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr == nil {
			return ""
		}
		err = richErr.Source
	}
	return ""
}

// KindOf returns the classification of an error produced by the form.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil && richErr.TextCode != "" {
		return ErrorKind(richErr.TextCode)
	}
	return KindAuthFailureGeneric
}

// MessageOf returns the display message of an error produced by the form.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr.Message
	}
	return err.Error()
}

// ClassifySignUpError maps a sign-up failure into its display error.
// Unrecognized codes fall back to the generic sign-up failure.
func ClassifySignUpError(err error) *goerrors.Error {
	switch ProviderCode(err) {
	case CodeWeakPassword:
		return newAuthError(KindWeakCredential, MsgWeakPassword, err)
	case CodeEmailAlreadyInUse:
		return newAuthError(KindDuplicateAccount, MsgEmailAlreadyInUse, err)
	case CodeInvalidEmail:
		return newAuthError(KindMalformedEmail, MsgInvalidEmail, err)
	default:
		return newAuthError(KindAuthFailureGeneric, MsgSignUpFailed, err)
	}
}

// ClassifySignInError maps a password sign-in failure. Provider detail is
// kept as the error source but never reaches the message.
func ClassifySignInError(err error) *goerrors.Error {
	return newAuthError(KindAuthFailureGeneric, MsgSignInFailed, err)
}

// ClassifyFederatedError maps a federated sign-in failure.
func ClassifyFederatedError(err error) *goerrors.Error {
	return newAuthError(KindAuthFailureGeneric, MsgFederatedFailed, err)
}

func newAuthError(kind ErrorKind, message string, source error) *goerrors.Error {
	category := goerrors.CategoryAuth
	code := goerrors.CodeUnauthorized
	switch kind {
	case KindValidation, KindWeakCredential, KindMalformedEmail:
		category = goerrors.CategoryValidation
		code = goerrors.CodeBadRequest
	case KindDuplicateAccount:
		category = goerrors.CategoryConflict
		code = goerrors.CodeConflict
	case KindProfileWriteFailure:
		category = goerrors.CategoryInternal
		code = 0
	}

	e := goerrors.New(message, category).WithTextCode(string(kind))
	if code != 0 {
		e = e.WithCode(code)
	}
	if source != nil {
		e.Source = source
		if providerCode := ProviderCode(source); providerCode != "" {
			e = e.WithMetadata(map[string]any{"provider_code": providerCode})
		}
	}
	return e
}
