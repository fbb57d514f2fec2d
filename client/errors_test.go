package client

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ProviderError
		want string
	}{
		{name: "nil", err: nil, want: "provider error"},
		{name: "code and description", err: &ProviderError{Provider: "firebase", Operation: "sign_in", Code: "auth/x", Description: "bad"}, want: "firebase sign_in failed: bad (auth/x)"},
		{name: "code only", err: &ProviderError{Provider: "firebase", Code: "auth/x"}, want: "firebase failed: auth/x"},
		{name: "wrapped", err: &ProviderError{Err: errors.New("dial tcp")}, want: "provider failed: dial tcp"},
		{name: "empty", err: &ProviderError{}, want: "provider failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestProviderCode(t *testing.T) {
	perr := &ProviderError{Code: CodeWeakPassword}

	assert.Equal(t, CodeWeakPassword, ProviderCode(perr))
	assert.Equal(t, CodeWeakPassword, ProviderCode(fmt.Errorf("wrapped: %w", perr)))
	assert.Equal(t, CodeWeakPassword, ProviderCode(ClassifySignUpError(perr)))
	assert.Empty(t, ProviderCode(errors.New("plain")))
	assert.Empty(t, ProviderCode(nil))
}

func TestClassifySignUpError_Metadata(t *testing.T) {
	err := ClassifySignUpError(&ProviderError{Code: CodeEmailAlreadyInUse})
	require.NotNil(t, err)

	assert.Equal(t, MsgEmailAlreadyInUse, err.Message)
	assert.Equal(t, string(KindDuplicateAccount), err.TextCode)
	assert.Equal(t, goerrors.CategoryConflict, err.Category)
	assert.Equal(t, CodeEmailAlreadyInUse, err.Metadata["provider_code"])
}

func TestKindAndMessageOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Empty(t, MessageOf(nil))

	plain := errors.New("network down")
	assert.Equal(t, KindAuthFailureGeneric, KindOf(plain))
	assert.Equal(t, "network down", MessageOf(plain))

	busy := ErrSubmitInProgress.Clone()
	assert.Equal(t, KindSubmitInProgress, KindOf(busy))
	assert.Equal(t, MsgSubmitInProgress, MessageOf(busy))
}
