package server

import (
	auth "github.com/goliatone/go-auth-gate"
	"github.com/goliatone/go-auth-gate/internal/config"
	"github.com/goliatone/go-auth-gate/provider/auth0"
	"github.com/goliatone/go-auth-gate/provider/firebase"
)

// NewVerifier builds the token verifier selected by cfg. The returned
// close function releases background key refreshers.
func NewVerifier(cfg config.Server, logger auth.Logger) (auth.TokenVerifier, func(), error) {
	var (
		verifiers []auth.TokenVerifier
		closers   []func()
	)

	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if cfg.UsesFirebase() {
		fbCfg := firebase.DefaultConfig(cfg.FirebaseProjectID)
		fbCfg.Logger = logger
		fb, err := firebase.NewTokenVerifier(fbCfg)
		if err != nil {
			return nil, closeAll, err
		}
		verifiers = append(verifiers, fb)
		closers = append(closers, fb.Close)
	}

	if cfg.UsesAuth0() {
		a0Cfg := auth0.DefaultConfig(cfg.Auth0Domain, cfg.Auth0Audience)
		a0Cfg.Namespace = cfg.Auth0Namespace
		a0, err := auth0.NewTokenVerifier(a0Cfg)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		verifiers = append(verifiers, a0)
	}

	if len(verifiers) == 1 {
		return verifiers[0], closeAll, nil
	}
	return auth.NewMultiTokenVerifier(verifiers...), closeAll, nil
}
