package xsession

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestECOutcome_String(t *testing.T) {
	cases := map[ECOutcome]string{
		ECSuccess:            "success",
		ECNoSessionSeed:      "no_session_seed",
		ECNoRSAKey:           "no_rsa_key",
		ECNoRSAExponent:      "no_rsa_exponent",
		ECNoCSRFToken:        "no_csrf_token",
		ECInvalidCredentials: "invalid_credentials",
		ECSuspectedAttack:    "suspected_attack",
		ECNetworkError:       "network_error",
		ECUnknownError:       "unknown_error",
	}
	for outcome, want := range cases {
		assert.Equal(t, want, outcome.String())
	}
}

func TestECOutcome_IsSuccess(t *testing.T) {
	assert.True(t, ECSuccess.IsSuccess())

	failures := []ECOutcome{
		ECNoSessionSeed, ECNoRSAKey, ECNoRSAExponent, ECNoCSRFToken,
		ECInvalidCredentials, ECSuspectedAttack, ECNetworkError, ECUnknownError,
	}
	for _, outcome := range failures {
		assert.False(t, outcome.IsSuccess(), outcome.String())
	}
}

func TestUAAPOutcome_String(t *testing.T) {
	cases := map[UAAPOutcome]string{
		UAAPSuccess:            "success",
		UAAPNoLoginToken:       "no_login_token",
		UAAPNoExecutionToken:   "no_execution_token",
		UAAPInvalidCredentials: "invalid_credentials",
		UAAPNetworkError:       "network_error",
		UAAPUnknownError:       "unknown_error",
	}
	for outcome, want := range cases {
		assert.Equal(t, want, outcome.String())
	}
}

func TestSessionCheckOutcome_StillValid(t *testing.T) {
	t.Run("resolved and logged in", func(t *testing.T) {
		o := SessionCheckOutcome{Kind: CheckResolved, LoggedIn: true}
		assert.True(t, o.StillValid())
	})

	t.Run("resolved and logged out", func(t *testing.T) {
		o := SessionCheckOutcome{Kind: CheckResolved, LoggedIn: false}
		assert.False(t, o.StillValid())
	})

	t.Run("network error assumes still valid", func(t *testing.T) {
		o := SessionCheckOutcome{Kind: CheckNetworkError}
		assert.True(t, o.StillValid())
	})

	t.Run("unknown error assumes still valid", func(t *testing.T) {
		o := SessionCheckOutcome{Kind: CheckUnknownError}
		assert.True(t, o.StillValid())
	})
}
