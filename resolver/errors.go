package resolver

import "errors"

// Error kinds per the error taxonomy: decode/transport failures are
// tried against the next candidate; ResolveLoop/ReferralExhausted/Bogus
// are fatal to the resolve in progress.
var (
	ErrFormat            = errors.New("resolver: malformed response")
	ErrServerFailure     = errors.New("resolver: server failure")
	ErrNxDomain          = errors.New("resolver: name does not exist")
	ErrResolveLoop       = errors.New("resolver: resolve loop detected")
	ErrReferralExhausted = errors.New("resolver: too many referrals")
	ErrBogus             = errors.New("resolver: response failed DNSSEC validation")
	ErrIndeterminate     = errors.New("resolver: DNSSEC validation status indeterminate")
	ErrNoProgress        = errors.New("resolver: response was neither an answer nor a referral")
	ErrNoNameservers     = errors.New("resolver: no nameservers available")
)
