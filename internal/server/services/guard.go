package services

import (
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Outcome is the three-way result of evaluating a share link against a
// requester and the current time.
type Outcome int

const (
	OutcomeGranted Outcome = iota
	// OutcomeExpired is distinct from not-found so the transport layer
	// can say "expired" instead of "invalid" without confirming whether
	// the token was ever valid beyond that.
	OutcomeExpired
	OutcomeDeniedNotFound
	OutcomeDeniedAuthRequired
	OutcomeDeniedNotAuthorized
)

// Decision carries the evaluation outcome and, when granted, the
// permission tier ceiling of the link. The guard does not know what
// operation the caller intends; download handlers must additionally check
// Tier.AllowsDownload.
type Decision struct {
	Outcome Outcome
	Tier    models.Permission
}

// Granted reports whether the evaluation succeeded.
func (d Decision) Granted() bool {
	return d.Outcome == OutcomeGranted
}

// Err maps a denial to its sentinel error, or nil when granted.
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeGranted:
		return nil
	case OutcomeExpired:
		return common.ErrorLinkExpired
	case OutcomeDeniedAuthRequired:
		return common.ErrorAuthenticationRequired
	case OutcomeDeniedNotAuthorized:
		return common.ErrorNotAuthorized
	default:
		return common.ErrorNotFound
	}
}

// AccessGuard decides whether a requester may use a share link. It is a
// pure function of its inputs; audit mutations happen elsewhere and only
// after a granted decision.
type AccessGuard struct{}

func NewAccessGuard() *AccessGuard {
	return &AccessGuard{}
}

// Evaluate runs the ordered checks, short-circuiting on first failure:
// missing link, expiry, then the guest binding (requester must be
// authenticated and must be the bound account). Anonymous-token links
// require no identity.
func (g *AccessGuard) Evaluate(link *models.ShareLink, requesterID *string, now time.Time) Decision {
	if link == nil {
		return Decision{Outcome: OutcomeDeniedNotFound}
	}

	if link.IsExpired(now) {
		return Decision{Outcome: OutcomeExpired}
	}

	if link.IsGuestBound() {
		if requesterID == nil {
			return Decision{Outcome: OutcomeDeniedAuthRequired}
		}
		if *requesterID != *link.GuestUserID {
			return Decision{Outcome: OutcomeDeniedNotAuthorized}
		}
	}

	return Decision{Outcome: OutcomeGranted, Tier: link.Permission}
}
