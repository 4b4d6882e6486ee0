package service

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/saudijob/jobboard/internal/core/domain"
)

// AdminVerifier checks a presented admin override key.
type AdminVerifier interface {
	Verify(key string) bool
}

type staticAdminKey struct {
	digest [sha256.Size]byte
}

// NewStaticAdminKey compares keys against secret in constant time. Both
// sides are hashed first so the comparison does not leak the secret length.
// An empty secret disables the admin override.
func NewStaticAdminKey(secret string) AdminVerifier {
	if secret == "" {
		return disabledAdmin{}
	}
	return staticAdminKey{digest: sha256.Sum256([]byte(secret))}
}

func (k staticAdminKey) Verify(key string) bool {
	if key == "" {
		return false
	}
	d := sha256.Sum256([]byte(key))
	return subtle.ConstantTimeCompare(d[:], k.digest[:]) == 1
}

type bcryptAdminKey struct {
	hash []byte
}

// NewBcryptAdminKey verifies keys against a bcrypt hash so the plain secret
// never has to be configured on the server.
func NewBcryptAdminKey(hash string) AdminVerifier {
	if hash == "" {
		return disabledAdmin{}
	}
	return bcryptAdminKey{hash: []byte(hash)}
}

func (k bcryptAdminKey) Verify(key string) bool {
	if key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(k.hash, []byte(key)) == nil
}

type disabledAdmin struct{}

func (disabledAdmin) Verify(string) bool { return false }

// OwnershipGuard authorizes mutations of a job record.
//
// This is a low-assurance check by design: ownership is proven only by
// knowing the email address stored on the record, and the admin override
// is a single shared key. There is no rate limiting, audit trail, or token
// expiry here; anyone who learns a record's email can act as its owner.
type OwnershipGuard struct {
	admin AdminVerifier
}

func NewOwnershipGuard(admin AdminVerifier) *OwnershipGuard {
	if admin == nil {
		admin = disabledAdmin{}
	}
	return &OwnershipGuard{admin: admin}
}

// IsAdmin reports whether key is the configured admin secret.
func (g *OwnershipGuard) IsAdmin(key string) bool {
	return g.admin.Verify(key)
}

// Authorize returns nil when adminKey verifies or when callerEmail matches
// the stored email (case-insensitive, surrounding spaces ignored).
func (g *OwnershipGuard) Authorize(job domain.Job, callerEmail, adminKey string) error {
	if g.admin.Verify(adminKey) {
		return nil
	}
	caller := domain.NormalizeEmail(callerEmail)
	if caller != "" && caller == domain.NormalizeEmail(job.Email) {
		return nil
	}
	return domain.ErrUnauthorized
}
