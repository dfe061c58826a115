package auth_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/identity-service/internal/auth"
)

var _ = Describe("TokenManager", func() {
	const secret = "test-secret-with-enough-length-0123456789"

	var manager *auth.TokenManager

	BeforeEach(func() {
		manager = auth.NewTokenManager(secret, 30*time.Minute, 7*24*time.Hour)
	})

	Describe("CreateAccessToken", func() {
		It("round-trips identity claims through Decode", func() {
			claims := auth.IdentityClaims("user-1", "alice", "alice@example.com", false)

			token, err := manager.CreateAccessToken(claims)
			Expect(err).ToNot(HaveOccurred())

			decoded, err := manager.Decode(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoded.Subject).To(Equal("user-1"))
			Expect(decoded.Username).To(Equal("alice"))
			Expect(decoded.Email).To(Equal("alice@example.com"))
			Expect(decoded.IsSuperuser).To(BeFalse())
			Expect(decoded.TokenType).To(Equal(auth.TokenTypeAccess))
		})

		It("stamps the configured expiry", func() {
			token, err := manager.CreateAccessToken(auth.IdentityClaims("user-1", "alice", "", false))
			Expect(err).ToNot(HaveOccurred())

			decoded, err := manager.Decode(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoded.ExpiresAt.Time).To(BeTemporally("~", time.Now().Add(30*time.Minute), 5*time.Second))
		})
	})

	Describe("CreateRefreshToken", func() {
		It("carries the refresh type discriminator", func() {
			token, err := manager.CreateRefreshToken(auth.IdentityClaims("user-1", "alice", "", false))
			Expect(err).ToNot(HaveOccurred())

			decoded, err := manager.Decode(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoded.TokenType).To(Equal(auth.TokenTypeRefresh))
		})
	})

	Describe("CreateActionToken", func() {
		It("carries an arbitrary type discriminator", func() {
			token, err := manager.CreateActionToken(
				auth.IdentityClaims("user-1", "alice", "", false),
				time.Hour, auth.TokenTypeSetPassword)
			Expect(err).ToNot(HaveOccurred())

			decoded, err := manager.Decode(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoded.TokenType).To(Equal(auth.TokenTypeSetPassword))
		})
	})

	Describe("Decode", func() {
		It("returns ErrTokenExpired for a token past its expiry", func() {
			token, err := manager.CreateActionToken(
				auth.IdentityClaims("user-1", "alice", "", false),
				-time.Minute, auth.TokenTypeAccess)
			Expect(err).ToNot(HaveOccurred())

			_, err = manager.Decode(token)
			Expect(err).To(MatchError(auth.ErrTokenExpired))
		})

		It("returns ErrTokenInvalid for a token signed with another secret", func() {
			other := auth.NewTokenManager("another-secret-that-is-long-enough-xyz", time.Minute, time.Hour)
			token, err := other.CreateAccessToken(auth.IdentityClaims("user-1", "alice", "", false))
			Expect(err).ToNot(HaveOccurred())

			_, err = manager.Decode(token)
			Expect(err).To(MatchError(auth.ErrTokenInvalid))
		})

		It("returns ErrTokenInvalid for garbage input", func() {
			_, err := manager.Decode("not.a.jwt")
			Expect(err).To(MatchError(auth.ErrTokenInvalid))

			_, err = manager.Decode("")
			Expect(err).To(MatchError(auth.ErrTokenInvalid))
		})
	})
})
