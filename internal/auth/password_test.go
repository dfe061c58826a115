package auth_test

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/pbkdf2"

	"github.com/frahmantamala/identity-service/internal/auth"
)

// legacyDigest builds a passlib-format pbkdf2_sha256 digest for test
// fixtures.
func legacyDigest(password string, rounds int, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, rounds, sha256.Size, sha256.New)
	enc := func(b []byte) string {
		return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
	}
	return fmt.Sprintf("pbkdf2_sha256$%d$%s$%s", rounds, enc(salt), enc(key))
}

var _ = Describe("PasswordHasher", func() {
	var hasher *auth.PasswordHasher

	BeforeEach(func() {
		// low cost keeps the suite fast
		hasher = auth.NewPasswordHasher(4)
	})

	Describe("Hash", func() {
		It("produces a digest that verifies against the original password", func() {
			digest, err := hasher.Hash("correct horse battery staple")

			Expect(err).ToNot(HaveOccurred())
			Expect(digest).ToNot(BeEmpty())
			Expect(hasher.Verify("correct horse battery staple", digest)).To(BeTrue())
		})

		It("produces distinct digests for the same password", func() {
			first, err := hasher.Hash("same-password")
			Expect(err).ToNot(HaveOccurred())
			second, err := hasher.Hash("same-password")
			Expect(err).ToNot(HaveOccurred())

			Expect(first).ToNot(Equal(second))
			Expect(hasher.Verify("same-password", first)).To(BeTrue())
			Expect(hasher.Verify("same-password", second)).To(BeTrue())
		})
	})

	Describe("Verify", func() {
		It("rejects a wrong password", func() {
			digest, err := hasher.Hash("right")
			Expect(err).ToNot(HaveOccurred())

			Expect(hasher.Verify("wrong", digest)).To(BeFalse())
		})

		It("rejects an empty digest", func() {
			Expect(hasher.Verify("anything", "")).To(BeFalse())
		})

		It("rejects a malformed digest without erroring", func() {
			Expect(hasher.Verify("anything", "not-a-digest")).To(BeFalse())
			Expect(hasher.Verify("anything", "$2a$broken")).To(BeFalse())
		})

		Context("with a legacy pbkdf2_sha256 digest", func() {
			salt := []byte("0123456789abcdef")

			It("verifies the original password", func() {
				digest := legacyDigest("migrated-password", 29000, salt)

				Expect(hasher.Verify("migrated-password", digest)).To(BeTrue())
			})

			It("rejects a wrong password", func() {
				digest := legacyDigest("migrated-password", 29000, salt)

				Expect(hasher.Verify("other-password", digest)).To(BeFalse())
			})

			It("rejects a tampered digest", func() {
				digest := legacyDigest("migrated-password", 29000, salt)
				tampered := digest[:len(digest)-2] + "xx"

				Expect(hasher.Verify("migrated-password", tampered)).To(BeFalse())
			})

			It("rejects a digest with a bad rounds field", func() {
				Expect(hasher.Verify("pw", "pbkdf2_sha256$zero$c2FsdA$ZGlnZXN0")).To(BeFalse())
			})

			It("rejects a digest with missing parts", func() {
				Expect(hasher.Verify("pw", "pbkdf2_sha256$29000$onlysalt")).To(BeFalse())
			})
		})
	})
})
