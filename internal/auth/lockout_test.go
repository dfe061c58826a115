package auth_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/user"
)

var _ = Describe("Lockout", func() {
	var (
		store   *mockUserStore
		lockout *auth.Lockout
		subject *user.User
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMockUserStore()
		subject = store.add(&user.User{Username: "bob", Email: "bob@example.com", IsActive: true})
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		lockout = auth.NewLockout(store, 5, 30*time.Minute, logger)
	})

	Describe("RecordFailure", func() {
		It("increments the attempt counter without locking below the threshold", func() {
			for i := 0; i < 4; i++ {
				fresh, err := store.FindByID(ctx, subject.ID)
				Expect(err).ToNot(HaveOccurred())
				Expect(lockout.RecordFailure(ctx, fresh)).To(Succeed())
			}

			fresh, err := store.FindByID(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(fresh.FailedAttempts).To(Equal(4))
			Expect(fresh.LockedUntil).To(BeNil())
			Expect(lockout.IsLocked(fresh)).To(BeFalse())
		})

		It("locks on the fifth failure for the configured duration", func() {
			for i := 0; i < 5; i++ {
				fresh, err := store.FindByID(ctx, subject.ID)
				Expect(err).ToNot(HaveOccurred())
				Expect(lockout.RecordFailure(ctx, fresh)).To(Succeed())
			}

			fresh, err := store.FindByID(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(fresh.FailedAttempts).To(Equal(5))
			Expect(fresh.LockedUntil).ToNot(BeNil())
			Expect(*fresh.LockedUntil).To(BeTemporally("~", time.Now().Add(30*time.Minute), 5*time.Second))
			Expect(lockout.IsLocked(fresh)).To(BeTrue())
		})
	})

	Describe("IsLocked", func() {
		It("reports unlocked once the window has passed", func() {
			past := time.Now().Add(-time.Minute)
			subject.FailedAttempts = 5
			subject.LockedUntil = &past

			fresh, err := store.FindByID(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(lockout.IsLocked(fresh)).To(BeFalse())
			// expiry is lazy: the stale counter survives until the next
			// successful login
			Expect(fresh.FailedAttempts).To(Equal(5))
		})
	})

	Describe("RecordSuccess", func() {
		It("clears the counter and the lock", func() {
			until := time.Now().Add(10 * time.Minute)
			subject.FailedAttempts = 5
			subject.LockedUntil = &until

			Expect(lockout.RecordSuccess(ctx, subject)).To(Succeed())

			fresh, err := store.FindByID(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(fresh.FailedAttempts).To(Equal(0))
			Expect(fresh.LockedUntil).To(BeNil())
		})
	})
})
