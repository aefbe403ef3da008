package primes_test

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/draganm/primes/internal/primes"
)

// slowIsPrime is an independent oracle using the remainder operator
func slowIsPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i < n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

var _ = Describe("IsPrime", func() {
	It("should agree with a naive remainder test", func() {
		for n := 2; n <= 2000; n++ {
			Expect(primes.IsPrime(n)).To(Equal(slowIsPrime(n)), "candidate %d", n)
		}
	})

	It("should never flag 2 or 3 as composite", func() {
		Expect(primes.IsPrime(2)).To(BeTrue())
		Expect(primes.IsPrime(3)).To(BeTrue())
	})

	It("should catch squares of primes", func() {
		for _, n := range []int{4, 9, 25, 49, 121, 169, 10201} {
			Expect(primes.IsPrime(n)).To(BeFalse(), "candidate %d", n)
		}
	})

	It("should reject values below 2", func() {
		Expect(primes.IsPrime(1)).To(BeFalse())
		Expect(primes.IsPrime(0)).To(BeFalse())
		Expect(primes.IsPrime(-7)).To(BeFalse())
	})
})

var _ = Describe("Enumerate", func() {
	ctx := context.Background()

	DescribeTable("first n primes",
		func(n int, expected []int) {
			found, err := primes.First(ctx, n)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(expected))
		},
		Entry("one", 1, []int{2}),
		Entry("five", 5, []int{2, 3, 5, 7, 11}),
		Entry("ten", 10, []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}),
	)

	DescribeTable("non positive counts produce nothing",
		func(n int) {
			called := false
			err := primes.Enumerate(ctx, n, func(int) error {
				called = true
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(called).To(BeFalse())

			found, err := primes.First(ctx, n)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		},
		Entry("zero", 0),
		Entry("negative", -4),
	)

	It("should emit consecutive primes in strictly increasing order", func() {
		found, err := primes.First(ctx, 300)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(300))
		Expect(found[299]).To(Equal(1987))

		for i, p := range found {
			Expect(slowIsPrime(p)).To(BeTrue())
			if i == 0 {
				Expect(p).To(Equal(2))
				continue
			}
			Expect(p).To(BeNumerically(">", found[i-1]))
			for between := found[i-1] + 1; between < p; between++ {
				Expect(slowIsPrime(between)).To(BeFalse(), "missed prime %d", between)
			}
		}
	})

	It("should stop and return the emit error", func() {
		stop := errors.New("stop")
		count := 0
		err := primes.Enumerate(ctx, 10, func(int) error {
			count++
			if count == 3 {
				return stop
			}
			return nil
		})
		Expect(err).To(MatchError(stop))
		Expect(count).To(Equal(3))
	})

	It("should honour context cancellation", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := primes.First(cancelled, 5)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("should produce identical output on repeated runs", func() {
		var first, second bytes.Buffer
		Expect(primes.Print(ctx, &first, 25)).To(Succeed())
		Expect(primes.Print(ctx, &second, 25)).To(Succeed())
		Expect(first.String()).To(Equal(second.String()))
		Expect(first.String()).To(HavePrefix("2\n3\n5\n7\n11\n"))
		Expect(first.String()).To(HaveSuffix("97\n"))
	})
})
