package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/draganm/primes/internal/db"
	"github.com/draganm/primes/internal/server"
	"github.com/draganm/primes/pkg/client"
)

var _ = Describe("HTTPClient", func() {
	var (
		ctx context.Context
		c   client.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		srv, err := server.NewWithStore(&server.Config{MaxCount: 500}, db.NewMemoryStore())
		Expect(err).NotTo(HaveOccurred())
		ts := httptest.NewServer(srv.Handler())
		DeferCleanup(ts.Close)
		c = client.NewClientWithOptions(ts.URL+"/", 0, 5*time.Second)
	})

	It("should check health", func() {
		health, err := c.Health(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(health.Status).To(Equal("healthy"))
		Expect(health.Store).To(Equal("memory"))
	})

	It("should create, fetch and list runs", func() {
		run, err := c.CreateRun(ctx, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(run.Primes).To(Equal([]int64{2, 3, 5, 7, 11}))

		fetched, err := c.GetRun(ctx, run.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fetched.OutputSHA256).To(Equal(run.OutputSHA256))

		list, err := c.ListRuns(ctx, &client.ListRunsFilter{Limit: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Runs).To(HaveLen(1))
		Expect(list.Runs[0].ID).To(Equal(run.ID))
	})

	It("should stream primes", func() {
		found, err := c.Primes(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(10))
		Expect(found[9]).To(Equal(29))

		found, err = c.Primes(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeEmpty())
	})

	It("should classify API errors", func() {
		_, err := c.GetRun(ctx, uuid.New())
		Expect(client.IsNotFound(err)).To(BeTrue())
		Expect(client.IsServerError(err)).To(BeFalse())

		_, err = c.CreateRun(ctx, 501)
		Expect(client.IsBadRequest(err)).To(BeTrue())

		_, err = c.Divide(ctx, 9, 0)
		Expect(client.IsDivideByZero(err)).To(BeTrue())

		q, err := c.Divide(ctx, 9, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(q).To(Equal(4))
	})

	It("should report network errors", func() {
		unreachable := client.NewClientWithOptions("http://127.0.0.1:1", 0, time.Second)
		_, err := unreachable.Health(ctx)
		Expect(client.IsNetworkError(err)).To(BeTrue())
	})

	It("should surface non-JSON error bodies", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway exploded", http.StatusBadGateway)
		}))
		defer ts.Close()

		_, err := client.NewClientWithOptions(ts.URL, 0, time.Second).Health(ctx)
		var apiErr *client.APIError
		Expect(err).To(BeAssignableToTypeOf(apiErr))
		Expect(client.IsServerError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("gateway exploded"))
	})
})

var _ = Describe("MockClient", func() {
	It("should behave like the server", func() {
		ctx := context.Background()
		m := client.NewMockClient()

		run, err := m.CreateRun(ctx, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(run.Primes).To(Equal([]int64{2, 3, 5}))

		_, err = m.GetRun(ctx, uuid.New())
		Expect(client.IsNotFound(err)).To(BeTrue())

		_, err = m.Divide(ctx, 1, 0)
		Expect(client.IsDivideByZero(err)).To(BeTrue())

		found, err := m.Primes(ctx, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeEmpty())
	})

	It("should use configured behaviour", func() {
		m := client.NewMockClient()
		m.HealthFunc = func(ctx context.Context) (*client.HealthResponse, error) {
			return nil, client.ErrServerError
		}
		_, err := m.Health(context.Background())
		Expect(client.IsServerError(err)).To(BeTrue())
	})
})
