package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/draganm/primes/internal/db"
	"github.com/draganm/primes/internal/models"
	"github.com/draganm/primes/internal/server"
	"github.com/draganm/primes/internal/utils"
)

// brokenStore fails every operation
type brokenStore struct {
	*db.MemoryStore
}

func (brokenStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func (brokenStore) CreateRun(ctx context.Context, run *models.Run) error {
	return errors.New("connection refused")
}

var _ = Describe("Server", func() {
	var (
		ts    *httptest.Server
		store *db.MemoryStore
	)

	BeforeEach(func() {
		store = db.NewMemoryStore()
		srv, err := server.NewWithStore(&server.Config{MaxCount: 1000}, store)
		Expect(err).NotTo(HaveOccurred())
		ts = httptest.NewServer(srv.Handler())
		DeferCleanup(ts.Close)
	})

	get := func(path string) (*http.Response, string) {
		resp, err := http.Get(ts.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, string(body)
	}

	createRun := func(count int) (*http.Response, models.Run) {
		resp, err := http.Post(ts.URL+"/api/v1/runs", "application/json",
			strings.NewReader(fmt.Sprintf(`{"count": %d}`, count)))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		var run models.Run
		if resp.StatusCode == http.StatusCreated {
			Expect(json.NewDecoder(resp.Body).Decode(&run)).To(Succeed())
		}
		return resp, run
	}

	Describe("health", func() {
		It("should report a healthy in-memory store", func() {
			resp, body := get("/api/v1/health")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"status":"healthy","database":"connected","store":"memory"}`))
		})

		It("should report an unreachable store", func() {
			srv, err := server.NewWithStore(&server.Config{}, brokenStore{db.NewMemoryStore()})
			Expect(err).NotTo(HaveOccurred())
			broken := httptest.NewServer(srv.Handler())
			defer broken.Close()

			resp, err := http.Get(broken.URL + "/api/v1/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("runs", func() {
		It("should enumerate and record a run", func() {
			resp, run := createRun(5)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(run.ID).NotTo(Equal(uuid.Nil))
			Expect(run.Count).To(Equal(5))
			Expect(run.Primes).To(Equal([]int64{2, 3, 5, 7, 11}))
			Expect(*run.LastPrime).To(Equal(int64(11)))
			Expect(run.ClientAddr).To(Equal("127.0.0.1"))
			Expect(utils.VerifyOutputSHA256(run.Primes, run.OutputSHA256)).To(Succeed())

			resp, body := get("/api/v1/runs/" + run.ID.String())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var fetched models.Run
			Expect(json.Unmarshal([]byte(body), &fetched)).To(Succeed())
			Expect(fetched.Primes).To(Equal(run.Primes))
		})

		It("should record an empty run for non positive counts", func() {
			for _, count := range []int{0, -3} {
				resp, run := createRun(count)
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(run.Primes).To(BeEmpty())
				Expect(run.LastPrime).To(BeNil())
			}
		})

		It("should give identical digests for identical counts", func() {
			_, first := createRun(10)
			_, second := createRun(10)
			Expect(first.ID).NotTo(Equal(second.ID))
			Expect(first.OutputSHA256).To(Equal(second.OutputSHA256))
			Expect(first.Primes[9]).To(Equal(int64(29)))
		})

		It("should reject counts above the maximum", func() {
			resp, _ := createRun(1001)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should reject malformed bodies", func() {
			resp, err := http.Post(ts.URL+"/api/v1/runs", "application/json", strings.NewReader(`{"count": "abc"}`))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should list runs newest first", func() {
			_, first := createRun(1)
			time.Sleep(2 * time.Millisecond)
			_, second := createRun(2)

			resp, body := get("/api/v1/runs?limit=1")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var list models.RunList
			Expect(json.Unmarshal([]byte(body), &list)).To(Succeed())
			Expect(list.Limit).To(Equal(1))
			Expect(list.Runs).To(HaveLen(1))
			Expect(list.Runs[0].ID).To(Equal(second.ID))

			_, body = get("/api/v1/runs?limit=1&offset=1")
			Expect(json.Unmarshal([]byte(body), &list)).To(Succeed())
			Expect(list.Runs[0].ID).To(Equal(first.ID))
		})

		It("should reject invalid paging", func() {
			resp, _ := get("/api/v1/runs?limit=zero")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp, _ = get("/api/v1/runs?offset=-1")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should return 404 for unknown runs and 400 for bad IDs", func() {
			resp, body := get("/api/v1/runs/" + uuid.New().String())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(body).To(ContainSubstring("Run not found"))

			resp, _ = get("/api/v1/runs/not-a-uuid")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should fail when the store fails", func() {
			srv, err := server.NewWithStore(&server.Config{}, brokenStore{db.NewMemoryStore()})
			Expect(err).NotTo(HaveOccurred())
			broken := httptest.NewServer(srv.Handler())
			defer broken.Close()

			resp, err := http.Post(broken.URL+"/api/v1/runs", "application/json", strings.NewReader(`{"count": 3}`))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("primes", func() {
		It("should stream the CLI output", func() {
			resp, body := get("/api/v1/primes?count=5")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/plain"))
			Expect(body).To(Equal("2\n3\n5\n7\n11\n"))
		})

		It("should return an empty body for zero", func() {
			resp, body := get("/api/v1/primes?count=0")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(BeEmpty())
		})

		It("should reject non-numeric counts", func() {
			resp, body := get("/api/v1/primes?count=abc")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring("cannot enter non-numeric input"))

			resp, _ = get("/api/v1/primes")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("divide", func() {
		It("should truncate toward zero", func() {
			resp, body := get("/api/v1/divide?x=-7&y=2")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"quotient": -3}`))
		})

		It("should refuse a zero divisor", func() {
			resp, body := get("/api/v1/divide?x=1&y=0")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring("cannot divide by 0"))
		})
	})

	It("should expose prometheus metrics", func() {
		createRun(3)
		resp, body := get("/api/v1/metrics")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("primes_runs_created_total"))
		Expect(body).To(ContainSubstring("primes_api_requests_total"))
	})
})

var _ = Describe("Run", func() {
	It("should serve on a random port and shut down on cancel", func() {
		srv, err := server.New(&server.Config{Port: 0})
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- srv.Run(ctx)
		}()

		Eventually(func() error {
			if srv.Port() == 0 {
				return errors.New("not listening yet")
			}
			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/v1/health", srv.Port()))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server not healthy: %d", resp.StatusCode)
			}
			return nil
		}, 5*time.Second, 50*time.Millisecond).Should(Succeed())

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
