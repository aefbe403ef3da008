package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draganm/primes/internal/db"
	"github.com/draganm/primes/internal/metrics"
	"github.com/draganm/primes/internal/models"
	"github.com/draganm/primes/internal/numio"
	"github.com/draganm/primes/internal/primes"
	"github.com/draganm/primes/internal/utils"
)

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RunsFailed.WithLabelValues("bad_request").Inc()
		s.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if req.Count > s.config.MaxCount {
		metrics.RunsFailed.WithLabelValues("too_large").Inc()
		s.writeError(w, http.StatusBadRequest, "count exceeds maximum", map[string]interface{}{
			"count":     req.Count,
			"max_count": s.config.MaxCount,
		})
		return
	}

	start := time.Now()
	found, err := primes.First(r.Context(), req.Count)
	elapsed := time.Since(start)
	metrics.EnumerationDuration.WithLabelValues("runs").Observe(elapsed.Seconds())
	if err != nil {
		// the client went away
		metrics.RunsFailed.WithLabelValues("cancelled").Inc()
		slog.Warn("Enumeration aborted", "count", req.Count, "error", err)
		return
	}

	run := &models.Run{
		Count:      req.Count,
		Primes:     make([]int64, len(found)),
		ClientAddr: clientHost(r),
		DurationMs: elapsed.Milliseconds(),
	}
	for i, p := range found {
		run.Primes[i] = int64(p)
	}
	if len(run.Primes) > 0 {
		last := run.Primes[len(run.Primes)-1]
		run.LastPrime = &last
	}
	run.OutputSHA256 = utils.OutputSHA256(run.Primes)

	if err := s.store.CreateRun(r.Context(), run); err != nil {
		metrics.RunsFailed.WithLabelValues("store").Inc()
		slog.Error("Failed to record run", "count", req.Count, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to record run", nil)
		return
	}

	metrics.RunsCreated.WithLabelValues(s.store.Name()).Inc()
	metrics.PrimesEmitted.Add(float64(len(run.Primes)))
	metrics.RequestedCount.Observe(float64(req.Count))

	slog.Info("Run recorded",
		"run_id", run.ID,
		"count", run.Count,
		"duration_ms", run.DurationMs,
	)

	s.writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultListLimit
	if l := query.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit", map[string]interface{}{"limit": l})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	offset := 0
	if o := query.Get("offset"); o != "" {
		parsed, err := strconv.Atoi(o)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid offset", map[string]interface{}{"offset": o})
			return
		}
		offset = parsed
	}

	runs, err := s.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list runs", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, models.RunList{
		Runs:   runs,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	runID, err := uuid.Parse(idStr)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid run ID", map[string]interface{}{"id": idStr})
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if errors.Is(err, db.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, "Run not found", map[string]interface{}{"run_id": runID})
		return
	}
	if err != nil {
		slog.Error("Failed to get run", "run_id", runID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to get run", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// handlePrimes streams the same text the CLI prints
func (s *Server) handlePrimes(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), map[string]interface{}{"count": r.URL.Query().Get("count")})
		return
	}
	if count > s.config.MaxCount {
		s.writeError(w, http.StatusBadRequest, "count exceeds maximum", map[string]interface{}{
			"count":     count,
			"max_count": s.config.MaxCount,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	out := bufio.NewWriter(w)

	start := time.Now()
	err = primes.Print(r.Context(), out, count)
	metrics.EnumerationDuration.WithLabelValues("primes").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("Streaming primes aborted", "count", count, "error", err)
		return
	}
	if err := out.Flush(); err != nil {
		slog.Warn("Failed to flush primes", "count", count, "error", err)
		return
	}
	metrics.PrimesEmitted.Add(float64(max(count, 0)))
}

func (s *Server) handleDivide(w http.ResponseWriter, r *http.Request) {
	x, err := queryInt(r, "x")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), map[string]interface{}{"x": r.URL.Query().Get("x")})
		return
	}
	y, err := queryInt(r, "y")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), map[string]interface{}{"y": r.URL.Query().Get("y")})
		return
	}

	q, err := numio.SafeDivide(x, y)
	if err != nil {
		metrics.DivisionsByZero.Inc()
		s.writeError(w, http.StatusBadRequest, err.Error(), map[string]interface{}{"x": x, "y": y})
		return
	}

	s.writeJSON(w, http.StatusOK, models.DivideResponse{Quotient: q})
}

// queryInt parses a query parameter with the same rules as the CLI input
func queryInt(r *http.Request, name string) (int, error) {
	return numio.ReadInt(strings.NewReader(r.URL.Query().Get(name)))
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
