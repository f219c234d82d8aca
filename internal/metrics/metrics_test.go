package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/sequent"
)

func TestMetricsFollowSessionLifecycle(t *testing.T) {
	m := New()
	defer m.Close()

	ctx := context.Background()
	fail := false
	s := sequent.NewSession(ctx, "metrics", sequent.CoordinatorFunc(func(context.Context, string) (string, error) {
		if fail {
			return "", errors.New("down")
		}
		return "ok", nil
	}))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.activeSessions) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := s.Accept(ctx, sequent.Submission{Content: "first", SequenceNumber: 1, EstimatedTotal: 5, ContinuationExpected: true})
	require.NoError(t, err)

	revises := 1
	_, err = s.Accept(ctx, sequent.Submission{Content: "again", SequenceNumber: 2, EstimatedTotal: 5, IsRevision: true, RevisesSequenceNumber: &revises})
	require.NoError(t, err)

	_, err = s.Accept(ctx, sequent.Submission{Content: "", SequenceNumber: 3, EstimatedTotal: 5})
	require.Error(t, err)

	fail = true
	_, err = s.Accept(ctx, sequent.Submission{Content: "lost", SequenceNumber: 3, EstimatedTotal: 5})
	require.Error(t, err)

	require.NoError(t, s.Close(ctx))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.stepsAccepted.WithLabelValues("thought")) == 2 &&
			testutil.ToFloat64(m.stepsAccepted.WithLabelValues("revision")) == 1 &&
			testutil.ToFloat64(m.stepsRejected) == 1 &&
			testutil.ToFloat64(m.delegateFailures) == 1 &&
			testutil.ToFloat64(m.activeSessions) == 0
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return strings.Contains(rec.Body.String(), "sequent_delegate_duration_seconds_count 2")
	}, time.Second, 5*time.Millisecond)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	defer m.Close()
	m.stepsRejected.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sequent_steps_rejected_total 1")
	assert.Contains(t, string(body), "sequent_active_sessions")
	assert.Contains(t, string(body), "go_goroutines")
}
