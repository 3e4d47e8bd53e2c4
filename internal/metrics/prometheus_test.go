package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	Init()
	QuestionTotal.WithLabelValues("answered").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "legalease_question_total")
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(MatchTotal.WithLabelValues("miss"))
	MatchTotal.WithLabelValues("miss").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MatchTotal.WithLabelValues("miss")))
}
