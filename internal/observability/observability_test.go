package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

func TestMetricsSnapshot(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordRequest("/tickets", "GET", 200, 4*time.Millisecond)
	metrics.RecordRequest("/tickets", "GET", 200, 2*time.Millisecond)
	metrics.RecordTransition("claim", true)
	metrics.RecordTransition("claim", false)
	metrics.RecordError("/tickets", "POST", "VALIDATION_FAILED")

	snap := metrics.Snapshot()
	if snap.Requests["/tickets|GET|200"] != 2 {
		t.Errorf("requests = %v", snap.Requests)
	}
	if got := snap.AvgLatencyMS["/tickets|GET|200"]; got != 3 {
		t.Errorf("avg latency = %v", got)
	}
	if snap.Transitions["claim|ok"] != 1 || snap.Transitions["claim|rejected"] != 1 {
		t.Errorf("transitions = %v", snap.Transitions)
	}
	if snap.Errors["/tickets|POST|VALIDATION_FAILED"] != 1 {
		t.Errorf("errors = %v", snap.Errors)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	if len(nilMetrics.Snapshot().Requests) != 0 {
		t.Error("nil metrics should be a no-op")
	}
}

func TestRequestLoggerUsesRoutePattern(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/abc", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := metrics.Snapshot().Requests["/tickets/:id|GET|204"]; got != 1 {
		t.Errorf("requests = %v", metrics.Snapshot().Requests)
	}
}

func TestRequestLoggerRecordsErrorStatus(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		}
		return nil
	})
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/missing", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := metrics.Snapshot().Requests["/tickets/:id|GET|404"]; got != 1 {
		t.Errorf("requests = %v", metrics.Snapshot().Requests)
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Core().Enabled(zap.InfoLevel) || logger.Core().Enabled(zap.DebugLevel) {
		t.Error("expected info level")
	}
}
