package observability

import (
	"testing"
	"time"

	"github.com/danmuck/actionwire/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("actiond", "POST", "/v1/actions", 200, 12*time.Millisecond)

	before := testutil.ToFloat64(dispatchTotal.WithLabelValues("echo", "ok"))
	RecordDispatch("echo", "ok", 3*time.Millisecond)
	after := testutil.ToFloat64(dispatchTotal.WithLabelValues("echo", "ok"))
	if after-before != 1 {
		t.Fatalf("dispatch counter delta: got=%v want=1", after-before)
	}

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}
