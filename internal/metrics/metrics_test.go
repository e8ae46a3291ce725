package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	before := testutil.ToFloat64(ManifestsTotal.WithLabelValues("PER-CO-TEST", "csv", "processed"))
	r.RecordManifest("PER-CO-TEST", "csv", "processed", 20*time.Millisecond)
	if got := testutil.ToFloat64(ManifestsTotal.WithLabelValues("PER-CO-TEST", "csv", "processed")); got != before+1 {
		t.Fatalf("ManifestsTotal = %v, want %v", got, before+1)
	}

	crates := testutil.ToFloat64(CratesTotal.WithLabelValues("PER-CO-TEST"))
	r.RecordContents("PER-CO-TEST", 2, 12)
	if got := testutil.ToFloat64(CratesTotal.WithLabelValues("PER-CO-TEST")); got != crates+12 {
		t.Fatalf("CratesTotal = %v, want %v", got, crates+12)
	}

	warnings := testutil.ToFloat64(WarningsTotal.WithLabelValues("PER-CO-TEST"))
	r.RecordWarnings("PER-CO-TEST", 0)
	r.RecordWarnings("PER-CO-TEST", 3)
	if got := testutil.ToFloat64(WarningsTotal.WithLabelValues("PER-CO-TEST")); got != warnings+3 {
		t.Fatalf("WarningsTotal = %v, want %v", got, warnings+3)
	}
}
