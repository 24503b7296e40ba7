package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStorageOperation(t *testing.T) {
	before := testutil.ToFloat64(StorageOperations.WithLabelValues("sign", "azure", "failure"))

	RecordStorageOperation("sign", "azure", false)

	if got := testutil.ToFloat64(StorageOperations.WithLabelValues("sign", "azure", "failure")); got != before+1 {
		t.Errorf("StorageOperations = %v, want %v", got, before+1)
	}
}

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(ExtractRequests.WithLabelValues("s3", "success"))

	RecordRequest("s3", true)
	RecordRequest("s3", true)

	if got := testutil.ToFloat64(ExtractRequests.WithLabelValues("s3", "success")); got != before+2 {
		t.Errorf("ExtractRequests = %v, want %v", got, before+2)
	}
}

func TestRecordProbe(t *testing.T) {
	before := testutil.ToFloat64(ProbeResults.WithLabelValues(ProbeSkipped))

	RecordProbe(ProbeSkipped)

	if got := testutil.ToFloat64(ProbeResults.WithLabelValues(ProbeSkipped)); got != before+1 {
		t.Errorf("ProbeResults = %v, want %v", got, before+1)
	}
}
