package treasury

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/optionlab/internal/models"
)

const sampleCSV = `Date,"1 Mo","2 Mo","3 Mo","4 Mo","6 Mo","1 Yr","2 Yr","3 Yr","5 Yr","7 Yr","10 Yr","20 Yr","30 Yr"
10/16/2025,4.21,4.10,4.02,3.95,3.78,3.55,3.42,3.45,3.58,3.79,4.01,4.60,4.62
10/15/2025,4.22,4.11,4.03,3.96,3.79,3.57,3.48,3.51,3.64,3.84,4.05,4.63,4.65
`

func TestParseCSVTakesNewestRow(t *testing.T) {
	curve, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC), curve.Date)
	require.Len(t, curve.Tenors, len(StandardTenors))
	assert.Equal(t, "1M", curve.Tenors[0].Label)
	assert.InDelta(t, 0.0421, curve.Tenors[0].Yield, 1e-12)
	assert.Equal(t, "30Y", curve.Tenors[12].Label)
	assert.InDelta(t, 0.0462, curve.Tenors[12].Yield, 1e-12)
}

func TestParseCSVMissingTenorsAreAbsent(t *testing.T) {
	csv := "Date,\"1 Mo\",\"1.5 Month\",\"1 Yr\",\"10 Yr\"\n01/02/2025,4.40,4.35,,4.57\n"
	curve, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, curve.Tenors, 2)
	assert.Equal(t, "1M", curve.Tenors[0].Label)
	assert.Equal(t, "10Y", curve.Tenors[1].Label)

	// 1Y is blank, so eight years resolves against what is left
	tenor, err := curve.Nearest(8)
	require.NoError(t, err)
	assert.Equal(t, "10Y", tenor.Label)
}

func TestParseCSVRejectsGarbage(t *testing.T) {
	for desc, body := range map[string]string{
		"empty":       "",
		"wrongHeader": "foo,bar\n1,2\n",
		"noRows":      "Date,\"1 Mo\"\n",
		"badDate":     "Date,\"1 Mo\"\n2025-01-02,4.1\n",
		"badYield":    "Date,\"1 Mo\"\n01/02/2025,abc\n",
		"allBlank":    "Date,\"1 Mo\"\n01/02/2025,\n",
	} {
		t.Run(desc, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestClientGetYield(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	c := NewClient(
		WithURL(srv.URL+"/rates/%d.csv"),
		WithClock(func() time.Time { return time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC) }),
	)

	y, err := c.GetYield(context.Background(), 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0378, y, 1e-12)
	assert.Equal(t, "/rates/2025.csv", gotPath)
}

func TestClientUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithURL(srv.URL))
	_, err := c.GetYield(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, models.IsDataUnavailable(err))
}
