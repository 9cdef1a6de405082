package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/ratetable"
	"msme-roi-engine/internal/services/database"
	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/services/ses"
	"msme-roi-engine/internal/utils"
)

type fakeObjects struct {
	files map[string][]byte
	moved map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{files: map[string][]byte{}, moved: map[string]string{}}
}

func (f *fakeObjects) DownloadFile(_ context.Context, key string) ([]byte, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return data, nil
}

func (f *fakeObjects) Archive(_ context.Context, key, version string) (string, error) {
	dest := s3service.ArchiveKey(key, version)
	f.moved[key] = dest
	return dest, nil
}

func (f *fakeObjects) Reject(_ context.Context, key string) (string, error) {
	dest := s3service.RejectedPrefix + path.Base(key)
	f.moved[key] = dest
	return dest, nil
}

type savedVersion struct {
	version  string
	source   string
	entries  int
	activate bool
}

type fakeVersions struct {
	saved []savedVersion
	err   error
}

func (f *fakeVersions) SaveVersion(_ context.Context, version, source string, entries []ratetable.Entry, activate bool) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, savedVersion{version, source, len(entries), activate})
	return nil
}

type fakeReporter struct {
	reports []ses.IngestReport
}

func (f *fakeReporter) SendIngestReport(_ context.Context, report ses.IngestReport) (*ses.SendEmailResult, error) {
	f.reports = append(f.reports, report)
	return &ses.SendEmailResult{MessageID: "m-1"}, nil
}

func s3Event(keys ...string) events.S3Event {
	var ev events.S3Event
	for _, k := range keys {
		var rec events.S3EventRecord
		rec.S3.Bucket.Name = "rates"
		rec.S3.Object.Key = k
		ev.Records = append(ev.Records, rec)
	}
	return ev
}

func builtinCSV(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, utils.WriteEntries(&buf, ratetable.Builtin().Entries()))
	return buf.Bytes()
}

func TestIngest_AcceptsValidTable(t *testing.T) {
	key := s3service.IncomingPrefix + "2024-11.csv"
	objects := newFakeObjects()
	objects.files[key] = builtinCSV(t)
	versions := &fakeVersions{}
	reporter := &fakeReporter{}

	h := handlers.NewRateTableIngestHandler(objects, versions, reporter)
	resp, err := h.Handle(context.Background(), s3Event(key))
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	res := resp.Results[0]
	assert.True(t, res.Accepted)
	assert.Equal(t, "2024-11", res.Version)
	assert.Empty(t, res.Problems)
	assert.Equal(t, "rate-tables/archive/2024-11/2024-11.csv", res.MovedTo)

	require.Len(t, versions.saved, 1)
	assert.Equal(t, savedVersion{
		version:  "2024-11",
		source:   "s3://rates/" + key,
		entries:  len(ratetable.Builtin().Entries()),
		activate: true,
	}, versions.saved[0])

	require.Len(t, reporter.reports, 1)
	assert.True(t, reporter.reports[0].Accepted)
}

func TestIngest_RejectsBadRows(t *testing.T) {
	key := s3service.IncomingPrefix + "bad.csv"
	objects := newFakeObjects()
	objects.files[key] = []byte("table_id,kind,key,sub_key,value\n" +
		"tenure-premium,tenure_premium,1-3y,,0.10\n" +
		"base-general,amount_band,50,,oops\n")
	versions := &fakeVersions{}
	reporter := &fakeReporter{}

	h := handlers.NewRateTableIngestHandler(objects, versions, reporter)
	resp, err := h.Handle(context.Background(), s3Event(key))
	require.NoError(t, err)

	res := resp.Results[0]
	assert.False(t, res.Accepted)
	assert.Equal(t, "rate-tables/rejected/bad.csv", res.MovedTo)
	require.NotEmpty(t, res.Problems)
	assert.Contains(t, res.Problems[0], "line 3")
	assert.Empty(t, versions.saved)

	require.Len(t, reporter.reports, 1)
	assert.False(t, reporter.reports[0].Accepted)
}

func TestIngest_ReportsCoverageGapsButAccepts(t *testing.T) {
	key := s3service.IncomingPrefix + "gappy.csv"
	var kept []ratetable.Entry
	for _, e := range ratetable.Builtin().Entries() {
		if e.TableID != ratetable.TableBaseStartUp {
			kept = append(kept, e)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, utils.WriteEntries(&buf, kept))

	objects := newFakeObjects()
	objects.files[key] = buf.Bytes()
	versions := &fakeVersions{}

	h := handlers.NewRateTableIngestHandler(objects, versions, nil)
	resp, err := h.Handle(context.Background(), s3Event(key))
	require.NoError(t, err)

	res := resp.Results[0]
	assert.True(t, res.Accepted)
	assert.NotEmpty(t, res.Problems)
	assert.Len(t, versions.saved, 1)
}

func TestIngest_RejectsExistingVersion(t *testing.T) {
	key := s3service.IncomingPrefix + "2024-11.csv"
	objects := newFakeObjects()
	objects.files[key] = builtinCSV(t)
	versions := &fakeVersions{err: fmt.Errorf("2024-11: %w", database.ErrVersionExists)}

	h := handlers.NewRateTableIngestHandler(objects, versions, nil)
	resp, err := h.Handle(context.Background(), s3Event(key))
	require.NoError(t, err)

	res := resp.Results[0]
	assert.False(t, res.Accepted)
	assert.Equal(t, "rate-tables/rejected/2024-11.csv", res.MovedTo)
}

func TestIngest_InfrastructureErrorsAreReturned(t *testing.T) {
	key := s3service.IncomingPrefix + "2024-11.csv"
	objects := newFakeObjects()

	h := handlers.NewRateTableIngestHandler(objects, &fakeVersions{}, nil)
	_, err := h.Handle(context.Background(), s3Event(key))
	require.Error(t, err)

	objects.files[key] = builtinCSV(t)
	h = handlers.NewRateTableIngestHandler(objects, &fakeVersions{err: errors.New("connection refused")}, nil)
	_, err = h.Handle(context.Background(), s3Event(key))
	require.Error(t, err)
	assert.Empty(t, objects.moved)
}

func TestIngest_SkipsOtherPrefixes(t *testing.T) {
	objects := newFakeObjects()
	h := handlers.NewRateTableIngestHandler(objects, &fakeVersions{}, nil)

	resp, err := h.Handle(context.Background(), s3Event("rate-tables/archive/x/x.csv"))
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	resp, err = h.Handle(context.Background(), events.S3Event{})
	require.NoError(t, err)
	assert.Equal(t, "No records to process", resp.Message)
}
