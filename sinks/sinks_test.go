package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

var epoch = time.Unix(0, 0).UTC()

func fixedClock() time.Time { return epoch }

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestFileSink_WritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	sink, err := NewFileSink(path)
	require.NoError(t, err)
	sink.now = fixedClock

	a := sink.Observer("rx://a")
	b := sink.Observer("rx://b")
	a.OnNext(1)
	b.OnError(errors.New("boom"))
	a.OnCompleted()
	require.NoError(t, sink.Close())

	// dropped after close
	a.OnNext(2)

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "rx://a", lines[0]["uri"])
	assert.Equal(t, "OnNext", lines[0]["kind"])
	assert.Equal(t, float64(1), lines[0]["value"])
	assert.Equal(t, "rx://b", lines[1]["uri"])
	assert.Equal(t, "OnError", lines[1]["kind"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "OnCompleted", lines[2]["kind"])
	assert.NotContains(t, lines[2], "value")
}

func TestFileSink_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	for i := 0; i < 2; i++ {
		sink, err := NewFileSink(path)
		require.NoError(t, err)
		sink.Observer("rx://a").OnNext(i)
		require.NoError(t, sink.Close())
	}
	assert.Len(t, readLines(t, path), 2)
}

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	fail    error
	flushed bool
	closed  bool
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.records = append(f.records, r)
	err := f.fail
	f.mu.Unlock()
	promise(r, err)
}

func (f *fakeProducer) Flush(context.Context) error {
	f.flushed = true
	return nil
}

func (f *fakeProducer) Close() {
	f.closed = true
}

func TestKafkaSink_Produce(t *testing.T) {
	p := &fakeProducer{}
	sink := newKafkaSink(p, "results")
	sink.now = fixedClock

	obs := sink.Observer("rx://orders")
	obs.OnNext(map[string]any{"id": 7})
	obs.OnCompleted()

	require.Len(t, p.records, 2)
	assert.Equal(t, "rx://orders", string(p.records[0].Key))

	var r Record
	require.NoError(t, json.Unmarshal(p.records[0].Value, &r))
	assert.Equal(t, "OnNext", r.Kind)
	assert.Equal(t, map[string]any{"id": float64(7)}, r.Value)
	assert.True(t, r.Time.Equal(epoch))

	require.NoError(t, json.Unmarshal(p.records[1].Value, &r))
	assert.Equal(t, "OnCompleted", r.Kind)

	require.NoError(t, sink.Close())
	assert.True(t, p.flushed)
	assert.True(t, p.closed)
}

func TestKafkaSink_ProduceErrorIsLogged(t *testing.T) {
	p := &fakeProducer{fail: errors.New("broker down")}
	sink := newKafkaSink(p, "results")

	assert.NotPanics(t, func() {
		sink.Observer("rx://a").OnNext(1)
	})
	assert.Len(t, p.records, 1)
}

func TestNew(t *testing.T) {
	sink, err := New(SinkConfig{})
	require.NoError(t, err)
	assert.IsType(t, &LogSink{}, sink)
	assert.NotPanics(t, func() { sink.Observer("rx://a").OnNext(1) })

	_, err = New(SinkConfig{Type: "file"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, err = New(SinkConfig{Type: "kafka", Topic: "t"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, err = New(SinkConfig{Type: "elasticsearch"})
	assert.ErrorIs(t, err, ErrUnknownSink)

	sink, err = New(SinkConfig{Type: "file", FilePath: filepath.Join(t.TempDir(), "o.jsonl")})
	require.NoError(t, err)
	assert.NoError(t, sink.Close())
}
