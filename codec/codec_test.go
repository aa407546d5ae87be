package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phase int

const (
	phaseActive phase = iota
	phaseCompleted
	phaseErrored
)

type timerStateV1 struct {
	NextDue int64
	Counter int64
}

type timerStateV2 struct {
	NextDue int64
	Counter int64
	Phase   phase
	Label   *string
}

func TestCodec_AdditiveEvolution(t *testing.T) {
	c := New()

	t.Run("missing fields default", func(t *testing.T) {
		data, err := c.Marshal(timerStateV1{NextDue: 540, Counter: 3})
		require.NoError(t, err)

		var got timerStateV2
		require.NoError(t, c.Unmarshal(data, &got))
		assert.Equal(t, int64(540), got.NextDue)
		assert.Equal(t, int64(3), got.Counter)
		assert.Equal(t, phaseActive, got.Phase)
		assert.Nil(t, got.Label)
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		label := "tick"
		data, err := c.Marshal(timerStateV2{NextDue: 640, Counter: 4, Phase: phaseErrored, Label: &label})
		require.NoError(t, err)

		var got timerStateV1
		require.NoError(t, c.Unmarshal(data, &got))
		assert.Equal(t, timerStateV1{NextDue: 640, Counter: 4}, got)
	})
}

func TestCodec_NullablesAndLists(t *testing.T) {
	c := New()

	type record struct {
		Name    *string
		Weights []float64
		Tags    []string
		Done    *bool
	}
	done := true
	in := record{Weights: []float64{1.5, -2}, Tags: []string{"a", "b"}, Done: &done}

	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Nil(t, out.Name)
	assert.Equal(t, in.Weights, out.Weights)
	assert.Equal(t, in.Tags, out.Tags)
	require.NotNil(t, out.Done)
	assert.True(t, *out.Done)
}

func TestCodec_Stream(t *testing.T) {
	c := New()
	buf := new(bytes.Buffer)

	enc := c.NewEncoder(buf)
	require.NoError(t, enc.Encode(true))
	require.NoError(t, enc.Encode(int64(42)))
	require.NoError(t, enc.Encode("tail"))

	dec := c.NewDecoder(buf)
	var b bool
	var n int64
	var s string
	require.NoError(t, dec.Decode(&b))
	require.NoError(t, dec.Decode(&n))
	require.NoError(t, dec.Decode(&s))
	assert.True(t, b)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, "tail", s)
}

func TestCodec_RejectsNonPointer(t *testing.T) {
	c := New()
	data, err := c.Marshal(1)
	require.NoError(t, err)

	var n int
	assert.ErrorIs(t, c.Unmarshal(data, n), ErrNilTarget)
	assert.ErrorIs(t, c.Unmarshal(data, nil), ErrNilTarget)
}
