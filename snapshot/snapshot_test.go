package snapshot_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/snapshot"
	"github.com/pyrite-engine/pyrite/visit"
)

func buildTree(t *testing.T) *visit.Node {
	t.Helper()
	root := visit.NewNode("world")
	root.SetVersion(1)
	require.NoError(t, root.SetField("name", visit.StringValue("overworld")))
	require.NoError(t, root.SetField("time", visit.Float64Value(128.5)))

	actors, err := root.AddChild("actors")
	require.NoError(t, err)
	require.NoError(t, actors.SetField("len", visit.Uint32Value(2)))
	return root
}

func assertTree(t *testing.T, got *visit.Node) {
	t.Helper()
	require.Equal(t, "world", got.Name())
	name, ok := got.Field("name")
	require.True(t, ok)
	s, _ := name.AsString()
	assert.Equal(t, "overworld", s)
	_, ok = got.Child("actors")
	assert.True(t, ok)
}

func TestRoundTripCompressions(t *testing.T) {
	for _, c := range []snapshot.Compression{
		snapshot.CompressionNone,
		snapshot.CompressionZstd,
		snapshot.CompressionLZ4,
	} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := snapshot.Encode(buildTree(t), snapshot.WithCompression(c))
			require.NoError(t, err)

			got, err := snapshot.ReadBytes(data)
			require.NoError(t, err)
			assertTree(t, got)

			// The stream path decodes the same bytes.
			got, err = snapshot.Read(bytes.NewReader(data))
			require.NoError(t, err)
			assertTree(t, got)
		})
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	data, err := snapshot.Encode(buildTree(t), snapshot.WithCompression(snapshot.CompressionNone))
	require.NoError(t, err)

	// Flip one payload byte past the 32-byte header.
	data[40] ^= 0xff

	_, err = snapshot.ReadBytes(data)
	require.Error(t, err)
	assert.True(t, snapshot.IsChecksumMismatch(err))
}

func TestInvalidMagic(t *testing.T) {
	data, err := snapshot.Encode(buildTree(t))
	require.NoError(t, err)
	data[0] ^= 0xff

	_, err = snapshot.ReadBytes(data)
	assert.ErrorIs(t, err, snapshot.ErrInvalidMagic)

	_, err = snapshot.ReadBytes(nil)
	assert.ErrorIs(t, err, snapshot.ErrInvalidMagic)

	_, err = snapshot.ReadBytes([]byte("not a snapshot at all, just text"))
	assert.ErrorIs(t, err, snapshot.ErrInvalidMagic)
}

func TestUnsupportedVersion(t *testing.T) {
	data, err := snapshot.Encode(buildTree(t))
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[4:], 0x00990000)

	_, err = snapshot.ReadBytes(data)
	assert.ErrorIs(t, err, snapshot.ErrInvalidVersion)
}

func TestUnknownCompression(t *testing.T) {
	data, err := snapshot.Encode(buildTree(t))
	require.NoError(t, err)
	data[8] = 0x7f

	_, err = snapshot.ReadBytes(data)
	assert.ErrorIs(t, err, snapshot.ErrUnknownCompression)
}

func TestTruncatedPayload(t *testing.T) {
	data, err := snapshot.Encode(buildTree(t))
	require.NoError(t, err)

	_, err = snapshot.ReadBytes(data[:len(data)-3])
	assert.Error(t, err)

	_, err = snapshot.Read(bytes.NewReader(data[:len(data)-3]))
	assert.Error(t, err)
}

func TestForgedPayloadLength(t *testing.T) {
	data, err := snapshot.Encode(buildTree(t))
	require.NoError(t, err)

	// A header claiming far more payload than the stream carries must fail
	// cleanly instead of sizing a buffer off the lie.
	binary.LittleEndian.PutUint64(data[12:], 1<<62)

	_, err = snapshot.Read(bytes.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = snapshot.ReadBytes(data)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Lengths past the int64 range are rejected outright.
	binary.LittleEndian.PutUint64(data[12:], math.MaxUint64)
	_, err = snapshot.Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, snapshot.Checksum([]byte("abc")), snapshot.Checksum([]byte("abc")))
	assert.NotEqual(t, snapshot.Checksum([]byte("abc")), snapshot.Checksum([]byte("abd")))
	assert.False(t, snapshot.IsChecksumMismatch(assert.AnError))
}

func TestSaveLoadFile(t *testing.T) {
	path := t.TempDir() + "/world.pyr"

	require.NoError(t, snapshot.SaveFile(path, buildTree(t)))

	got, err := snapshot.LoadFile(path)
	require.NoError(t, err)
	assertTree(t, got)
}

func TestSaveFileOverwritesAtomically(t *testing.T) {
	path := t.TempDir() + "/world.pyr"

	first := visit.NewNode("world")
	require.NoError(t, first.SetField("name", visit.StringValue("old")))
	require.NoError(t, snapshot.SaveFile(path, first))

	require.NoError(t, snapshot.SaveFile(path, buildTree(t)))

	got, err := snapshot.LoadFile(path)
	require.NoError(t, err)
	assertTree(t, got)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := snapshot.LoadFile(t.TempDir() + "/nope.pyr")
	assert.Error(t, err)
}
