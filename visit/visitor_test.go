package visit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/visit"
)

type item struct {
	Name  string
	Count int32
}

func (i *item) Visit(v *visit.Visitor) error {
	if err := v.String("name", &i.Name); err != nil {
		return err
	}
	return v.Int32("count", &i.Count)
}

type player struct {
	Name      string
	Health    float32
	Alive     bool
	Level     uint16
	Score     int64
	Position  []float32
	SaveData  []byte
	Inventory []item
}

func (p *player) Visit(v *visit.Visitor) error {
	if err := v.String("name", &p.Name); err != nil {
		return err
	}
	if err := v.Float32("health", &p.Health); err != nil {
		return err
	}
	if err := v.Bool("alive", &p.Alive); err != nil {
		return err
	}
	if err := v.Uint16("level", &p.Level); err != nil {
		return err
	}
	if err := v.Int64("score", &p.Score); err != nil {
		return err
	}
	if err := v.Float32Array("position", &p.Position); err != nil {
		return err
	}
	if err := v.Bytes("save_data", &p.SaveData); err != nil {
		return err
	}
	return visit.Slice(v, "inventory", &p.Inventory, func(v *visit.Visitor, e *item) error {
		return e.Visit(v)
	})
}

func TestVisitSymmetry(t *testing.T) {
	src := player{
		Name:     "hero",
		Health:   100,
		Alive:    true,
		Level:    7,
		Score:    -12345,
		Position: []float32{1, 2, 3},
		SaveData: []byte{0xde, 0xad},
		Inventory: []item{
			{Name: "sword", Count: 1},
			{Name: "potion", Count: 3},
		},
	}

	tree, err := visit.WriteTree("player", &src)
	require.NoError(t, err)
	assert.Equal(t, "player", tree.Name())

	var dst player
	require.NoError(t, visit.ReadTree(tree, &dst))
	assert.Equal(t, src, dst)
}

func TestVisitMissingFieldKeepsDefault(t *testing.T) {
	// A writer that never saw the field.
	w := visit.NewWriter("root")
	require.NoError(t, w.String("name", strp("x")))

	r := visit.NewReader(w.Root())
	count := int32(42)
	err := r.Int32("count", &count)
	require.ErrorIs(t, err, visit.ErrFieldMissing)
	assert.Equal(t, int32(42), count)

	// Optional turns the miss into "keep the default".
	assert.NoError(t, visit.Optional(err))
}

func TestVisitMissingRegion(t *testing.T) {
	w := visit.NewWriter("root")
	require.NoError(t, w.Enter("a"))
	w.Leave()

	r := visit.NewReader(w.Root())
	err := r.Enter("b")
	require.ErrorIs(t, err, visit.ErrRegionMissing)
	assert.NoError(t, visit.Optional(err))

	// The failed Enter must not move the cursor.
	require.NoError(t, r.Enter("a"))
	r.Leave()
}

func TestVisitKindMismatch(t *testing.T) {
	w := visit.NewWriter("root")
	require.NoError(t, w.String("f", strp("x")))

	r := visit.NewReader(w.Root())
	var n int32
	err := r.Int32("f", &n)
	require.ErrorIs(t, err, visit.ErrKindMismatch)
	// Kind mismatch is a real error, not an optional miss.
	assert.Error(t, visit.Optional(err))
}

func TestVisitDuplicateNames(t *testing.T) {
	w := visit.NewWriter("root")
	require.NoError(t, w.String("f", strp("x")))
	assert.ErrorIs(t, w.String("f", strp("y")), visit.ErrDuplicateField)

	require.NoError(t, w.Enter("r"))
	w.Leave()
	assert.ErrorIs(t, w.Enter("r"), visit.ErrDuplicateRegion)
}

func TestVisitRegionVersion(t *testing.T) {
	w := visit.NewWriter("root")
	err := w.Region("settings", func() error {
		w.SetVersion(3)
		return w.Bool("fullscreen", boolp(true))
	})
	require.NoError(t, err)

	r := visit.NewReader(w.Root())
	err = r.Region("settings", func() error {
		assert.Equal(t, uint32(3), r.Version())
		return nil
	})
	require.NoError(t, err)
}

func TestVisitLeaveRootPanics(t *testing.T) {
	w := visit.NewWriter("root")
	assert.Panics(t, func() { w.Leave() })
}

func TestVisitAllFieldKinds(t *testing.T) {
	var (
		b   = true
		i8  = int8(-8)
		i16 = int16(-16)
		i32 = int32(-32)
		i64 = int64(-64)
		u8  = uint8(8)
		u16 = uint16(16)
		u32 = uint32(32)
		u64 = uint64(64)
		f32 = float32(0.5)
		f64 = 0.25
		s   = "text"
		by  = []byte{1, 2}
		fa  = []float32{1.5}
		ref = visit.Ref{Index: 4, Generation: 2}
	)

	w := visit.NewWriter("root")
	require.NoError(t, w.Bool("b", &b))
	require.NoError(t, w.Int8("i8", &i8))
	require.NoError(t, w.Int16("i16", &i16))
	require.NoError(t, w.Int32("i32", &i32))
	require.NoError(t, w.Int64("i64", &i64))
	require.NoError(t, w.Uint8("u8", &u8))
	require.NoError(t, w.Uint16("u16", &u16))
	require.NoError(t, w.Uint32("u32", &u32))
	require.NoError(t, w.Uint64("u64", &u64))
	require.NoError(t, w.Float32("f32", &f32))
	require.NoError(t, w.Float64("f64", &f64))
	require.NoError(t, w.String("s", &s))
	require.NoError(t, w.Bytes("by", &by))
	require.NoError(t, w.Float32Array("fa", &fa))
	require.NoError(t, w.Ref("ref", &ref))

	r := visit.NewReader(w.Root())
	var (
		gb   bool
		gi8  int8
		gi16 int16
		gi32 int32
		gi64 int64
		gu8  uint8
		gu16 uint16
		gu32 uint32
		gu64 uint64
		gf32 float32
		gf64 float64
		gs   string
		gby  []byte
		gfa  []float32
		gref visit.Ref
	)
	require.NoError(t, r.Bool("b", &gb))
	require.NoError(t, r.Int8("i8", &gi8))
	require.NoError(t, r.Int16("i16", &gi16))
	require.NoError(t, r.Int32("i32", &gi32))
	require.NoError(t, r.Int64("i64", &gi64))
	require.NoError(t, r.Uint8("u8", &gu8))
	require.NoError(t, r.Uint16("u16", &gu16))
	require.NoError(t, r.Uint32("u32", &gu32))
	require.NoError(t, r.Uint64("u64", &gu64))
	require.NoError(t, r.Float32("f32", &gf32))
	require.NoError(t, r.Float64("f64", &gf64))
	require.NoError(t, r.String("s", &gs))
	require.NoError(t, r.Bytes("by", &gby))
	require.NoError(t, r.Float32Array("fa", &gfa))
	require.NoError(t, r.Ref("ref", &gref))

	assert.Equal(t, b, gb)
	assert.Equal(t, i8, gi8)
	assert.Equal(t, i16, gi16)
	assert.Equal(t, i32, gi32)
	assert.Equal(t, i64, gi64)
	assert.Equal(t, u8, gu8)
	assert.Equal(t, u16, gu16)
	assert.Equal(t, u32, gu32)
	assert.Equal(t, u64, gu64)
	assert.Equal(t, f32, gf32)
	assert.Equal(t, f64, gf64)
	assert.Equal(t, s, gs)
	assert.Equal(t, by, gby)
	assert.Equal(t, fa, gfa)
	assert.Equal(t, ref, gref)
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }
