package pyrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pyrite-engine/pyrite/snapshot"
	"github.com/pyrite-engine/pyrite/visit"
)

// Save serializes obj into a snapshot on w. rootName names the root region
// and must match on load.
func Save(ctx context.Context, w io.Writer, rootName string, obj visit.Visitable, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	n, err := save(w, rootName, obj, o)

	o.metricsCollector.RecordSave(n, time.Since(start), err)
	o.logger.LogSave(ctx, rootName, n, err)
	return translateError(err)
}

func save(w io.Writer, rootName string, obj visit.Visitable, o options) (int, error) {
	tree, err := visit.WriteTree(rootName, obj)
	if err != nil {
		return 0, fmt.Errorf("serialize %q: %w", rootName, err)
	}

	var buf bytes.Buffer
	if err := snapshot.Write(&buf, tree, snapshot.WithCompression(o.compression)); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return n, err
}

// Load reads a snapshot from r and deserializes it into obj. rootName must
// match the name the snapshot was saved under.
func Load(ctx context.Context, r io.Reader, rootName string, obj visit.Visitable, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	err := load(r, rootName, obj)

	o.metricsCollector.RecordLoad(time.Since(start), err)
	o.logger.LogLoad(ctx, rootName, err)
	return translateError(err)
}

func load(r io.Reader, rootName string, obj visit.Visitable) error {
	tree, err := snapshot.Read(r)
	if err != nil {
		return err
	}
	if tree.Name() != rootName {
		return fmt.Errorf("snapshot root is %q, want %q", tree.Name(), rootName)
	}
	return visit.ReadTree(tree, obj)
}

// SaveFile serializes obj into a snapshot file at path. The write is
// atomic: a crash mid-save leaves the previous file intact.
func SaveFile(ctx context.Context, path, rootName string, obj visit.Visitable, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	tree, err := visit.WriteTree(rootName, obj)
	if err == nil {
		err = snapshot.SaveFile(path, tree, snapshot.WithCompression(o.compression))
	}

	o.metricsCollector.RecordSave(0, time.Since(start), err)
	o.logger.LogSave(ctx, rootName, 0, err)
	return translateError(err)
}

// LoadFile reads the snapshot file at path and deserializes it into obj.
func LoadFile(ctx context.Context, path, rootName string, obj visit.Visitable, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	err := loadFile(path, rootName, obj)

	o.metricsCollector.RecordLoad(time.Since(start), err)
	o.logger.LogLoad(ctx, rootName, err)
	return translateError(err)
}

func loadFile(path, rootName string, obj visit.Visitable) error {
	tree, err := snapshot.LoadFile(path)
	if err != nil {
		return err
	}
	if tree.Name() != rootName {
		return fmt.Errorf("snapshot root is %q, want %q", tree.Name(), rootName)
	}
	return visit.ReadTree(tree, obj)
}
