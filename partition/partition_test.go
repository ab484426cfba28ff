package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecbridge/vecbridge/vec"
)

func TestIdentityIndependentOfPayload(t *testing.T) {
	alloc := vec.NewAllocator(1024)

	v1, err := vec.NewIntVector(alloc, 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	v1.Set(0, 10)
	v1.SetValueCount(1)

	v2, err := vec.NewVarCharVector(alloc, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err = v2.Set(0, "x"); err != nil {
		t.Fatalf("%+v", err)
	}
	v2.SetValueCount(1)

	p1, err := New(7, 2, v1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p2, err := New(7, 2, v2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p3, err := New(7, 3, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p4, err := New(8, 2, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// equality is positional, payload plays no part
	assert.True(t, p1.Equal(p2))
	assert.Equal(t, p1.Hash(), p2.Hash())

	assert.False(t, p1.Equal(p3))
	assert.False(t, p1.Equal(p4))
	assert.False(t, p1.Equal(nil))
	assert.NotEqual(t, p1.Hash(), p3.Hash())
	assert.NotEqual(t, p1.Hash(), p4.Hash())

	p1.Release()
	p2.Release()
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestNegativeIndexRejected(t *testing.T) {
	_, err := New(1, -1, nil)
	assert.NotNil(t, err)
}

func TestReleaseWithoutVector(t *testing.T) {
	p, err := New(1, 0, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	p.Release()
	p.Release()
	assert.Nil(t, p.Vector())
}
