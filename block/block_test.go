/*
NAME
  block_test.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package block

import "testing"

func TestBlockLenAndBytes(t *testing.T) {
	b := New([]byte("hello world"))
	if b.Len() != 11 {
		t.Errorf("Len() = %d, want 11", b.Len())
	}
	if string(b.Bytes()) != "hello world" {
		t.Errorf("Bytes() = %q, want %q", b.Bytes(), "hello world")
	}
}

func TestBlockSliceIsZeroCopy(t *testing.T) {
	backing := []byte("hello world")
	b := New(backing)
	s := b.Slice(6, 5)
	if string(s.Bytes()) != "world" {
		t.Fatalf("Slice(6, 5) = %q, want %q", s.Bytes(), "world")
	}
	backing[6] = 'W'
	if s.Bytes()[0] != 'W' {
		t.Error("Slice did not alias the original backing array")
	}
}

func TestBlockExtractPrefixCopies(t *testing.T) {
	backing := []byte("hello world")
	b := New(backing)
	p := b.ExtractPrefix(5)
	if string(p.Bytes()) != "hello" {
		t.Fatalf("ExtractPrefix(5) = %q, want %q", p.Bytes(), "hello")
	}
	backing[0] = 'H'
	if p.Bytes()[0] != 'h' {
		t.Error("ExtractPrefix aliased the original backing array")
	}
}

func TestBlockCopy(t *testing.T) {
	backing := []byte("hello world")
	b := New(backing)
	c := b.Copy(6, 5)
	if string(c.Bytes()) != "world" {
		t.Fatalf("Copy(6, 5) = %q, want %q", c.Bytes(), "world")
	}
	backing[6] = 'W'
	if c.Bytes()[0] != 'w' {
		t.Error("Copy aliased the original backing array")
	}
}

func TestConcat(t *testing.T) {
	a := New([]byte("foo"))
	b := New([]byte("bar"))
	c := Concat(a, b)
	if string(c.Bytes()) != "foobar" {
		t.Fatalf("Concat = %q, want %q", c.Bytes(), "foobar")
	}
	// Mutating the inputs' backing arrays must not affect the result.
	a.Bytes()[0] = 'x'
	if c.Bytes()[0] != 'f' {
		t.Error("Concat aliased an input's backing array")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b Block
		want bool
	}{
		{New([]byte("abc")), New([]byte("abc")), true},
		{New([]byte("abc")), New([]byte("abd")), false},
		{New([]byte("abc")), New([]byte("ab")), false},
		{New(nil), New(nil), true},
		{Block{}, New([]byte{}), true},
	}
	for _, c := range cases {
		if got := Equal(c.a, c.b); got != c.want {
			t.Errorf("Equal(%q, %q) = %v, want %v", c.a.Bytes(), c.b.Bytes(), got, c.want)
		}
	}
}
