package pipeline

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFromSliceCollect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
}

func TestFromSliceSizeHint(t *testing.T) {
	it := FromSlice([]string{"a", "b"}).Iter(context.Background())
	defer it.Close()

	if lower, upper, bounded := SizeHintOf(it); lower != 2 || upper != 2 || !bounded {
		t.Errorf("expected (2,2,true), got (%d,%d,%v)", lower, upper, bounded)
	}
	it.Next(context.Background())
	if lower, upper, _ := SizeHintOf(it); lower != 1 || upper != 1 {
		t.Errorf("expected (1,1) after one pull, got (%d,%d)", lower, upper)
	}
}

func TestSizeHintOfUnhinted(t *testing.T) {
	if lower, upper, bounded := SizeHintOf(struct{}{}); lower != 0 || upper != 0 || bounded {
		t.Errorf("expected (0,0,false), got (%d,%d,%v)", lower, upper, bounded)
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	close(ch)

	got, err := Collect(context.Background(), FromChannel(ch))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestFromFuncAndFrom(t *testing.T) {
	created := 0
	p := FromFunc(func(context.Context) Iterator[int] {
		created++
		return FromSlice([]int{5}).Iter(context.Background())
	})
	if created != 0 {
		t.Fatal("pipeline must be lazy")
	}
	if got, _ := Collect(context.Background(), p); !reflect.DeepEqual(got, []int{5}) || created != 1 {
		t.Errorf("expected [5] from one creation, got %v (created=%d)", got, created)
	}

	src := &scriptedIter[int]{items: []int{8, 9}}
	if got, _ := Collect(context.Background(), From[int](src)); !reflect.DeepEqual(got, []int{8, 9}) {
		t.Errorf("expected [8 9], got %v", got)
	}
	if !src.closed {
		t.Error("Collect should close the iterator")
	}
}

func TestCollectReturnsPartialOnError(t *testing.T) {
	boom := errors.New("boom")
	got, err := Collect(context.Background(), From[int](&scriptedIter[int]{items: []int{1, 2}, err: boom}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected partial [1 2], got %v", got)
	}
}

func TestMap(t *testing.T) {
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, v int) (int, error) { return v * v, nil })
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 4, 9}) {
		t.Errorf("expected [1 4 9], got %v", got)
	}

	it := p.Iter(context.Background())
	defer it.Close()
	if lower, upper, bounded := SizeHintOf(it); lower != 3 || upper != 3 || !bounded {
		t.Errorf("Map should pass the size hint through, got (%d,%d,%v)", lower, upper, bounded)
	}
}

func TestMapError(t *testing.T) {
	bad := errors.New("bad value")
	p := Map(FromSlice([]int{1, 2}), func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, bad
		}
		return v, nil
	})
	if _, err := Collect(context.Background(), p); !errors.Is(err, bad) {
		t.Errorf("expected bad value, got %v", err)
	}
}

func TestDrainAndForEach(t *testing.T) {
	var seen []int
	err := Drain(FromSlice([]int{1, 2}), func(_ context.Context, v int) error {
		seen = append(seen, v)
		return nil
	}).Run(context.Background())
	if err != nil || !reflect.DeepEqual(seen, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v err=%v", seen, err)
	}

	stop := errors.New("stop")
	calls := 0
	err = ForEach(context.Background(), FromSlice([]int{1, 2, 3}), func(_ context.Context, v int) error {
		calls++
		if v == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 2 {
		t.Errorf("expected stop after 2 calls, got err=%v calls=%d", err, calls)
	}
}

func TestIsSuspended(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{context.Canceled, true},
		{context.DeadlineExceeded, true},
		{errors.Join(errors.New("wrapped"), context.Canceled), true},
		{errors.New("other"), false},
		{nil, false},
	}
	for _, tc := range tests {
		if got := IsSuspended(tc.err); got != tc.want {
			t.Errorf("IsSuspended(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestCheckedAdd(t *testing.T) {
	if v, ok := checkedAdd(2, 3); v != 5 || !ok {
		t.Errorf("expected 5, got %d ok=%v", v, ok)
	}
	if _, ok := checkedAdd(math.MaxInt, 1); ok {
		t.Error("expected overflow to be reported")
	}
	if v, ok := checkedAdd(math.MaxInt-1, 1); v != math.MaxInt || !ok {
		t.Errorf("expected MaxInt, got %d ok=%v", v, ok)
	}
}
