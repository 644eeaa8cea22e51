package nn

import "fmt"

// Tensor is a dense row-major float32 tensor, as produced by a network output layer
type Tensor struct {
	Shape []int
	Data  []float32
}

// Create a zero-filled tensor
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float32, n),
	}
}

// Wrap existing data. The length of data must equal the product of shape.
func WrapTensor(data []float32, shape ...int) (*Tensor, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("Tensor shape %v needs %v elements, but data has %v", shape, n, len(data))
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  data,
	}, nil
}

func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Dim returns the size of dimension i, or 0 if the tensor has fewer dimensions
func (t *Tensor) Dim(i int) int {
	if i >= len(t.Shape) {
		return 0
	}
	return t.Shape[i]
}

// Offset of the element at idx. Trailing indices may be omitted, in which case
// they are treated as zero. Panics if any index is out of range.
func (t *Tensor) Offset(idx ...int) int {
	if len(idx) > len(t.Shape) {
		panic(fmt.Sprintf("Tensor index %v has more dimensions than shape %v", idx, t.Shape))
	}
	off := 0
	for d := 0; d < len(t.Shape); d++ {
		i := 0
		if d < len(idx) {
			i = idx[d]
		}
		if i < 0 || i >= t.Shape[d] {
			panic(fmt.Sprintf("Tensor index %v out of range for shape %v", idx, t.Shape))
		}
		off = off*t.Shape[d] + i
	}
	return off
}

func (t *Tensor) At(idx ...int) float32 {
	return t.Data[t.Offset(idx...)]
}

func (t *Tensor) Set(v float32, idx ...int) {
	t.Data[t.Offset(idx...)] = v
}

// Slice returns the contiguous block of elements addressed by a prefix of indices.
// For a tensor of shape [N,C,H,W], Slice(n, c) returns the H*W elements of that plane.
// The returned slice shares memory with the tensor.
func (t *Tensor) Slice(prefix ...int) []float32 {
	start := t.Offset(prefix...)
	n := 1
	for d := len(prefix); d < len(t.Shape); d++ {
		n *= t.Shape[d]
	}
	return t.Data[start : start+n]
}
